package adapt

// Array maps items with adapterFn, nil for an empty input.
func Array[T, R any](items []T, adapterFn func(T) R) (elements []R) {
	if len(items) == 0 {
		return nil
	}

	elements = make([]R, 0, len(items))
	for _, item := range items {
		elements = append(elements, adapterFn(item))
	}
	return elements
}

// Dereference returns the zero value for a nil pointer.
func Dereference[T any](v *T) (result T) {
	if v == nil {
		return result
	}
	return *v
}
