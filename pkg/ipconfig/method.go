package ipconfig

// Method is the address acquisition strategy of one family on one interface.
type Method int

const (
	MethodUnknown Method = iota
	MethodOff
	MethodFixed
	MethodManual
	MethodDHCP
	MethodAuto
)

var methodNames = map[Method]string{
	MethodOff:    "off",
	MethodFixed:  "fixed",
	MethodManual: "manual",
	MethodDHCP:   "dhcp",
	MethodAuto:   "auto",
}

// ParseMethod maps the persisted and IPC token to a Method. Matching is exact
// and case-sensitive, anything else yields MethodUnknown.
func ParseMethod(s string) Method {
	for method, name := range methodNames {
		if name == s {
			return method
		}
	}
	return MethodUnknown
}

// token returns the persisted and IPC form, false for MethodUnknown.
func (m Method) token() (string, bool) {
	name, ok := methodNames[m]
	return name, ok
}

func (m Method) String() string {
	if name, ok := m.token(); ok {
		return name
	}
	return "unknown"
}

func (m Method) usable() bool {
	return m != MethodUnknown && m != MethodOff
}

func (m Method) hasStaticAddress() bool {
	return m == MethodFixed || m == MethodManual
}

// validFor reports whether the method may be used with the family: auto is
// IPv6 only and dhcp is IPv4 only.
func (m Method) validFor(family Family) bool {
	switch m {
	case MethodAuto:
		return family == FamilyIPv6
	case MethodDHCP:
		return family == FamilyIPv4
	}
	return true
}

func defaultMethod(family Family) Method {
	switch family {
	case FamilyIPv4:
		return MethodDHCP
	case FamilyIPv6:
		return MethodAuto
	}
	return MethodOff
}
