package dbx

import "errors"

var ErrReadOnlyTransaction = errors.New("transaction in context is read-only")
