package manage

import (
	"errors"
)

var (
	ErrInterfaceNotFound   = errors.New("interface not found")
	ErrInterfaceNotManaged = errors.New("interface is not managed")
	ErrInvalidFamily       = errors.New("invalid address family")
	ErrServiceClosed       = errors.New("service is closed")
)
