package sysctl

import "errors"

var (
	ErrInvalidInterfaceName = errors.New("invalid interface name")
	ErrInvalidValue         = errors.New("invalid sysctl value")
)
