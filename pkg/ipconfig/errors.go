package ipconfig

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyBound    = errors.New("ipconfig is already bound")
	ErrNotBound        = errors.New("ipconfig is not bound")
	ErrNoSuchDevice    = errors.New("no such device")
	ErrAddressExists   = errors.New("address already exists")
	ErrAddressNotFound = errors.New("address not found")
	ErrConfigReleased  = errors.New("ipconfig has been released")
)
