package kernel

import "errors"

var (
	ErrNotSupported       = errors.New("kernel monitoring is only supported on linux")
	ErrSubscriptionClosed = errors.New("netlink subscription closed")
)
