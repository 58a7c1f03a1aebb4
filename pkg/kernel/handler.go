package kernel

import (
	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

// Handler receives the decoded netlink notifications, one call at a time
// from the monitor goroutine.
type Handler interface {
	HandleNewLink(event ipconfig.LinkEvent)
	HandleDelLink(index int)
	HandleNewAddress(event ipconfig.AddressEvent)
	HandleDelAddress(event ipconfig.AddressEvent)
	HandleNewRoute(event ipconfig.RouteEvent)
	HandleDelRoute(event ipconfig.RouteEvent)
}
