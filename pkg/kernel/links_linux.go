package kernel

import (
	"fmt"

	"github.com/vishvananda/netlink"

	"github.com/UnAfraid/ipconfd/pkg/internal/adapt"
	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

// ListLinks returns the current state of every link, counters included.
func ListLinks() ([]ipconfig.LinkEvent, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	return adapt.Array(links, func(link netlink.Link) ipconfig.LinkEvent {
		return decodeLink(link, 0)
	}), nil
}
