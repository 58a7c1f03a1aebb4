package kernel

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

const updateChanBufferSize = 256

// Monitor feeds link, address and default route notifications to a Handler.
type Monitor struct {
	handler Handler
}

func NewMonitor(handler Handler) *Monitor {
	return &Monitor{
		handler: handler,
	}
}

// Run subscribes before dumping the current kernel state so nothing is lost
// in between; notifications that repeat the dump are deduplicated by the
// handler. It returns when ctx is done or a subscription closes.
func (m *Monitor) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	errorCallback := func(err error) {
		logrus.
			WithError(err).
			Error("netlink subscription error")
	}

	linkChan := make(chan netlink.LinkUpdate, updateChanBufferSize)
	if err := netlink.LinkSubscribeWithOptions(linkChan, done, netlink.LinkSubscribeOptions{
		ErrorCallback: errorCallback,
	}); err != nil {
		return fmt.Errorf("failed to subscribe to link updates: %w", err)
	}

	addrChan := make(chan netlink.AddrUpdate, updateChanBufferSize)
	if err := netlink.AddrSubscribeWithOptions(addrChan, done, netlink.AddrSubscribeOptions{
		ErrorCallback: errorCallback,
	}); err != nil {
		return fmt.Errorf("failed to subscribe to address updates: %w", err)
	}

	routeChan := make(chan netlink.RouteUpdate, updateChanBufferSize)
	if err := netlink.RouteSubscribeWithOptions(routeChan, done, netlink.RouteSubscribeOptions{
		ErrorCallback: errorCallback,
	}); err != nil {
		return fmt.Errorf("failed to subscribe to route updates: %w", err)
	}

	if err := m.dump(); err != nil {
		return err
	}

	logrus.Info("kernel monitor running")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-linkChan:
			if !ok {
				return fmt.Errorf("link: %w", ErrSubscriptionClosed)
			}
			m.handleLinkUpdate(update)
		case update, ok := <-addrChan:
			if !ok {
				return fmt.Errorf("address: %w", ErrSubscriptionClosed)
			}
			m.handleAddrUpdate(update)
		case update, ok := <-routeChan:
			if !ok {
				return fmt.Errorf("route: %w", ErrSubscriptionClosed)
			}
			m.handleRouteUpdate(update)
		}
	}
}

func (m *Monitor) dump() error {
	links, err := ListLinks()
	if err != nil {
		return err
	}
	for _, link := range links {
		m.handler.HandleNewLink(link)
	}

	addrs, err := netlink.AddrList(nil, netlink.FAMILY_ALL)
	if err != nil {
		return fmt.Errorf("failed to list addresses: %w", err)
	}
	for _, addr := range addrs {
		if event, ok := decodeAddr(addr); ok {
			m.handler.HandleNewAddress(event)
		}
	}

	routes, err := netlink.RouteList(nil, netlink.FAMILY_ALL)
	if err != nil {
		return fmt.Errorf("failed to list routes: %w", err)
	}
	for _, route := range routes {
		if event, ok := decodeRoute(route); ok {
			m.handler.HandleNewRoute(event)
		}
	}
	return nil
}

func (m *Monitor) handleLinkUpdate(update netlink.LinkUpdate) {
	if update.Link == nil || update.Attrs() == nil {
		return
	}

	if update.Header.Type == unix.RTM_DELLINK {
		m.handler.HandleDelLink(update.Attrs().Index)
		return
	}
	m.handler.HandleNewLink(decodeLink(update.Link, update.IfInfomsg.Type))
}

func (m *Monitor) handleAddrUpdate(update netlink.AddrUpdate) {
	event, ok := decodeAddress(update.LinkIndex, update.LinkAddress, nil, nil)
	if !ok {
		return
	}

	if update.NewAddr {
		m.handler.HandleNewAddress(event)
		return
	}
	m.handler.HandleDelAddress(event)
}

func (m *Monitor) handleRouteUpdate(update netlink.RouteUpdate) {
	event, ok := decodeRoute(update.Route)
	if !ok {
		return
	}

	switch update.Type {
	case unix.RTM_NEWROUTE:
		m.handler.HandleNewRoute(event)
	case unix.RTM_DELROUTE:
		m.handler.HandleDelRoute(event)
	}
}
