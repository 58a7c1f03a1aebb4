package kernel

import (
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

// decodeLink maps link attributes to a LinkEvent. linkType is the ARPHRD
// value from the netlink header when known, 0 to derive it from the attributes.
func decodeLink(link netlink.Link, linkType uint16) ipconfig.LinkEvent {
	attrs := link.Attrs()
	if linkType == 0 {
		linkType = linkTypeFromAttrs(attrs)
	}

	event := ipconfig.LinkEvent{
		Index: attrs.Index,
		Name:  attrs.Name,
		Type:  linkType,
		Flags: attrs.RawFlags,
		MTU:   attrs.MTU,
	}
	if len(attrs.HardwareAddr) > 0 {
		event.HardwareAddr = attrs.HardwareAddr.String()
	}
	if attrs.Statistics != nil {
		event.Statistics = linkStatisticsToStatistics(attrs.Statistics)
	}
	return event
}

func linkTypeFromAttrs(attrs *netlink.LinkAttrs) uint16 {
	switch {
	case attrs.Flags&net.FlagLoopback != 0, attrs.EncapType == "loopback":
		return unix.ARPHRD_LOOPBACK
	case attrs.EncapType == "ether":
		return unix.ARPHRD_ETHER
	case attrs.EncapType == "none":
		return unix.ARPHRD_NONE
	}
	return 0
}

func linkStatisticsToStatistics(statistics *netlink.LinkStatistics) *ipconfig.Statistics {
	return &ipconfig.Statistics{
		RxPackets: statistics.RxPackets,
		TxPackets: statistics.TxPackets,
		RxBytes:   statistics.RxBytes,
		TxBytes:   statistics.TxBytes,
		RxErrors:  statistics.RxErrors,
		TxErrors:  statistics.TxErrors,
		RxDropped: statistics.RxDropped,
		TxDropped: statistics.TxDropped,
	}
}

func decodeAddress(index int, ipNet net.IPNet, peer *net.IPNet, broadcast net.IP) (ipconfig.AddressEvent, bool) {
	family := familyOf(ipNet.IP)
	if family == ipconfig.FamilyUnknown {
		return ipconfig.AddressEvent{}, false
	}

	ones, _ := ipNet.Mask.Size()
	event := ipconfig.AddressEvent{
		Index:        index,
		Family:       family,
		Local:        ipNet.IP.String(),
		PrefixLength: uint8(ones),
	}
	if peer != nil && !peer.IP.Equal(ipNet.IP) {
		event.Peer = peer.IP.String()
	}
	if len(broadcast) > 0 {
		event.Broadcast = broadcast.String()
	}
	return event, true
}

func decodeAddr(addr netlink.Addr) (ipconfig.AddressEvent, bool) {
	if addr.IPNet == nil {
		return ipconfig.AddressEvent{}, false
	}
	return decodeAddress(addr.LinkIndex, *addr.IPNet, addr.Peer, addr.Broadcast)
}

// decodeRoute returns false for routes outside the main table and for routes
// without an output interface.
func decodeRoute(route netlink.Route) (ipconfig.RouteEvent, bool) {
	if route.LinkIndex <= 0 {
		return ipconfig.RouteEvent{}, false
	}
	if route.Table != 0 && route.Table != unix.RT_TABLE_MAIN {
		return ipconfig.RouteEvent{}, false
	}

	event := ipconfig.RouteEvent{
		Index:  route.LinkIndex,
		Family: familyFromAF(route.Family),
	}
	if route.Dst != nil {
		ones, _ := route.Dst.Mask.Size()
		event.Destination = route.Dst.IP.String()
		event.PrefixLength = uint8(ones)
		if event.Family == ipconfig.FamilyUnknown {
			event.Family = familyOf(route.Dst.IP)
		}
	}
	if len(route.Gw) > 0 {
		event.Gateway = route.Gw.String()
		if event.Family == ipconfig.FamilyUnknown {
			event.Family = familyOf(route.Gw)
		}
	}
	if event.Family == ipconfig.FamilyUnknown {
		return ipconfig.RouteEvent{}, false
	}
	return event, true
}

func familyOf(ip net.IP) ipconfig.Family {
	switch {
	case ip.To4() != nil:
		return ipconfig.FamilyIPv4
	case ip.To16() != nil:
		return ipconfig.FamilyIPv6
	}
	return ipconfig.FamilyUnknown
}

func familyFromAF(family int) ipconfig.Family {
	switch family {
	case unix.AF_INET:
		return ipconfig.FamilyIPv4
	case unix.AF_INET6:
		return ipconfig.FamilyIPv6
	}
	return ipconfig.FamilyUnknown
}
