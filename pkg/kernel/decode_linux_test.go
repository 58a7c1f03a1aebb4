package kernel

import (
	"net"
	"testing"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

func TestDecodeLink(t *testing.T) {
	mac, err := net.ParseMAC("02:00:00:00:00:01")
	if err != nil {
		t.Fatalf("ParseMAC failed: %v", err)
	}

	link := &netlink.Device{
		LinkAttrs: netlink.LinkAttrs{
			Index:        5,
			Name:         "eth0",
			MTU:          1500,
			HardwareAddr: mac,
			RawFlags:     unix.IFF_UP | unix.IFF_RUNNING | unix.IFF_LOWER_UP,
			EncapType:    "ether",
			Statistics:   &netlink.LinkStatistics{RxPackets: 3, TxBytes: 99},
		},
	}

	event := decodeLink(link, 0)
	if event.Index != 5 || event.Name != "eth0" || event.MTU != 1500 {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Type != unix.ARPHRD_ETHER {
		t.Fatalf("expected ether link type, got %d", event.Type)
	}
	if event.HardwareAddr != "02:00:00:00:00:01" {
		t.Fatalf("unexpected hardware address %q", event.HardwareAddr)
	}
	if event.Flags&ipconfig.FlagLowerUp == 0 || event.Flags&ipconfig.FlagRunning == 0 || event.Flags&ipconfig.FlagUp == 0 {
		t.Fatalf("expected kernel flags to map onto ipconfig flags, got %#x", event.Flags)
	}
	if event.Statistics == nil || event.Statistics.RxPackets != 3 || event.Statistics.TxBytes != 99 {
		t.Fatalf("unexpected statistics %+v", event.Statistics)
	}

	loopback := &netlink.Device{
		LinkAttrs: netlink.LinkAttrs{Index: 1, Name: "lo", Flags: net.FlagLoopback},
	}
	if event := decodeLink(loopback, 0); event.Type != ipconfig.LinkTypeLoopback {
		t.Fatalf("expected loopback link type, got %d", event.Type)
	}
	if event := decodeLink(link, unix.ARPHRD_NONE); event.Type != unix.ARPHRD_NONE {
		t.Fatalf("expected header link type to win, got %d", event.Type)
	}
}

func TestDecodeAddr(t *testing.T) {
	addr, err := netlink.ParseAddr("192.168.1.5/24")
	if err != nil {
		t.Fatalf("ParseAddr failed: %v", err)
	}
	addr.LinkIndex = 5
	addr.Broadcast = net.ParseIP("192.168.1.255")

	event, ok := decodeAddr(*addr)
	if !ok {
		t.Fatalf("expected address to decode")
	}
	expected := ipconfig.AddressEvent{
		Index:        5,
		Family:       ipconfig.FamilyIPv4,
		Local:        "192.168.1.5",
		Broadcast:    "192.168.1.255",
		PrefixLength: 24,
	}
	if event != expected {
		t.Fatalf("expected %+v, got %+v", expected, event)
	}

	_, ipNet, err := net.ParseCIDR("2001:db8::/64")
	if err != nil {
		t.Fatalf("ParseCIDR failed: %v", err)
	}
	ipNet.IP = net.ParseIP("2001:db8::5")
	event, ok = decodeAddress(7, *ipNet, nil, nil)
	if !ok || event.Family != ipconfig.FamilyIPv6 || event.PrefixLength != 64 || event.Local != "2001:db8::5" {
		t.Fatalf("unexpected ipv6 event %+v", event)
	}

	if _, ok := decodeAddr(netlink.Addr{}); ok {
		t.Fatalf("expected address without ip to be skipped")
	}
}

func TestDecodeRoute(t *testing.T) {
	event, ok := decodeRoute(netlink.Route{
		LinkIndex: 5,
		Family:    unix.AF_INET,
		Gw:        net.ParseIP("192.168.1.1"),
		Table:     unix.RT_TABLE_MAIN,
	})
	if !ok {
		t.Fatalf("expected default route to decode")
	}
	if event.Index != 5 || event.Family != ipconfig.FamilyIPv4 || event.Destination != "" || event.PrefixLength != 0 || event.Gateway != "192.168.1.1" {
		t.Fatalf("unexpected event %+v", event)
	}

	_, dst, err := net.ParseCIDR("10.0.0.0/8")
	if err != nil {
		t.Fatalf("ParseCIDR failed: %v", err)
	}
	event, ok = decodeRoute(netlink.Route{LinkIndex: 5, Dst: dst})
	if !ok || event.Destination != "10.0.0.0" || event.PrefixLength != 8 || event.Family != ipconfig.FamilyIPv4 {
		t.Fatalf("unexpected event %+v", event)
	}

	if _, ok := decodeRoute(netlink.Route{LinkIndex: 5, Family: unix.AF_INET, Table: unix.RT_TABLE_LOCAL}); ok {
		t.Fatalf("expected local table route to be skipped")
	}
	if _, ok := decodeRoute(netlink.Route{Family: unix.AF_INET6, Gw: net.ParseIP("fe80::1")}); ok {
		t.Fatalf("expected route without interface to be skipped")
	}
}

func TestToNetlinkAddr(t *testing.T) {
	address := ipconfig.NewAddress(ipconfig.FamilyIPv4)
	address.Set("10.0.0.1", "10.0.0.2", 32, "")
	address.Broadcast = "10.0.0.255"

	addr, err := toNetlinkAddr(address)
	if err != nil {
		t.Fatalf("toNetlinkAddr failed: %v", err)
	}
	if addr.IPNet.String() != "10.0.0.1/32" {
		t.Fatalf("unexpected address %s", addr.IPNet)
	}
	if addr.Peer == nil || addr.Peer.String() != "10.0.0.2/32" {
		t.Fatalf("unexpected peer %v", addr.Peer)
	}
	if !addr.Broadcast.Equal(net.ParseIP("10.0.0.255")) {
		t.Fatalf("unexpected broadcast %s", addr.Broadcast)
	}

	if _, err := toNetlinkAddr(ipconfig.NewAddress(ipconfig.FamilyIPv4)); err == nil {
		t.Fatalf("expected empty address to fail")
	}
}
