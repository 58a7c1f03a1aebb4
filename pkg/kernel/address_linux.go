package kernel

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

// AddressManager writes addresses to interfaces over rtnetlink.
type AddressManager struct{}

func NewAddressManager() *AddressManager {
	return &AddressManager{}
}

func (m *AddressManager) SetAddress(index int, address *ipconfig.Address) error {
	link, addr, err := resolve(index, address)
	if err != nil {
		return err
	}

	if err := netlink.AddrAdd(link, addr); err != nil {
		if !os.IsExist(err) {
			return fmt.Errorf("failed to add address: %w", err)
		}
	}
	return nil
}

func (m *AddressManager) ClearAddress(index int, address *ipconfig.Address) error {
	link, addr, err := resolve(index, address)
	if err != nil {
		return err
	}

	if err := netlink.AddrDel(link, addr); err != nil {
		if !errors.Is(err, unix.EADDRNOTAVAIL) {
			return fmt.Errorf("failed to delete address: %w", err)
		}
	}
	return nil
}

func resolve(index int, address *ipconfig.Address) (netlink.Link, *netlink.Addr, error) {
	link, err := netlink.LinkByIndex(index)
	if err != nil {
		var linkNotFoundErr netlink.LinkNotFoundError
		if errors.As(err, &linkNotFoundErr) {
			return nil, nil, ipconfig.ErrNoSuchDevice
		}
		return nil, nil, fmt.Errorf("failed to find link by index: %w", err)
	}

	addr, err := toNetlinkAddr(address)
	if err != nil {
		return nil, nil, err
	}
	return link, addr, nil
}

func toNetlinkAddr(address *ipconfig.Address) (*netlink.Addr, error) {
	if address == nil || address.Local == "" {
		return nil, fmt.Errorf("%w: no local address", ipconfig.ErrInvalidArgument)
	}

	addr, err := netlink.ParseAddr(fmt.Sprintf("%s/%d", address.Local, address.PrefixLength))
	if err != nil {
		return nil, fmt.Errorf("failed to parse address: %w", err)
	}

	bits := 32
	if address.Family() == ipconfig.FamilyIPv6 {
		bits = 128
	}
	if address.Peer != "" {
		peer := net.ParseIP(address.Peer)
		if peer == nil {
			return nil, fmt.Errorf("%w: invalid peer address: %s", ipconfig.ErrInvalidArgument, address.Peer)
		}
		addr.Peer = &net.IPNet{
			IP:   peer,
			Mask: net.CIDRMask(bits, bits),
		}
	}
	if address.Broadcast != "" {
		broadcast := net.ParseIP(address.Broadcast)
		if broadcast == nil {
			return nil, fmt.Errorf("%w: invalid broadcast address: %s", ipconfig.ErrInvalidArgument, address.Broadcast)
		}
		addr.Broadcast = broadcast
	}
	return addr, nil
}
