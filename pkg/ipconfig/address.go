package ipconfig

import (
	"fmt"
	"net"

	"github.com/asaskevich/govalidator"
)

// Address holds one IP address in text form. The family is fixed when the
// address is created, empty strings mean the field is absent.
type Address struct {
	family       Family
	Local        string
	Peer         string
	Broadcast    string
	Gateway      string
	PrefixLength uint8
}

func NewAddress(family Family) *Address {
	return &Address{
		family: family,
	}
}

func (a *Address) Family() Family {
	return a.family
}

func (a *Address) Set(local string, peer string, prefixLength uint8, gateway string) {
	a.Local = local
	a.Peer = peer
	a.PrefixLength = prefixLength
	a.Gateway = gateway
}

func (a *Address) SetBroadcast(broadcast string) {
	a.Broadcast = broadcast
}

// Clear resets everything but the family.
func (a *Address) Clear() {
	a.Local = ""
	a.Peer = ""
	a.Broadcast = ""
	a.Gateway = ""
	a.PrefixLength = 0
}

// CopyFrom copies all fields of other. Addresses of different families are
// never mixed, the call is ignored in that case.
func (a *Address) CopyFrom(other *Address) {
	if other == nil || other.family != a.family {
		return
	}
	a.Local = other.Local
	a.Peer = other.Peer
	a.Broadcast = other.Broadcast
	a.Gateway = other.Gateway
	a.PrefixLength = other.PrefixLength
}

// copyAssignment copies the kernel assigned part of other, keeping the gateway
// which is learned from route events.
func (a *Address) copyAssignment(other *Address) {
	if other == nil || other.family != a.family {
		return
	}
	a.Local = other.Local
	a.Peer = other.Peer
	a.Broadcast = other.Broadcast
	a.PrefixLength = other.PrefixLength
}

func (a *Address) Clone() *Address {
	clone := *a
	return &clone
}

func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return *a == *other
}

func (a *Address) IsEmpty() bool {
	return a.Local == "" && a.Peer == "" && a.Broadcast == "" && a.Gateway == "" && a.PrefixLength == 0
}

// Netmask renders the IPv4 prefix length as a dotted quad, empty for IPv6.
func (a *Address) Netmask() string {
	if a.family != FamilyIPv4 {
		return ""
	}
	return netmaskString(a.PrefixLength)
}

func (a *Address) String() string {
	if a.Local == "" {
		return ""
	}
	return fmt.Sprintf("%s/%d", a.Local, a.PrefixLength)
}

func (a *Address) Validate() error {
	if a.PrefixLength > a.family.maxPrefixLength() {
		return fmt.Errorf("%w: prefix length %d out of range for %s", ErrInvalidArgument, a.PrefixLength, a.family)
	}

	for name, value := range map[string]string{
		"local":     a.Local,
		"peer":      a.Peer,
		"broadcast": a.Broadcast,
		"gateway":   a.Gateway,
	} {
		if value == "" {
			continue
		}
		if !a.isFamilyIP(value) {
			return fmt.Errorf("%w: invalid %s %s address: %s", ErrInvalidArgument, a.family, name, value)
		}
	}
	return nil
}

func (a *Address) isFamilyIP(value string) bool {
	switch a.family {
	case FamilyIPv4:
		return govalidator.IsIPv4(value)
	case FamilyIPv6:
		return govalidator.IsIPv6(value)
	}
	return false
}

func (a *Address) matches(prefixLength uint8, local string) bool {
	return a.PrefixLength == prefixLength && a.Local == local
}

func netmaskString(prefixLength uint8) string {
	var mask uint32
	if prefixLength > 0 {
		mask = 0xffffffff << (32 - uint32(min(prefixLength, 32)))
	}
	return net.IPv4(byte(mask>>24), byte(mask>>16), byte(mask>>8), byte(mask)).String()
}

func prefixLengthFromNetmask(netmask string) (uint8, error) {
	ip := net.ParseIP(netmask).To4()
	if ip == nil {
		return 0, fmt.Errorf("%w: invalid netmask: %s", ErrInvalidArgument, netmask)
	}
	ones, bits := net.IPMask(ip).Size()
	if bits == 0 {
		return 0, fmt.Errorf("%w: non-contiguous netmask: %s", ErrInvalidArgument, netmask)
	}
	return uint8(ones), nil
}
