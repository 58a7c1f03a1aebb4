package ippool

import (
	"errors"
	"net/netip"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrSubnetInUse = errors.New("subnet is in use by another interface")

type entry struct {
	index  int
	prefix netip.Prefix
}

// Pool tracks the IPv4 subnets the kernel reports per interface so a static
// address can be checked for conflicts before it is applied.
type Pool struct {
	mutex   sync.RWMutex
	entries []entry
}

func New() *Pool {
	return &Pool{}
}

func (p *Pool) NewAddress(index int, address string, prefixLength uint8) {
	prefix, ok := parsePrefix(address, prefixLength)
	if !ok {
		logrus.
			WithField("index", index).
			WithField("address", address).
			Warn("ignoring unparsable pool address")
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	e := entry{index: index, prefix: prefix}
	if slices.Contains(p.entries, e) {
		return
	}
	p.entries = append(p.entries, e)
}

func (p *Pool) DelAddress(index int, address string, prefixLength uint8) {
	prefix, ok := parsePrefix(address, prefixLength)
	if !ok {
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.entries = slices.DeleteFunc(p.entries, func(e entry) bool {
		return e.index == index && e.prefix == prefix
	})
}

// Check returns ErrSubnetInUse when the subnet of address overlaps a subnet
// used by an interface other than index.
func (p *Pool) Check(index int, address string, prefixLength uint8) error {
	prefix, ok := parsePrefix(address, prefixLength)
	if !ok {
		return nil
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	for _, e := range p.entries {
		if e.index == index {
			continue
		}
		if e.prefix.Overlaps(prefix) {
			return ErrSubnetInUse
		}
	}
	return nil
}

// Subnets returns the subnets in use on index.
func (p *Pool) Subnets(index int) []string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	var subnets []string
	for _, e := range p.entries {
		if e.index == index {
			subnets = append(subnets, e.prefix.String())
		}
	}
	return subnets
}

func parsePrefix(address string, prefixLength uint8) (netip.Prefix, bool) {
	addr, err := netip.ParseAddr(address)
	if err != nil || !addr.Is4() {
		return netip.Prefix{}, false
	}
	prefix, err := addr.Prefix(int(prefixLength))
	if err != nil {
		return netip.Prefix{}, false
	}
	return prefix, true
}
