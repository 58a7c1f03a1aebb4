package ipconfig

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DetachedIndex is the owning index of a config whose interface went away.
const DetachedIndex = -1

// Config is the desired and applied address configuration of one family on
// one interface. It is reference counted: the creator holds the first
// reference and the Device holds one more while the config is bound.
type Config struct {
	registry *Registry
	refs     atomic.Int32
	released atomic.Bool

	index          int
	family         Family
	enabled        bool
	method         Method
	wanted         *Address
	system         *Address
	privacy        Privacy
	dhcpAddress    string
	dhcpv6Prefixes []string

	ops  Operations
	data any
}

// NewIPv4Config creates an IPv4 config using dhcp. index may be DetachedIndex.
func (r *Registry) NewIPv4Config(index int) *Config {
	cfg := r.newConfig(index, FamilyIPv4)
	cfg.method = MethodDHCP
	return cfg
}

// NewIPv6Config creates an IPv6 config using auto when the kernel supports
// IPv6 and off otherwise. The privacy level starts from the value observed on
// the interface, if it is known.
func (r *Registry) NewIPv6Config(index int) *Config {
	cfg := r.newConfig(index, FamilyIPv6)
	cfg.method = MethodOff
	if r.ipv6Supported {
		cfg.method = MethodAuto
	}
	if device, ok := r.devices[index]; ok {
		cfg.privacy = device.ipv6Privacy
	}
	return cfg
}

func (r *Registry) newConfig(index int, family Family) *Config {
	cfg := &Config{
		registry: r,
		index:    index,
		family:   family,
		wanted:   NewAddress(family),
		system:   NewAddress(family),
	}
	cfg.refs.Store(1)

	logrus.
		WithField("index", index).
		WithField("family", family.String()).
		Debug("ipconfig created")

	return cfg
}

func (c *Config) Ref() *Config {
	c.refs.Add(1)
	return c
}

// Unref drops one reference. The last one unbinds the config if it is still
// bound and releases it; later calls are reported and ignored.
func (c *Config) Unref() {
	if c == nil {
		return
	}

	refs := c.refs.Add(-1)
	if refs > 0 {
		return
	}
	if refs < 0 || !c.released.CompareAndSwap(false, true) {
		logrus.
			WithField("index", c.index).
			WithField("family", c.family.String()).
			Warn("unbalanced ipconfig unref")
		return
	}

	if c.enabled {
		c.unbind()
	}
	c.registry.removeConfig(c)
	c.wanted.Clear()
	c.system.Clear()
	c.dhcpAddress = ""
	c.dhcpv6Prefixes = nil
	c.ops = nil
	c.data = nil
}

func (c *Config) Refs() int32 {
	return c.refs.Load()
}

func (c *Config) Released() bool {
	return c.released.Load()
}

func (c *Config) Index() int {
	return c.index
}

func (c *Config) Family() Family {
	return c.family
}

func (c *Config) Enabled() bool {
	return c.enabled
}

func (c *Config) Privacy() Privacy {
	return c.privacy
}

func (c *Config) Data() any {
	return c.data
}

func (c *Config) SetData(data any) {
	c.data = data
}

func (c *Config) Wanted() Address {
	return *c.wanted
}

func (c *Config) System() Address {
	return *c.system
}

func (c *Config) DHCPAddress() string {
	return c.dhcpAddress
}

func (c *Config) SetDHCPAddress(address string) {
	c.dhcpAddress = address
}

func (c *Config) DHCPv6Prefixes() []string {
	return slices.Clone(c.dhcpv6Prefixes)
}

func (c *Config) SetDHCPv6Prefixes(prefixes []string) {
	if len(prefixes) == 0 {
		c.dhcpv6Prefixes = nil
		return
	}
	c.dhcpv6Prefixes = slices.Clone(prefixes)
}

// InterfaceName returns the name of the owning interface, empty when detached.
func (c *Config) InterfaceName() string {
	device, ok := c.registry.devices[c.index]
	if !ok {
		return ""
	}
	return device.name
}

// Method returns the configured method, MethodUnknown for a nil config.
func (c *Config) Method() Method {
	if c == nil {
		return MethodUnknown
	}
	return c.method
}

// SetMethod stores the method without applying it; callers follow up with
// Enable, Disable or the address operations. Methods that do not fit the
// family (auto on IPv4, dhcp on IPv6) are rejected.
func (c *Config) SetMethod(method Method) error {
	if c == nil {
		return ErrInvalidArgument
	}
	if !method.validFor(c.family) {
		return fmt.Errorf("%w: method %s is not valid for %s", ErrInvalidArgument, method, c.family)
	}
	c.method = method
	return nil
}

func (c *Config) IsUsable() bool {
	return c.Method().usable()
}

func (c *Config) SetLocal(local string, prefixLength uint8) {
	c.wanted.Local = local
	c.wanted.PrefixLength = prefixLength
}

func (c *Config) SetPeer(peer string) {
	c.wanted.Peer = peer
}

func (c *Config) SetBroadcast(broadcast string) {
	c.wanted.Broadcast = broadcast
}

func (c *Config) SetGateway(gateway string) {
	c.wanted.Gateway = gateway
}

// SetWanted replaces the wanted record; the family of address must match.
func (c *Config) SetWanted(address *Address) error {
	if address == nil || address.family != c.family {
		return ErrInvalidArgument
	}
	c.wanted.CopyFrom(address)
	return nil
}

// SetSystemFromWanted records the wanted address as applied, used once a
// static address has been written to the kernel.
func (c *Config) SetSystemFromWanted() {
	c.system.CopyFrom(c.wanted)
}

func (c *Config) Local() string {
	return c.system.Local
}

func (c *Config) PrefixLength() uint8 {
	return c.system.PrefixLength
}

func (c *Config) Gateway() string {
	return c.system.Gateway
}

// AddressAdd applies the wanted address to the interface.
func (c *Config) AddressAdd() error {
	if !c.method.usable() {
		return nil
	}
	if _, err := c.device(); err != nil {
		return err
	}
	if err := c.registry.addresses.SetAddress(c.index, c.wanted); err != nil {
		return fmt.Errorf("failed to set %s address %s on %d: %w", c.family, c.wanted, c.index, err)
	}
	return nil
}

// AddressRemove clears the wanted address from the interface and forgets the
// applied one.
func (c *Config) AddressRemove() error {
	if err := c.AddressUnset(); err != nil {
		return err
	}
	if c.method.usable() {
		c.system.Clear()
	}
	return nil
}

// AddressUnset clears the wanted address from the interface but keeps the
// system record.
func (c *Config) AddressUnset() error {
	if !c.method.usable() {
		return nil
	}
	if _, err := c.device(); err != nil {
		return err
	}
	if err := c.registry.addresses.ClearAddress(c.index, c.wanted); err != nil {
		return fmt.Errorf("failed to clear %s address %s on %d: %w", c.family, c.wanted, c.index, err)
	}
	return nil
}

// Enable binds the config as the active one of its family on the interface.
// A different config bound to the same slot is unbound and released first.
// ops, when not nil, replaces the callbacks. Before returning the callbacks
// are told the current link state: one of Up/Down and one of
// LowerUp/LowerDown. The system record starts from the addresses and gateway
// the device already knows.
func (c *Config) Enable(index int, ops Operations) error {
	if c.released.Load() {
		return ErrConfigReleased
	}

	r := c.registry
	device, ok := r.devices[index]
	if !ok {
		return ErrNoSuchDevice
	}
	if c.enabled {
		return ErrAlreadyBound
	}

	if previous := device.config(c.family); previous != nil {
		logrus.
			WithField("index", index).
			WithField("family", c.family.String()).
			Debug("replacing bound ipconfig")
		previous.unbind()
		previous.Unref()
	}

	c.index = index
	c.enabled = true
	if ops != nil {
		c.ops = ops
	}
	device.setConfig(c.family, c.Ref())
	if c.family == FamilyIPv6 {
		r.enableIPv6(c)
	}
	r.appendConfig(c)
	c.syncSystem(device)

	logrus.
		WithField("index", index).
		WithField("ifname", device.name).
		WithField("family", c.family.String()).
		WithField("method", c.method.String()).
		Info("ipconfig enabled")

	if c.ops == nil {
		return nil
	}
	if device.IsUp() {
		c.ops.Up(c, device.name)
	} else {
		c.ops.Down(c, device.name)
	}
	if device.IsLowerUp() {
		c.ops.LowerUp(c, device.name)
	} else {
		c.ops.LowerDown(c, device.name)
	}
	return nil
}

// syncSystem mirrors what the kernel already reported for the family: the
// most recent address and the default gateway.
func (c *Config) syncSystem(device *Device) {
	c.system.Clear()
	c.system.copyAssignment(device.lastAddress(c.family))
	if gateway := device.gateway(c.family); gateway != nil {
		c.system.Gateway = *gateway
	}
}

// Disable unbinds the config and forgets the applied address without
// touching the kernel.
func (c *Config) Disable() error {
	if !c.enabled {
		return ErrNotBound
	}
	c.unbind()
	c.Unref()
	return nil
}

// unbind detaches the config from its device but leaves the device reference
// for the caller to drop.
func (c *Config) unbind() {
	r := c.registry
	r.removeConfig(c)
	c.system.Clear()
	c.enabled = false

	device, ok := r.devices[c.index]
	if !ok || device.config(c.family) != c {
		return
	}
	device.setConfig(c.family, nil)
	if c.family == FamilyIPv6 {
		r.disableIPv6(device)
	}

	logrus.
		WithField("index", c.index).
		WithField("ifname", device.name).
		WithField("family", c.family.String()).
		Info("ipconfig disabled")
}

// IPv6SetPrivacy stores the configured privacy level and re-applies IPv6 on
// the interface, which pushes the level to the kernel for method auto.
func (c *Config) IPv6SetPrivacy(level string) error {
	if level == "" {
		return ErrInvalidArgument
	}
	c.privacy = ParsePrivacy(level)
	c.registry.enableIPv6(c)
	return nil
}

// IPv6ResetPrivacy goes back to the privacy level the interface had before
// this process changed it.
func (c *Config) IPv6ResetPrivacy() error {
	device, err := c.device()
	if err != nil {
		return err
	}
	return c.IPv6SetPrivacy(device.ipv6Privacy.String())
}

func (c *Config) device() (*Device, error) {
	device, ok := c.registry.devices[c.index]
	if !ok {
		return nil, ErrNoSuchDevice
	}
	return device, nil
}
