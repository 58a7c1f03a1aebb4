package ipconfig

import (
	"github.com/sirupsen/logrus"
)

// LinkEvent is a decoded RTM_NEWLINK message.
type LinkEvent struct {
	Index        int
	Name         string
	Type         uint16
	Flags        uint32
	MTU          int
	HardwareAddr string
	Statistics   *Statistics
}

// AddressEvent is a decoded RTM_NEWADDR or RTM_DELADDR message.
type AddressEvent struct {
	Index        int
	Family       Family
	Local        string
	Peer         string
	Broadcast    string
	PrefixLength uint8
}

// RouteEvent is a decoded RTM_NEWROUTE or RTM_DELROUTE message.
type RouteEvent struct {
	Index        int
	Family       Family
	Destination  string
	PrefixLength uint8
	Gateway      string
}

func (e RouteEvent) isDefault() bool {
	if e.PrefixLength != 0 {
		return false
	}
	switch e.Destination {
	case "", "0.0.0.0", "::":
		return true
	}
	return false
}

// NewLink registers unseen interfaces and fires the callbacks of the bound
// configs for every flag edge: Up, LowerUp, LowerDown, Down in that order.
// Loopback interfaces are ignored.
func (r *Registry) NewLink(event LinkEvent) {
	if event.Type == LinkTypeLoopback {
		return
	}

	device, ok := r.devices[event.Index]
	if !ok {
		device = r.newDevice(event)
		r.devices[event.Index] = device

		logrus.
			WithField("index", event.Index).
			WithField("ifname", event.Name).
			Info("interface added")
	}

	if event.Name != "" {
		device.name = event.Name
	}
	device.linkType = event.Type
	device.hardwareAddr = event.HardwareAddr
	device.mtu = event.MTU

	if event.Statistics != nil {
		device.stats = *event.Statistics
		r.stats.NotifyStatistics(device.index, device.name, device.stats)
	}

	if event.Flags == device.flags {
		return
	}

	var up, down, lowerUp, lowerDown bool
	if device.flags&FlagUp != event.Flags&FlagUp {
		if event.Flags&FlagUp != 0 {
			up = true
		} else {
			down = true
		}
	}
	if device.flags&flagsCarrier != event.Flags&flagsCarrier {
		switch event.Flags & flagsCarrier {
		case flagsCarrier:
			lowerUp = true
		case 0:
			lowerDown = true
		}
	}
	device.flags = event.Flags

	logrus.
		WithField("index", device.index).
		WithField("ifname", device.name).
		WithField("up", device.IsUp()).
		WithField("lowerUp", device.IsLowerUp()).
		Info("interface flags changed")

	for _, cfg := range r.boundConfigs(device.index) {
		ops := cfg.ops
		if ops == nil {
			continue
		}
		if up {
			ops.Up(cfg, device.name)
		}
		if lowerUp {
			ops.LowerUp(cfg, device.name)
		}
		if lowerDown {
			ops.LowerDown(cfg, device.name)
		}
		if down {
			ops.Down(cfg, device.name)
		}
	}
}

// UpdateStatistics records polled counters of a known interface. Unknown
// indexes are ignored and the link flags are left alone, so a poll taken
// before a removal or a flag change cannot undo it.
func (r *Registry) UpdateStatistics(index int, stats Statistics) {
	device, ok := r.devices[index]
	if !ok || device.stats == stats {
		return
	}
	device.stats = stats
	r.stats.NotifyStatistics(device.index, device.name, device.stats)
}

// DelLink tells the bound configs that the link went away (LowerDown then
// Down), detaches them and destroys the device. The configs themselves live
// on as long as someone else holds a reference.
func (r *Registry) DelLink(index int) error {
	device, ok := r.devices[index]
	if !ok {
		logrus.WithField("index", index).Debug("ignoring removal of unknown interface")
		return nil
	}

	for _, cfg := range r.boundConfigs(index) {
		if cfg.ops == nil {
			continue
		}
		cfg.ops.LowerDown(cfg, device.name)
		cfg.ops.Down(cfg, device.name)
	}

	delete(r.devices, index)

	logrus.
		WithField("index", index).
		WithField("ifname", device.name).
		Info("interface removed")

	return r.destroyDevice(device)
}

// NewAddress records a kernel assigned address. The bound config of the same
// family mirrors it in its system record and, when the link has carrier, gets
// IPBound. A repeated (prefix length, local) pair returns ErrAddressExists.
func (r *Registry) NewAddress(event AddressEvent) error {
	device, ok := r.devices[event.Index]
	if !ok {
		logrus.
			WithField("index", event.Index).
			WithField("address", event.Local).
			Debug("ignoring address of unknown interface")
		return nil
	}

	if device.findAddress(event.Family, event.PrefixLength, event.Local) >= 0 {
		return ErrAddressExists
	}

	address := NewAddress(event.Family)
	address.Set(event.Local, event.Peer, event.PrefixLength, "")
	address.Broadcast = event.Broadcast
	device.addresses = append(device.addresses, address)

	if event.Family == FamilyIPv4 {
		r.pool.NewAddress(event.Index, event.Local, event.PrefixLength)
	}

	logrus.
		WithField("index", device.index).
		WithField("ifname", device.name).
		WithField("address", address.String()).
		Info("address added")

	cfg := device.config(event.Family)
	if cfg == nil {
		return nil
	}
	cfg.system.copyAssignment(address)

	if !device.IsLowerUp() || cfg.ops == nil {
		return nil
	}
	cfg.ops.IPBound(cfg, device.name)
	return nil
}

// DelAddress forgets a kernel address. When it was the last one of its family
// and the link has carrier the bound config gets IPRelease.
func (r *Registry) DelAddress(event AddressEvent) error {
	device, ok := r.devices[event.Index]
	if !ok {
		logrus.
			WithField("index", event.Index).
			WithField("address", event.Local).
			Debug("ignoring address of unknown interface")
		return nil
	}

	i := device.findAddress(event.Family, event.PrefixLength, event.Local)
	if i < 0 {
		return ErrAddressNotFound
	}

	if event.Family == FamilyIPv4 {
		r.pool.DelAddress(event.Index, event.Local, event.PrefixLength)
	}

	address := device.addresses[i]
	device.addresses = append(device.addresses[:i], device.addresses[i+1:]...)

	logrus.
		WithField("index", device.index).
		WithField("ifname", device.name).
		WithField("address", address.String()).
		Info("address removed")

	if !device.IsLowerUp() || device.hasAddress(event.Family) {
		return nil
	}

	cfg := device.config(event.Family)
	if cfg == nil || cfg.ops == nil {
		return nil
	}
	cfg.ops.IPRelease(cfg, device.name)
	return nil
}

// NewRoute tracks the default gateway of the interface. Other routes are
// ignored, as is a default route whose gateway is already known.
func (r *Registry) NewRoute(event RouteEvent) {
	device, ok := r.devices[event.Index]
	if !ok || !event.isDefault() {
		return
	}

	gateway := device.gateway(event.Family)
	if gateway == nil || (*gateway == event.Gateway && event.Gateway != "") {
		return
	}
	*gateway = event.Gateway

	logrus.
		WithField("index", device.index).
		WithField("ifname", device.name).
		WithField("gateway", event.Gateway).
		Info("default gateway set")

	cfg := device.config(event.Family)
	if cfg == nil {
		return
	}
	cfg.system.Gateway = event.Gateway
	if cfg.ops != nil {
		cfg.ops.RouteSet(cfg, device.name)
	}
}

// DelRoute clears the default gateway of the interface. Removals for a
// gateway that is not the current one are stale and ignored.
func (r *Registry) DelRoute(event RouteEvent) {
	device, ok := r.devices[event.Index]
	if !ok || !event.isDefault() {
		return
	}

	gateway := device.gateway(event.Family)
	if gateway == nil || *gateway == "" {
		return
	}
	if event.Gateway != "" && event.Gateway != *gateway {
		return
	}
	*gateway = ""

	logrus.
		WithField("index", device.index).
		WithField("ifname", device.name).
		Info("default gateway removed")

	cfg := device.config(event.Family)
	if cfg == nil {
		return
	}
	cfg.system.Gateway = ""
	if cfg.ops != nil {
		cfg.ops.RouteUnset(cfg, device.name)
	}
}
