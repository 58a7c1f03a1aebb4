package ipconfig

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

type Options struct {
	IPv6Supported  bool
	Sysctl         Sysctl
	AddressManager AddressManager
	IPPool         IPPool
	StatsNotifier  StatsNotifier
}

// Registry owns every known Device and tracks the bound configs for event
// fan-out. It is not safe for concurrent use: all calls, including the ones
// made through Config, must come from a single goroutine or be serialized by
// the caller. Only the Config reference count is atomic.
type Registry struct {
	devices       map[int]*Device
	configs       []*Config
	ipv6Supported bool

	sysctl    Sysctl
	addresses AddressManager
	pool      IPPool
	stats     StatsNotifier
}

func NewRegistry(options Options) *Registry {
	r := &Registry{
		devices:       make(map[int]*Device),
		ipv6Supported: options.IPv6Supported,
		sysctl:        options.Sysctl,
		addresses:     options.AddressManager,
		pool:          options.IPPool,
		stats:         options.StatsNotifier,
	}
	if r.sysctl == nil {
		r.sysctl = nopSysctl{}
	}
	if r.addresses == nil {
		r.addresses = nopAddressManager{}
	}
	if r.pool == nil {
		r.pool = nopIPPool{}
	}
	if r.stats == nil {
		r.stats = nopStatsNotifier{}
	}
	return r
}

func (r *Registry) IPv6Supported() bool {
	return r.ipv6Supported
}

func (r *Registry) Device(index int) (*Device, error) {
	device, ok := r.devices[index]
	if !ok {
		return nil, ErrNoSuchDevice
	}
	return device, nil
}

// Devices returns all devices ordered by index.
func (r *Registry) Devices() []*Device {
	indexes := make([]int, 0, len(r.devices))
	for index := range r.devices {
		indexes = append(indexes, index)
	}
	slices.Sort(indexes)

	devices := make([]*Device, 0, len(indexes))
	for _, index := range indexes {
		devices = append(devices, r.devices[index])
	}
	return devices
}

// Configs returns the bound configs in bind order.
func (r *Registry) Configs() []*Config {
	return slices.Clone(r.configs)
}

// Close destroys every device, which detaches and releases the bound configs.
// Configs still bound at this point are held by an owner that never disabled
// them; they are reported and detached but left alive.
func (r *Registry) Close() error {
	for _, cfg := range r.configs {
		logrus.
			WithField("index", cfg.index).
			WithField("family", cfg.family.String()).
			WithField("refs", cfg.Refs()).
			Warn("ipconfig still bound at registry close")
	}

	var result error
	for _, device := range r.Devices() {
		delete(r.devices, device.index)
		if err := r.destroyDevice(device); err != nil {
			result = multierror.Append(result, err)
		}
	}
	r.configs = nil
	return result
}

func (r *Registry) appendConfig(cfg *Config) {
	if slices.Contains(r.configs, cfg) {
		return
	}
	r.configs = append(r.configs, cfg)
}

func (r *Registry) removeConfig(cfg *Config) bool {
	i := slices.Index(r.configs, cfg)
	if i < 0 {
		return false
	}
	r.configs = slices.Delete(r.configs, i, i+1)
	return true
}

// boundConfigs snapshots the configs bound to index so callbacks may change
// the registry while they run.
func (r *Registry) boundConfigs(index int) []*Config {
	var configs []*Config
	for _, cfg := range r.configs {
		if cfg.index == index {
			configs = append(configs, cfg)
		}
	}
	return configs
}

func (r *Registry) newDevice(event LinkEvent) *Device {
	device := &Device{
		index:    event.Index,
		name:     event.Name,
		linkType: event.Type,
	}

	enabled, err := r.sysctl.IPv6Enabled(device.name)
	if err != nil {
		logrus.
			WithError(err).
			WithField("ifname", device.name).
			Debug("failed to read ipv6 state")
	}
	device.ipv6Enabled = enabled

	privacy, err := r.sysctl.IPv6Privacy(device.name)
	if err != nil {
		logrus.
			WithError(err).
			WithField("ifname", device.name).
			Debug("failed to read ipv6 privacy")
	}
	device.ipv6Privacy = privacyFromKernel(privacy)

	return device
}

// destroyDevice detaches the configs bound to device, restores the sysctl
// values found at creation and drops the device references.
func (r *Registry) destroyDevice(device *Device) error {
	for _, family := range []Family{FamilyIPv4, FamilyIPv6} {
		cfg := device.config(family)
		if cfg == nil {
			continue
		}
		device.setConfig(family, nil)
		r.removeConfig(cfg)
		cfg.enabled = false
		cfg.index = DetachedIndex
		cfg.Unref()
	}

	var result error
	if err := r.sysctl.SetIPv6Enabled(device.name, device.ipv6Enabled); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to restore ipv6 state of %s: %w", device.name, err))
	}
	if err := r.sysctl.SetIPv6Privacy(device.name, int(device.ipv6Privacy)); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to restore ipv6 privacy of %s: %w", device.name, err))
	}

	device.addresses = nil
	return result
}

func (r *Registry) enableIPv6(cfg *Config) {
	device, ok := r.devices[cfg.index]
	if !ok {
		return
	}

	if cfg.method == MethodAuto {
		if err := r.sysctl.SetIPv6Privacy(device.name, int(cfg.privacy)); err != nil {
			logrus.
				WithError(err).
				WithField("ifname", device.name).
				Warn("failed to set ipv6 privacy")
		}
	}

	if err := r.sysctl.SetIPv6Enabled(device.name, true); err != nil {
		logrus.
			WithError(err).
			WithField("ifname", device.name).
			Warn("failed to enable ipv6")
	}
}

func (r *Registry) disableIPv6(device *Device) {
	if err := r.sysctl.SetIPv6Enabled(device.name, false); err != nil {
		logrus.
			WithError(err).
			WithField("ifname", device.name).
			Warn("failed to disable ipv6")
	}
}
