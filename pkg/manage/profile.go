package manage

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

const (
	ipv4StorePrefix = "IPv4."
	ipv6StorePrefix = "IPv6."
)

// profile is the per interface owner of the IPv4 and IPv6 configs. It holds
// the creator reference of each config and receives their callbacks.
type profile struct {
	service *service
	index   int
	ifname  string
	ipv4    *ipconfig.Config
	ipv6    *ipconfig.Config
}

func (p *profile) config(family ipconfig.Family) *ipconfig.Config {
	switch family {
	case ipconfig.FamilyIPv4:
		return p.ipv4
	case ipconfig.FamilyIPv6:
		return p.ipv6
	}
	return nil
}

func (p *profile) configs() []*ipconfig.Config {
	var configs []*ipconfig.Config
	for _, cfg := range []*ipconfig.Config{p.ipv4, p.ipv6} {
		if cfg != nil {
			configs = append(configs, cfg)
		}
	}
	return configs
}

// release drops the creator references. Configs still bound stay alive
// through the device reference until it goes away.
func (p *profile) release() {
	for _, cfg := range p.configs() {
		cfg.Unref()
	}
	p.ipv4 = nil
	p.ipv6 = nil
}

func (p *profile) Up(cfg *ipconfig.Config, ifname string) {
	p.changed(ChangedActionUp, cfg, ifname)
}

func (p *profile) Down(cfg *ipconfig.Config, ifname string) {
	p.changed(ChangedActionDown, cfg, ifname)
}

// LowerUp writes the wanted address of a static config to the kernel.
func (p *profile) LowerUp(cfg *ipconfig.Config, ifname string) {
	if hasStaticAddress(cfg.Method()) && cfg.Wanted().Local != "" {
		if err := cfg.AddressAdd(); err != nil {
			logrus.
				WithError(err).
				WithField("index", p.index).
				WithField("ifname", ifname).
				WithField("family", cfg.Family().String()).
				Warn("failed to apply address")
		} else {
			cfg.SetSystemFromWanted()
		}
	}
	p.changed(ChangedActionLowerUp, cfg, ifname)
}

func (p *profile) LowerDown(cfg *ipconfig.Config, ifname string) {
	p.changed(ChangedActionLowerDown, cfg, ifname)
}

// IPBound remembers the address leased to a dhcp config so the next lease
// can ask for it again.
func (p *profile) IPBound(cfg *ipconfig.Config, ifname string) {
	if cfg.Method() == ipconfig.MethodDHCP && cfg.Local() != "" && cfg.Local() != cfg.DHCPAddress() {
		cfg.SetDHCPAddress(cfg.Local())
		if err := p.service.save(context.Background(), p, cfg); err != nil {
			logrus.
				WithError(err).
				WithField("index", p.index).
				WithField("ifname", ifname).
				Warn("failed to save dhcp address")
		}
	}
	p.changed(ChangedActionIPBound, cfg, ifname)
}

func (p *profile) IPRelease(cfg *ipconfig.Config, ifname string) {
	p.changed(ChangedActionIPRelease, cfg, ifname)
}

func (p *profile) RouteSet(cfg *ipconfig.Config, ifname string) {
	p.changed(ChangedActionRouteSet, cfg, ifname)
}

func (p *profile) RouteUnset(cfg *ipconfig.Config, ifname string) {
	p.changed(ChangedActionRouteUnset, cfg, ifname)
}

func (p *profile) changed(action string, cfg *ipconfig.Config, ifname string) {
	logrus.
		WithField("index", p.index).
		WithField("ifname", ifname).
		WithField("family", cfg.Family().String()).
		WithField("method", cfg.Method().String()).
		Debug(action)

	p.service.publish(&ChangedEvent{
		Action:    action,
		Index:     p.index,
		Interface: ifname,
		Family:    cfg.Family().String(),
	})
}

func storePrefix(family ipconfig.Family) string {
	if family == ipconfig.FamilyIPv6 {
		return ipv6StorePrefix
	}
	return ipv4StorePrefix
}

func hasStaticAddress(method ipconfig.Method) bool {
	return method == ipconfig.MethodFixed || method == ipconfig.MethodManual
}
