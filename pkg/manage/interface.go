package manage

import (
	"github.com/UnAfraid/ipconfd/pkg/internal/adapt"
	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

// Interface is a point in time view of one device and its bound configs, with
// the configs rendered as IPC property dictionaries.
type Interface struct {
	Index           int                 `json:"index"`
	Name            string              `json:"name"`
	Type            uint16              `json:"type"`
	Flags           uint32              `json:"flags"`
	Up              bool                `json:"up"`
	LowerUp         bool                `json:"lowerUp"`
	MTU             int                 `json:"mtu"`
	HardwareAddr    string              `json:"hardwareAddr,omitempty"`
	Statistics      ipconfig.Statistics `json:"statistics"`
	Addresses       []*Address          `json:"addresses"`
	Subnets         []string            `json:"subnets,omitempty"`
	IPv4Gateway     string              `json:"ipv4Gateway,omitempty"`
	IPv6Gateway     string              `json:"ipv6Gateway,omitempty"`
	ProxyAutoconfig string              `json:"proxyAutoconfig,omitempty"`
	Managed         bool                `json:"managed"`
	Ethernet        ipconfig.Properties `json:"ethernet,omitempty"`
	IPv4            ipconfig.Properties `json:"ipv4,omitempty"`
	IPv4Config      ipconfig.Properties `json:"ipv4Config,omitempty"`
	IPv6            ipconfig.Properties `json:"ipv6,omitempty"`
	IPv6Config      ipconfig.Properties `json:"ipv6Config,omitempty"`
}

type Address struct {
	Family       string `json:"family"`
	Local        string `json:"local"`
	Peer         string `json:"peer,omitempty"`
	Broadcast    string `json:"broadcast,omitempty"`
	PrefixLength uint8  `json:"prefixLength"`
}

func newInterface(device *ipconfig.Device, subnets []string, managed bool) *Interface {
	iface := &Interface{
		Index:           device.Index(),
		Name:            device.Name(),
		Type:            device.LinkType(),
		Flags:           device.Flags(),
		Up:              device.IsUp(),
		LowerUp:         device.IsLowerUp(),
		MTU:             device.MTU(),
		HardwareAddr:    device.HardwareAddr(),
		Statistics:      device.Statistics(),
		Addresses:       adapt.Array(device.Addresses(), toAddress),
		Subnets:         subnets,
		IPv4Gateway:     device.IPv4Gateway(),
		IPv6Gateway:     device.IPv6Gateway(),
		ProxyAutoconfig: device.ProxyAutoconfig(),
		Managed:         managed,
	}

	if cfg := device.IPv4Config(); cfg != nil {
		iface.IPv4 = ipconfig.Properties{}
		cfg.AppendIPv4(iface.IPv4)
		iface.IPv4Config = ipconfig.Properties{}
		cfg.AppendIPv4Config(iface.IPv4Config)
		iface.Ethernet = ipconfig.Properties{}
		cfg.AppendEthernet(iface.Ethernet)
	}

	if cfg := device.IPv6Config(); cfg != nil {
		iface.IPv6 = ipconfig.Properties{}
		cfg.AppendIPv6(iface.IPv6)
		iface.IPv6Config = ipconfig.Properties{}
		cfg.AppendIPv6Config(iface.IPv6Config)
		if iface.Ethernet == nil {
			iface.Ethernet = ipconfig.Properties{}
			cfg.AppendEthernet(iface.Ethernet)
		}
	}

	return iface
}

func toAddress(address ipconfig.Address) *Address {
	return &Address{
		Family:       address.Family().String(),
		Local:        address.Local,
		Peer:         address.Peer,
		Broadcast:    address.Broadcast,
		PrefixLength: address.PrefixLength,
	}
}
