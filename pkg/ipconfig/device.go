package ipconfig

// Kernel interface flags and link types, Linux values.
const (
	FlagUp      uint32 = 0x1
	FlagRunning uint32 = 0x40
	FlagLowerUp uint32 = 0x10000

	flagsCarrier = FlagRunning | FlagLowerUp

	LinkTypeLoopback uint16 = 772
)

type Statistics struct {
	RxPackets uint64 `json:"rxPackets"`
	TxPackets uint64 `json:"txPackets"`
	RxBytes   uint64 `json:"rxBytes"`
	TxBytes   uint64 `json:"txBytes"`
	RxErrors  uint64 `json:"rxErrors"`
	TxErrors  uint64 `json:"txErrors"`
	RxDropped uint64 `json:"rxDropped"`
	TxDropped uint64 `json:"txDropped"`
}

// Device is the live kernel state of one interface.
type Device struct {
	index        int
	name         string
	linkType     uint16
	flags        uint32
	hardwareAddr string
	mtu          int
	stats        Statistics
	addresses    []*Address
	ipv4Gateway  string
	ipv6Gateway  string
	pacURL       string

	// values found in sysctl before any config touched the interface,
	// written back when the device goes away
	ipv6Enabled bool
	ipv6Privacy Privacy

	configIPv4 *Config
	configIPv6 *Config
}

func (d *Device) Index() int {
	return d.index
}

func (d *Device) Name() string {
	return d.name
}

func (d *Device) LinkType() uint16 {
	return d.linkType
}

func (d *Device) Flags() uint32 {
	return d.flags
}

func (d *Device) HardwareAddr() string {
	return d.hardwareAddr
}

func (d *Device) MTU() int {
	return d.mtu
}

func (d *Device) Statistics() Statistics {
	return d.stats
}

func (d *Device) IPv4Gateway() string {
	return d.ipv4Gateway
}

func (d *Device) IPv6Gateway() string {
	return d.ipv6Gateway
}

func (d *Device) ProxyAutoconfig() string {
	return d.pacURL
}

func (d *Device) SetProxyAutoconfig(url string) {
	d.pacURL = url
}

func (d *Device) IPv6Enabled() bool {
	return d.ipv6Enabled
}

func (d *Device) IPv6Privacy() Privacy {
	return d.ipv6Privacy
}

func (d *Device) IPv4Config() *Config {
	return d.configIPv4
}

func (d *Device) IPv6Config() *Config {
	return d.configIPv6
}

func (d *Device) IsUp() bool {
	return d.flags&FlagUp != 0
}

// IsLowerUp reports carrier: both RUNNING and LOWER_UP set.
func (d *Device) IsLowerUp() bool {
	return d.flags&flagsCarrier == flagsCarrier
}

// Addresses returns a copy of the kernel reported addresses.
func (d *Device) Addresses() []Address {
	addresses := make([]Address, 0, len(d.addresses))
	for _, address := range d.addresses {
		addresses = append(addresses, *address)
	}
	return addresses
}

func (d *Device) config(family Family) *Config {
	switch family {
	case FamilyIPv4:
		return d.configIPv4
	case FamilyIPv6:
		return d.configIPv6
	}
	return nil
}

func (d *Device) setConfig(family Family, cfg *Config) {
	switch family {
	case FamilyIPv4:
		d.configIPv4 = cfg
	case FamilyIPv6:
		d.configIPv6 = cfg
	}
}

func (d *Device) gateway(family Family) *string {
	switch family {
	case FamilyIPv4:
		return &d.ipv4Gateway
	case FamilyIPv6:
		return &d.ipv6Gateway
	}
	return nil
}

func (d *Device) findAddress(family Family, prefixLength uint8, local string) int {
	for i, address := range d.addresses {
		if address.family == family && address.matches(prefixLength, local) {
			return i
		}
	}
	return -1
}

func (d *Device) lastAddress(family Family) *Address {
	for i := len(d.addresses) - 1; i >= 0; i-- {
		if d.addresses[i].family == family {
			return d.addresses[i]
		}
	}
	return nil
}

func (d *Device) hasAddress(family Family) bool {
	for _, address := range d.addresses {
		if address.family == family {
			return true
		}
	}
	return false
}
