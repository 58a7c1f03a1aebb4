package ipconfig

// Sysctl reads and writes the per interface IPv6 knobs.
type Sysctl interface {
	IPv6Enabled(ifname string) (bool, error)
	SetIPv6Enabled(ifname string, enabled bool) error
	IPv6Privacy(ifname string) (int, error)
	SetIPv6Privacy(ifname string, level int) error
}

// AddressManager applies addresses to the kernel.
type AddressManager interface {
	SetAddress(index int, address *Address) error
	ClearAddress(index int, address *Address) error
}

// IPPool is told about every IPv4 address the kernel reports.
type IPPool interface {
	NewAddress(index int, address string, prefixLength uint8)
	DelAddress(index int, address string, prefixLength uint8)
}

// StatsNotifier receives the traffic counters carried by link events.
type StatsNotifier interface {
	NotifyStatistics(index int, ifname string, stats Statistics)
}

type nopSysctl struct{}

func (nopSysctl) IPv6Enabled(string) (bool, error)  { return false, nil }
func (nopSysctl) SetIPv6Enabled(string, bool) error { return nil }
func (nopSysctl) IPv6Privacy(string) (int, error)   { return 0, nil }
func (nopSysctl) SetIPv6Privacy(string, int) error  { return nil }

type nopAddressManager struct{}

func (nopAddressManager) SetAddress(int, *Address) error   { return nil }
func (nopAddressManager) ClearAddress(int, *Address) error { return nil }

type nopIPPool struct{}

func (nopIPPool) NewAddress(int, string, uint8) {}
func (nopIPPool) DelAddress(int, string, uint8) {}

type nopStatsNotifier struct{}

func (nopStatsNotifier) NotifyStatistics(int, string, Statistics) {}
