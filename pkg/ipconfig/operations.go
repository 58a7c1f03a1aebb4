package ipconfig

// Operations receives link and address notifications for a bound Config.
// Calls happen synchronously on the goroutine driving the Registry.
type Operations interface {
	Up(cfg *Config, ifname string)
	Down(cfg *Config, ifname string)
	LowerUp(cfg *Config, ifname string)
	LowerDown(cfg *Config, ifname string)
	IPBound(cfg *Config, ifname string)
	IPRelease(cfg *Config, ifname string)
	RouteSet(cfg *Config, ifname string)
	RouteUnset(cfg *Config, ifname string)
}

// NopOperations can be embedded to implement only the callbacks of interest.
type NopOperations struct{}

func (NopOperations) Up(*Config, string)         {}
func (NopOperations) Down(*Config, string)       {}
func (NopOperations) LowerUp(*Config, string)    {}
func (NopOperations) LowerDown(*Config, string)  {}
func (NopOperations) IPBound(*Config, string)    {}
func (NopOperations) IPRelease(*Config, string)  {}
func (NopOperations) RouteSet(*Config, string)   {}
func (NopOperations) RouteUnset(*Config, string) {}
