package manage

type Options struct {
	// AutoConfigure creates, loads and enables the configs of every new
	// interface. Without it interfaces are only tracked until Configure.
	AutoConfigure bool
}

type AddressOptions struct {
	Local        string
	PrefixLength uint8
	Peer         string
	Broadcast    string
	Gateway      string
}
