package config

type Sysctl struct {
	// Root is where the sysctl tree is mounted, /proc/sys unless running
	// against a copy.
	Root string `default:"/proc/sys"`
}
