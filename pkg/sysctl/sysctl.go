package sysctl

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const DefaultRoot = "/proc/sys"

// Sysctl reads and writes the per interface IPv6 knobs below
// <root>/net/ipv6/conf/<ifname>.
type Sysctl struct {
	fs   afero.Fs
	root string
}

func New(fs afero.Fs, root string) *Sysctl {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if root == "" {
		root = DefaultRoot
	}
	return &Sysctl{
		fs:   fs,
		root: root,
	}
}

// IPv6Supported reports whether the kernel has IPv6 at all.
func (s *Sysctl) IPv6Supported() bool {
	exists, err := afero.DirExists(s.fs, path.Join(s.root, "net", "ipv6"))
	return err == nil && exists
}

func (s *Sysctl) IPv6Enabled(ifname string) (bool, error) {
	value, err := s.readInt(ifname, "disable_ipv6")
	if err != nil {
		return false, err
	}
	return value == 0, nil
}

func (s *Sysctl) SetIPv6Enabled(ifname string, enabled bool) error {
	value := 1
	if enabled {
		value = 0
	}
	return s.writeInt(ifname, "disable_ipv6", value)
}

func (s *Sysctl) IPv6Privacy(ifname string) (int, error) {
	return s.readInt(ifname, "use_tempaddr")
}

func (s *Sysctl) SetIPv6Privacy(ifname string, level int) error {
	return s.writeInt(ifname, "use_tempaddr", level)
}

func (s *Sysctl) path(ifname string, name string) (string, error) {
	if ifname == "" || ifname == "." || ifname == ".." || strings.Contains(ifname, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterfaceName, ifname)
	}
	return path.Join(s.root, "net", "ipv6", "conf", ifname, name), nil
}

func (s *Sysctl) readInt(ifname string, name string) (int, error) {
	p, err := s.path(ifname, name)
	if err != nil {
		return 0, err
	}

	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", p, err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidValue, p, err)
	}
	return value, nil
}

func (s *Sysctl) writeInt(ifname string, name string, value int) error {
	p, err := s.path(ifname, name)
	if err != nil {
		return err
	}

	// proc entries can not be created, only written
	file, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer file.Close()

	if _, err := file.WriteString(strconv.Itoa(value) + "\n"); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}
