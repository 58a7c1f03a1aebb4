package sysctl

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
)

func newTestSysctl(t *testing.T, files map[string]string) *Sysctl {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(fs, name, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return New(fs, "/proc/sys")
}

func TestIPv6Enabled(t *testing.T) {
	s := newTestSysctl(t, map[string]string{
		"/proc/sys/net/ipv6/conf/eth0/disable_ipv6": "1\n",
		"/proc/sys/net/ipv6/conf/eth0/use_tempaddr": "2\n",
	})

	if !s.IPv6Supported() {
		t.Fatalf("expected ipv6 to be supported")
	}

	enabled, err := s.IPv6Enabled("eth0")
	if err != nil {
		t.Fatalf("IPv6Enabled failed: %v", err)
	}
	if enabled {
		t.Fatalf("expected ipv6 to be disabled")
	}

	if err := s.SetIPv6Enabled("eth0", true); err != nil {
		t.Fatalf("SetIPv6Enabled failed: %v", err)
	}
	enabled, err = s.IPv6Enabled("eth0")
	if err != nil {
		t.Fatalf("IPv6Enabled failed: %v", err)
	}
	if !enabled {
		t.Fatalf("expected ipv6 to be enabled")
	}

	data, err := afero.ReadFile(s.fs, "/proc/sys/net/ipv6/conf/eth0/disable_ipv6")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "0\n" {
		t.Fatalf("expected 0, got %q", data)
	}
}

func TestIPv6Privacy(t *testing.T) {
	s := newTestSysctl(t, map[string]string{
		"/proc/sys/net/ipv6/conf/eth0/use_tempaddr": "-1\n",
	})

	level, err := s.IPv6Privacy("eth0")
	if err != nil {
		t.Fatalf("IPv6Privacy failed: %v", err)
	}
	if level != -1 {
		t.Fatalf("expected -1, got %d", level)
	}

	if err := s.SetIPv6Privacy("eth0", 2); err != nil {
		t.Fatalf("SetIPv6Privacy failed: %v", err)
	}
	if level, _ := s.IPv6Privacy("eth0"); level != 2 {
		t.Fatalf("expected 2, got %d", level)
	}
}

func TestMissingEntries(t *testing.T) {
	s := newTestSysctl(t, nil)

	if s.IPv6Supported() {
		t.Fatalf("expected ipv6 to be unsupported without net/ipv6")
	}
	if _, err := s.IPv6Enabled("eth0"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
	if err := s.SetIPv6Privacy("eth0", 1); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected writes not to create entries, got %v", err)
	}
}

func TestRejectsInterfaceNames(t *testing.T) {
	s := newTestSysctl(t, map[string]string{
		"/proc/sys/net/ipv6/conf/all/disable_ipv6": "0\n",
	})

	for _, ifname := range []string{"", ".", "..", "../all", "eth0/../../all"} {
		if _, err := s.IPv6Enabled(ifname); !errors.Is(err, ErrInvalidInterfaceName) {
			t.Fatalf("%q: expected ErrInvalidInterfaceName, got %v", ifname, err)
		}
	}
}

func TestInvalidValue(t *testing.T) {
	s := newTestSysctl(t, map[string]string{
		"/proc/sys/net/ipv6/conf/eth0/disable_ipv6": "yes\n",
	})

	if _, err := s.IPv6Enabled("eth0"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}
