package ipconfig

import (
	"errors"
	"testing"
)

func TestAppendIPv4OmitsAbsentFields(t *testing.T) {
	r := newTestRegistry(t)
	r.NewLink(LinkEvent{Index: 5, Name: "eth0", Flags: carrierFlags})

	cfg := r.NewIPv4Config(5)
	if err := cfg.Enable(5, nil); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	props := Properties{}
	cfg.AppendIPv4(props)
	if len(props) != 1 || props["Method"] != "dhcp" {
		t.Fatalf("expected only Method, got %v", props)
	}

	if err := r.NewAddress(AddressEvent{Index: 5, Family: FamilyIPv4, Local: "192.168.1.5", PrefixLength: 24}); err != nil {
		t.Fatalf("NewAddress failed: %v", err)
	}
	r.NewRoute(RouteEvent{Index: 5, Family: FamilyIPv4, Gateway: "192.168.1.1"})

	props = Properties{}
	cfg.AppendIPv4(props)
	expected := Properties{
		"Method":  "dhcp",
		"Address": "192.168.1.5",
		"Netmask": "255.255.255.0",
		"Gateway": "192.168.1.1",
	}
	if len(props) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, props)
	}
	for key, value := range expected {
		if props[key] != value {
			t.Fatalf("expected %s=%v, got %v", key, value, props[key])
		}
	}

	unknown := Properties{}
	r.newConfig(5, FamilyIPv4).AppendIPv4(unknown)
	if len(unknown) != 0 {
		t.Fatalf("expected nothing for unknown method, got %v", unknown)
	}
}

func TestAppendIPv6(t *testing.T) {
	r := newTestRegistry(t)
	r.NewLink(LinkEvent{Index: 5, Name: "eth0", Flags: carrierFlags})

	cfg := r.NewIPv6Config(5)
	if err := cfg.Enable(5, nil); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if err := r.NewAddress(AddressEvent{Index: 5, Family: FamilyIPv6, Local: "2001:db8::5", PrefixLength: 64}); err != nil {
		t.Fatalf("NewAddress failed: %v", err)
	}

	props := Properties{}
	cfg.AppendIPv6(props)
	if props["Method"] != "auto" || props["Address"] != "2001:db8::5" || props["Privacy"] != "disabled" {
		t.Fatalf("unexpected properties %v", props)
	}
	if prefixLength, ok := props["PrefixLength"].(uint8); !ok || prefixLength != 64 {
		t.Fatalf("expected PrefixLength byte 64, got %v", props["PrefixLength"])
	}
	if _, ok := props["Netmask"]; ok {
		t.Fatalf("expected no Netmask for ipv6")
	}
	if _, ok := props["Gateway"]; ok {
		t.Fatalf("expected no Gateway before a default route")
	}
}

func TestAppendConfig(t *testing.T) {
	r := newTestRegistry(t)

	ipv4 := r.NewIPv4Config(DetachedIndex)
	ipv4.SetLocal("10.0.0.2", 8)
	props := Properties{}
	ipv4.AppendIPv4Config(props)
	if len(props) != 1 || props["Method"] != "dhcp" {
		t.Fatalf("expected only Method for dhcp, got %v", props)
	}

	if err := ipv4.SetMethod(MethodManual); err != nil {
		t.Fatalf("SetMethod failed: %v", err)
	}
	props = Properties{}
	ipv4.AppendIPv4Config(props)
	if props["Address"] != "10.0.0.2" || props["Netmask"] != "255.0.0.0" {
		t.Fatalf("unexpected properties %v", props)
	}
	if _, ok := props["Gateway"]; ok {
		t.Fatalf("expected Gateway to be omitted")
	}

	ipv6 := r.NewIPv6Config(DetachedIndex)
	props = Properties{}
	ipv6.AppendIPv6Config(props)
	if props["Method"] != "auto" || props["Privacy"] != "disabled" {
		t.Fatalf("unexpected properties %v", props)
	}
	if _, ok := props["Address"]; ok {
		t.Fatalf("expected Address to be omitted")
	}
}

func TestAppendIPv6ConfigPrivacy(t *testing.T) {
	r := newTestRegistry(t)

	for _, test := range []struct {
		method   Method
		expected bool
	}{
		{MethodOff, false},
		{MethodFixed, true},
		{MethodManual, true},
		{MethodAuto, true},
	} {
		cfg := r.NewIPv6Config(DetachedIndex)
		if err := cfg.SetMethod(test.method); err != nil {
			t.Fatalf("SetMethod %s failed: %v", test.method, err)
		}
		if err := cfg.IPv6SetPrivacy("enabled"); err != nil {
			t.Fatalf("IPv6SetPrivacy failed: %v", err)
		}

		props := Properties{}
		cfg.AppendIPv6Config(props)
		privacy, ok := props["Privacy"]
		if ok != test.expected || (ok && privacy != "enabled") {
			t.Fatalf("%s: unexpected properties %v", test.method, props)
		}
	}
}

func TestAppendEthernet(t *testing.T) {
	r := newTestRegistry(t)
	r.NewLink(LinkEvent{Index: 5, Name: "eth0", MTU: 1500, HardwareAddr: "02:00:00:00:00:01"})

	cfg := r.NewIPv4Config(5)
	props := Properties{}
	cfg.AppendEthernet(props)
	if props["Interface"] != "eth0" || props["Address"] != "02:00:00:00:00:01" || props["MTU"] != uint16(1500) {
		t.Fatalf("unexpected properties %v", props)
	}

	detached := r.NewIPv4Config(DetachedIndex)
	props = Properties{}
	detached.AppendEthernet(props)
	if _, ok := props["Interface"]; ok {
		t.Fatalf("expected no Interface for a detached config")
	}
}

func TestApplyProperties(t *testing.T) {
	r := newTestRegistry(t)

	ipv4 := r.NewIPv4Config(DetachedIndex)
	err := ipv4.ApplyProperties(Properties{
		"Method":  "manual",
		"Address": "192.168.1.5",
		"Netmask": "255.255.255.0",
		"Gateway": "192.168.1.1",
	})
	if err != nil {
		t.Fatalf("ApplyProperties failed: %v", err)
	}
	wanted := ipv4.Wanted()
	if ipv4.Method() != MethodManual || wanted.Local != "192.168.1.5" || wanted.PrefixLength != 24 || wanted.Gateway != "192.168.1.1" {
		t.Fatalf("unexpected config %s %+v", ipv4.Method(), wanted)
	}

	ipv6 := r.NewIPv6Config(DetachedIndex)
	err = ipv6.ApplyProperties(Properties{
		"Method":       "manual",
		"Address":      "2001:db8::5",
		"PrefixLength": float64(64),
		"Privacy":      "prefered",
	})
	if err != nil {
		t.Fatalf("ApplyProperties failed: %v", err)
	}
	if ipv6.Wanted().PrefixLength != 64 || ipv6.Privacy() != PrivacyPreferred {
		t.Fatalf("unexpected config %+v privacy %s", ipv6.Wanted(), ipv6.Privacy())
	}
}

func TestApplyPropertiesRejectsMalformedInput(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name   string
		family Family
		props  Properties
	}{
		{name: "missing method", family: FamilyIPv4, props: Properties{}},
		{name: "fixed", family: FamilyIPv4, props: Properties{"Method": "fixed"}},
		{name: "auto on ipv4", family: FamilyIPv4, props: Properties{"Method": "auto"}},
		{name: "dhcp on ipv6", family: FamilyIPv6, props: Properties{"Method": "dhcp"}},
		{name: "manual without address", family: FamilyIPv4, props: Properties{"Method": "manual"}},
		{name: "wrong family address", family: FamilyIPv4, props: Properties{"Method": "manual", "Address": "2001:db8::1"}},
		{name: "bad netmask", family: FamilyIPv4, props: Properties{"Method": "manual", "Address": "10.0.0.1", "Netmask": "255.0.255.0"}},
		{name: "prefix too long", family: FamilyIPv6, props: Properties{"Method": "manual", "Address": "2001:db8::1", "PrefixLength": 129}},
		{name: "method not a string", family: FamilyIPv4, props: Properties{"Method": 1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := r.newConfig(DetachedIndex, test.family)
			cfg.method = MethodOff
			if err := cfg.ApplyProperties(test.props); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if cfg.Method() != MethodOff || !cfg.wanted.IsEmpty() {
				t.Fatalf("expected config to be untouched")
			}
		})
	}
}
