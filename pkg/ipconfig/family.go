package ipconfig

import "strings"

type Family int

const (
	FamilyUnknown Family = iota
	FamilyIPv4
	FamilyIPv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	}
	return "unknown"
}

// maxPrefixLength is the address width in bits, 0 for FamilyUnknown.
func (f Family) maxPrefixLength() uint8 {
	switch f {
	case FamilyIPv4:
		return 32
	case FamilyIPv6:
		return 128
	}
	return 0
}

// ParseFamily accepts "ipv4" and "ipv6" in any case.
func ParseFamily(s string) Family {
	switch strings.ToLower(s) {
	case "ipv4":
		return FamilyIPv4
	case "ipv6":
		return FamilyIPv6
	}
	return FamilyUnknown
}
