package ipconfig

// Privacy is the IPv6 temporary address (RFC 4941) level, numerically equal to
// the kernel use_tempaddr value.
type Privacy int

const (
	PrivacyDisabled  Privacy = 0
	PrivacyEnabled   Privacy = 1
	PrivacyPreferred Privacy = 2
)

// ParsePrivacy accepts "disabled", "enabled", "preferred" and the historical
// "prefered" spelling. Unrecognized input is treated as disabled.
func ParsePrivacy(s string) Privacy {
	switch s {
	case "enabled":
		return PrivacyEnabled
	case "preferred", "prefered":
		return PrivacyPreferred
	}
	return PrivacyDisabled
}

func (p Privacy) String() string {
	switch p {
	case PrivacyEnabled:
		return "enabled"
	case PrivacyPreferred:
		return "preferred"
	}
	return "disabled"
}

// privacyFromKernel clamps an observed use_tempaddr value, which the kernel
// allows to be negative or larger than 2.
func privacyFromKernel(value int) Privacy {
	switch {
	case value <= 0:
		return PrivacyDisabled
	case value == 1:
		return PrivacyEnabled
	}
	return PrivacyPreferred
}
