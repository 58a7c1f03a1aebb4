package ipconfig

import (
	"fmt"
	"math"
)

// Properties is the dictionary exchanged over the IPC boundary. Absent values
// are omitted, never written as empty strings.
type Properties map[string]any

const (
	propertyMethod       = "Method"
	propertyAddress      = "Address"
	propertyNetmask      = "Netmask"
	propertyPrefixLength = "PrefixLength"
	propertyGateway      = "Gateway"
	propertyPrivacy      = "Privacy"
	propertyInterface    = "Interface"
	propertyMTU          = "MTU"
)

func (p Properties) setString(key string, value string) {
	if value == "" {
		return
	}
	p[key] = value
}

// AppendIPv4 describes the address currently applied by the kernel.
func (c *Config) AppendIPv4(props Properties) {
	token, ok := c.method.token()
	if !ok {
		return
	}
	props[propertyMethod] = token

	if c.system.Local != "" {
		props[propertyAddress] = c.system.Local
		props[propertyNetmask] = c.system.Netmask()
	}
	props.setString(propertyGateway, c.system.Gateway)
}

// AppendIPv6 describes the address currently applied by the kernel along
// with the configured privacy level.
func (c *Config) AppendIPv6(props Properties) {
	token, ok := c.method.token()
	if !ok {
		return
	}
	props[propertyMethod] = token

	if c.system.Local != "" {
		props[propertyAddress] = c.system.Local
		props[propertyPrefixLength] = c.system.PrefixLength
	}
	props.setString(propertyGateway, c.system.Gateway)
	props[propertyPrivacy] = c.privacy.String()
}

// AppendIPv4Config describes the wanted configuration. The address is only
// part of it for fixed and manual.
func (c *Config) AppendIPv4Config(props Properties) {
	token, ok := c.method.token()
	if !ok {
		return
	}
	props[propertyMethod] = token

	if !c.method.hasStaticAddress() {
		return
	}
	if c.wanted.Local != "" {
		props[propertyAddress] = c.wanted.Local
		props[propertyNetmask] = c.wanted.Netmask()
	}
	props.setString(propertyGateway, c.wanted.Gateway)
}

// AppendIPv6Config describes the wanted configuration, including the
// configured privacy level, for fixed, manual and auto.
func (c *Config) AppendIPv6Config(props Properties) {
	token, ok := c.method.token()
	if !ok {
		return
	}
	props[propertyMethod] = token

	switch c.method {
	case MethodFixed, MethodManual, MethodAuto:
	default:
		return
	}

	if c.wanted.Local != "" {
		props[propertyAddress] = c.wanted.Local
		props[propertyPrefixLength] = c.wanted.PrefixLength
	}
	props.setString(propertyGateway, c.wanted.Gateway)
	props[propertyPrivacy] = c.privacy.String()
}

// AppendEthernet describes the link the config is bound to. Nothing but the
// method is written for a detached config.
func (c *Config) AppendEthernet(props Properties) {
	props[propertyMethod], _ = MethodAuto.token()

	device, ok := c.registry.devices[c.index]
	if !ok {
		return
	}
	props.setString(propertyInterface, device.name)
	props.setString(propertyAddress, device.hardwareAddr)
	if device.mtu > 0 && device.mtu <= math.MaxUint16 {
		props[propertyMTU] = uint16(device.mtu)
	}
}

// ApplyProperties parses a dictionary in the form written by the *Config
// appenders and stores it as method, wanted address and privacy. Nothing is
// changed when it returns an error. Fixed can not be requested from outside.
func (c *Config) ApplyProperties(props Properties) error {
	methodValue, err := propertyString(props, propertyMethod)
	if err != nil {
		return err
	}
	method := ParseMethod(methodValue)
	switch method {
	case MethodUnknown, MethodFixed:
		return fmt.Errorf("%w: method %q can not be requested", ErrInvalidArgument, methodValue)
	}
	if !method.validFor(c.family) {
		return fmt.Errorf("%w: method %s is not valid for %s", ErrInvalidArgument, method, c.family)
	}

	privacy := c.privacy
	if c.family == FamilyIPv6 {
		privacyValue, err := propertyString(props, propertyPrivacy)
		if err != nil {
			return err
		}
		if privacyValue != "" {
			privacy = ParsePrivacy(privacyValue)
		}
	}

	wanted := c.wanted.Clone()
	if method == MethodManual {
		wanted, err = c.parseWanted(props)
		if err != nil {
			return err
		}
	}

	c.method = method
	c.privacy = privacy
	c.wanted.CopyFrom(wanted)
	return nil
}

func (c *Config) parseWanted(props Properties) (*Address, error) {
	local, err := propertyString(props, propertyAddress)
	if err != nil {
		return nil, err
	}
	if local == "" {
		return nil, fmt.Errorf("%w: manual method requires an address", ErrInvalidArgument)
	}
	gateway, err := propertyString(props, propertyGateway)
	if err != nil {
		return nil, err
	}

	prefixLength := c.family.maxPrefixLength()
	switch c.family {
	case FamilyIPv4:
		netmask, err := propertyString(props, propertyNetmask)
		if err != nil {
			return nil, err
		}
		if netmask != "" {
			if prefixLength, err = prefixLengthFromNetmask(netmask); err != nil {
				return nil, err
			}
		}
	case FamilyIPv6:
		if value, ok := props[propertyPrefixLength]; ok {
			if prefixLength, err = propertyPrefixLengthValue(value); err != nil {
				return nil, err
			}
		}
	}

	wanted := NewAddress(c.family)
	wanted.Set(local, "", prefixLength, gateway)
	if err := wanted.Validate(); err != nil {
		return nil, err
	}
	return wanted, nil
}

func propertyString(props Properties, key string) (string, error) {
	value, ok := props[key]
	if !ok || value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}
	return s, nil
}

// propertyPrefixLengthValue accepts the byte written by the appenders as well
// as the numeric types a JSON or IPC decoder produces.
func propertyPrefixLengthValue(value any) (uint8, error) {
	var n float64
	switch v := value.(type) {
	case uint8:
		return v, nil
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint32:
		n = float64(v)
	case float64:
		n = v
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, propertyPrefixLength)
	}
	if n < 0 || n > 128 || n != math.Trunc(n) {
		return 0, fmt.Errorf("%w: %s out of range: %v", ErrInvalidArgument, propertyPrefixLength, value)
	}
	return uint8(n), nil
}
