package ipconfig

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Store is a grouped key-value store. Getters return nil when the key is
// absent.
type Store interface {
	GetString(ctx context.Context, identifier string, key string) (*string, error)
	GetInt(ctx context.Context, identifier string, key string) (*int, error)
	GetStringList(ctx context.Context, identifier string, key string) ([]string, error)
	SetString(ctx context.Context, identifier string, key string, value string) error
	SetInt(ctx context.Context, identifier string, key string, value int) error
	SetStringList(ctx context.Context, identifier string, key string, value []string) error
	RemoveKey(ctx context.Context, identifier string, key string) error
}

const (
	keyMethod           = "method"
	keyPrivacy          = "privacy"
	keyDHCPLastAddress  = "DHCP.LastAddress"
	keyDHCPLastPrefixes = "DHCP.LastPrefixes"
	keyPrefixLength     = "netmask_prefixlen"
	keyLocalAddress     = "local_address"
	keyPeerAddress      = "peer_address"
	keyBroadcastAddress = "broadcast_address"
	keyGateway          = "gateway"
)

// Load restores the method and wanted address stored under identifier with
// every key prefixed by prefix. A missing method falls back to the family
// default, an unrecognized or incompatible one to off. Missing address keys
// and a missing privacy level reset the field rather than keep the old value.
func (c *Config) Load(ctx context.Context, store Store, identifier string, prefix string) error {
	methodValue, err := store.GetString(ctx, identifier, prefix+keyMethod)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", prefix+keyMethod, err)
	}

	method := defaultMethod(c.family)
	if methodValue != nil {
		method = ParseMethod(*methodValue)
	}
	if method == MethodUnknown {
		method = MethodOff
	}
	if !method.validFor(c.family) {
		logrus.
			WithField("identifier", identifier).
			WithField("family", c.family.String()).
			WithField("method", method.String()).
			Warn("stored method does not fit the family, using off")
		method = MethodOff
	}
	c.method = method

	if c.family == FamilyIPv6 {
		if method == MethodAuto || method == MethodManual {
			privacy, err := store.GetString(ctx, identifier, prefix+keyPrivacy)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", prefix+keyPrivacy, err)
			}
			c.privacy = PrivacyDisabled
			if privacy != nil {
				c.privacy = ParsePrivacy(*privacy)
			}
		}

		prefixes, err := store.GetStringList(ctx, identifier, prefix+keyDHCPLastPrefixes)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", prefix+keyDHCPLastPrefixes, err)
		}
		c.SetDHCPv6Prefixes(prefixes)
	}

	switch method {
	case MethodFixed, MethodManual:
		return c.loadWanted(ctx, store, identifier, prefix)
	case MethodDHCP:
		address, err := store.GetString(ctx, identifier, prefix+keyDHCPLastAddress)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", prefix+keyDHCPLastAddress, err)
		}
		if address != nil {
			c.dhcpAddress = *address
		}
	}
	return nil
}

func (c *Config) loadWanted(ctx context.Context, store Store, identifier string, prefix string) error {
	prefixLength, err := store.GetInt(ctx, identifier, prefix+keyPrefixLength)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", prefix+keyPrefixLength, err)
	}
	c.wanted.PrefixLength = 0
	if prefixLength != nil {
		if *prefixLength < 0 || *prefixLength > int(c.family.maxPrefixLength()) {
			return fmt.Errorf("%w: stored prefix length %d out of range", ErrInvalidArgument, *prefixLength)
		}
		c.wanted.PrefixLength = uint8(*prefixLength)
	}

	for key, field := range map[string]*string{
		keyLocalAddress:     &c.wanted.Local,
		keyPeerAddress:      &c.wanted.Peer,
		keyBroadcastAddress: &c.wanted.Broadcast,
		keyGateway:          &c.wanted.Gateway,
	} {
		value, err := store.GetString(ctx, identifier, prefix+key)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", prefix+key, err)
		}
		*field = ""
		if value != nil {
			*field = *value
		}
	}
	return nil
}

// Save writes the method, the IPv6 privacy and DHCP bookkeeping, and for
// fixed and manual the wanted address. Empty DHCP values remove their key.
func (c *Config) Save(ctx context.Context, store Store, identifier string, prefix string) error {
	if token, ok := c.method.token(); ok {
		if err := store.SetString(ctx, identifier, prefix+keyMethod, token); err != nil {
			return fmt.Errorf("failed to save %s: %w", prefix+keyMethod, err)
		}
	} else if err := store.RemoveKey(ctx, identifier, prefix+keyMethod); err != nil {
		return fmt.Errorf("failed to remove %s: %w", prefix+keyMethod, err)
	}

	if c.family == FamilyIPv6 {
		if err := store.SetString(ctx, identifier, prefix+keyPrivacy, c.privacy.String()); err != nil {
			return fmt.Errorf("failed to save %s: %w", prefix+keyPrivacy, err)
		}
		if err := c.saveDHCPAddress(ctx, store, identifier, prefix); err != nil {
			return err
		}
		if len(c.dhcpv6Prefixes) > 0 {
			if err := store.SetStringList(ctx, identifier, prefix+keyDHCPLastPrefixes, c.dhcpv6Prefixes); err != nil {
				return fmt.Errorf("failed to save %s: %w", prefix+keyDHCPLastPrefixes, err)
			}
		} else if err := store.RemoveKey(ctx, identifier, prefix+keyDHCPLastPrefixes); err != nil {
			return fmt.Errorf("failed to remove %s: %w", prefix+keyDHCPLastPrefixes, err)
		}
	}

	switch c.method {
	case MethodFixed, MethodManual:
	case MethodDHCP:
		return c.saveDHCPAddress(ctx, store, identifier, prefix)
	default:
		return nil
	}

	if c.wanted.PrefixLength != 0 {
		if err := store.SetInt(ctx, identifier, prefix+keyPrefixLength, int(c.wanted.PrefixLength)); err != nil {
			return fmt.Errorf("failed to save %s: %w", prefix+keyPrefixLength, err)
		}
	}

	fields := []struct {
		key   string
		value string
	}{
		{keyLocalAddress, c.wanted.Local},
		{keyPeerAddress, c.wanted.Peer},
		{keyBroadcastAddress, c.wanted.Broadcast},
		{keyGateway, c.wanted.Gateway},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := store.SetString(ctx, identifier, prefix+field.key, field.value); err != nil {
			return fmt.Errorf("failed to save %s: %w", prefix+field.key, err)
		}
	}
	return nil
}

func (c *Config) saveDHCPAddress(ctx context.Context, store Store, identifier string, prefix string) error {
	if c.dhcpAddress != "" {
		if err := store.SetString(ctx, identifier, prefix+keyDHCPLastAddress, c.dhcpAddress); err != nil {
			return fmt.Errorf("failed to save %s: %w", prefix+keyDHCPLastAddress, err)
		}
		return nil
	}
	if err := store.RemoveKey(ctx, identifier, prefix+keyDHCPLastAddress); err != nil {
		return fmt.Errorf("failed to remove %s: %w", prefix+keyDHCPLastAddress, err)
	}
	return nil
}
