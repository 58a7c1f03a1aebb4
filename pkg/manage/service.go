package manage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/ipconfd/pkg/dbx"
	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
	"github.com/UnAfraid/ipconfd/pkg/kernel"
	"github.com/UnAfraid/ipconfd/pkg/subscription"
)

type Service interface {
	kernel.Handler
	HandleStatistics(index int, stats ipconfig.Statistics)
	Interfaces(ctx context.Context) ([]*Interface, error)
	Interface(ctx context.Context, index int) (*Interface, error)
	Configure(ctx context.Context, index int) (*Interface, error)
	SetMethod(ctx context.Context, index int, family ipconfig.Family, method ipconfig.Method) (*Interface, error)
	SetAddress(ctx context.Context, index int, family ipconfig.Family, options *AddressOptions) (*Interface, error)
	SetPrivacy(ctx context.Context, index int, level string) (*Interface, error)
	ResetPrivacy(ctx context.Context, index int) (*Interface, error)
	ApplyProperties(ctx context.Context, index int, family ipconfig.Family, props ipconfig.Properties) (*Interface, error)
	Subscribe(ctx context.Context) (<-chan *ChangedEvent, error)
	HasSubscribers() bool
	Close() error
}

// SubnetPool answers which IPv4 subnets are in use and where.
type SubnetPool interface {
	Check(index int, address string, prefixLength uint8) error
	Subnets(index int) []string
}

// service serializes every registry access, kernel events and API calls
// alike, on mutex.
type service struct {
	publisher
	mutex             sync.Mutex
	closed            bool
	registry          *ipconfig.Registry
	store             ipconfig.Store
	transactionScoper dbx.TransactionScoper
	pool              SubnetPool
	addresses         ipconfig.AddressManager
	options           Options
	profiles          map[int]*profile
}

func NewService(
	registry *ipconfig.Registry,
	store ipconfig.Store,
	transactionScoper dbx.TransactionScoper,
	subscription subscription.Subscription,
	pool SubnetPool,
	addresses ipconfig.AddressManager,
	options Options,
) Service {
	return &service{
		publisher: publisher{
			subscription: subscription,
		},
		registry:          registry,
		store:             store,
		transactionScoper: transactionScoper,
		pool:              pool,
		addresses:         addresses,
		options:           options,
		profiles:          make(map[int]*profile),
	}
}

func (s *service) HandleNewLink(event ipconfig.LinkEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}

	_, err := s.registry.Device(event.Index)
	known := err == nil

	s.registry.NewLink(event)

	device, err := s.registry.Device(event.Index)
	if err != nil || known {
		return
	}

	s.publish(&ChangedEvent{
		Action:    ChangedActionAdded,
		Index:     device.Index(),
		Interface: device.Name(),
	})

	if !s.options.AutoConfigure {
		return
	}
	if err := s.configure(context.Background(), device); err != nil {
		logrus.
			WithError(err).
			WithField("index", device.Index()).
			WithField("ifname", device.Name()).
			Warn("failed to configure interface")
	}
}

func (s *service) HandleDelLink(index int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}

	device, err := s.registry.Device(index)
	if err != nil {
		return
	}
	name := device.Name()

	if err := s.registry.DelLink(index); err != nil {
		logrus.
			WithError(err).
			WithField("index", index).
			WithField("ifname", name).
			Warn("failed to restore interface settings")
	}

	if p, ok := s.profiles[index]; ok {
		delete(s.profiles, index)
		p.release()
	}

	s.publish(&ChangedEvent{
		Action:    ChangedActionRemoved,
		Index:     index,
		Interface: name,
	})
}

func (s *service) HandleNewAddress(event ipconfig.AddressEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}

	err := s.registry.NewAddress(event)
	switch {
	case errors.Is(err, ipconfig.ErrAddressExists):
		logrus.
			WithField("index", event.Index).
			WithField("address", event.Local).
			Debug("address already known")
	case err != nil:
		logrus.
			WithError(err).
			WithField("index", event.Index).
			WithField("address", event.Local).
			Warn("failed to add address")
	}
}

func (s *service) HandleDelAddress(event ipconfig.AddressEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}

	err := s.registry.DelAddress(event)
	switch {
	case errors.Is(err, ipconfig.ErrAddressNotFound):
		logrus.
			WithField("index", event.Index).
			WithField("address", event.Local).
			Debug("address not known")
	case err != nil:
		logrus.
			WithError(err).
			WithField("index", event.Index).
			WithField("address", event.Local).
			Warn("failed to remove address")
	}
}

func (s *service) HandleNewRoute(event ipconfig.RouteEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}
	s.registry.NewRoute(event)
}

func (s *service) HandleDelRoute(event ipconfig.RouteEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}
	s.registry.DelRoute(event)
}

func (s *service) HandleStatistics(index int, stats ipconfig.Statistics) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}
	s.registry.UpdateStatistics(index, stats)
}

func (s *service) Interfaces(_ context.Context) ([]*Interface, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrServiceClosed
	}

	devices := s.registry.Devices()
	interfaces := make([]*Interface, 0, len(devices))
	for _, device := range devices {
		interfaces = append(interfaces, s.snapshot(device))
	}
	return interfaces, nil
}

func (s *service) Interface(_ context.Context, index int) (*Interface, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	device, err := s.device(index)
	if err != nil {
		return nil, err
	}
	return s.snapshot(device), nil
}

// Configure starts managing an interface that was not auto configured. It
// is a no-op for an interface that is already managed.
func (s *service) Configure(ctx context.Context, index int) (*Interface, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	device, err := s.device(index)
	if err != nil {
		return nil, err
	}
	if _, ok := s.profiles[index]; ok {
		return s.snapshot(device), nil
	}

	if err := s.configure(ctx, device); err != nil {
		return nil, err
	}
	return s.snapshot(device), nil
}

func (s *service) SetMethod(ctx context.Context, index int, family ipconfig.Family, method ipconfig.Method) (*Interface, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	device, p, cfg, err := s.lookup(index, family)
	if err != nil {
		return nil, err
	}

	if method == ipconfig.MethodUnknown {
		return nil, fmt.Errorf("%w: unknown method", ipconfig.ErrInvalidArgument)
	}

	err = s.reconfigure(ctx, p, cfg, func() error {
		return cfg.SetMethod(method)
	})
	if err != nil {
		return nil, err
	}
	return s.snapshot(device), nil
}

// SetAddress switches the config to manual unless it already carries a static
// address and replaces the wanted record.
func (s *service) SetAddress(ctx context.Context, index int, family ipconfig.Family, options *AddressOptions) (*Interface, error) {
	if options == nil || options.Local == "" {
		return nil, fmt.Errorf("%w: address is required", ipconfig.ErrInvalidArgument)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	device, p, cfg, err := s.lookup(index, family)
	if err != nil {
		return nil, err
	}

	address := ipconfig.NewAddress(family)
	address.Set(options.Local, options.Peer, options.PrefixLength, options.Gateway)
	address.SetBroadcast(options.Broadcast)
	if err := address.Validate(); err != nil {
		return nil, err
	}

	err = s.reconfigure(ctx, p, cfg, func() error {
		if !hasStaticAddress(cfg.Method()) {
			if err := cfg.SetMethod(ipconfig.MethodManual); err != nil {
				return err
			}
		}
		return cfg.SetWanted(address)
	})
	if err != nil {
		return nil, err
	}
	return s.snapshot(device), nil
}

func (s *service) SetPrivacy(ctx context.Context, index int, level string) (*Interface, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	device, p, cfg, err := s.lookup(index, ipconfig.FamilyIPv6)
	if err != nil {
		return nil, err
	}

	if err := cfg.IPv6SetPrivacy(level); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p, cfg); err != nil {
		return nil, err
	}

	s.changed(p)
	return s.snapshot(device), nil
}

func (s *service) ResetPrivacy(ctx context.Context, index int) (*Interface, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	device, p, cfg, err := s.lookup(index, ipconfig.FamilyIPv6)
	if err != nil {
		return nil, err
	}

	if err := cfg.IPv6ResetPrivacy(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p, cfg); err != nil {
		return nil, err
	}

	s.changed(p)
	return s.snapshot(device), nil
}

func (s *service) ApplyProperties(ctx context.Context, index int, family ipconfig.Family, props ipconfig.Properties) (*Interface, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	device, p, cfg, err := s.lookup(index, family)
	if err != nil {
		return nil, err
	}

	err = s.reconfigure(ctx, p, cfg, func() error {
		return cfg.ApplyProperties(props)
	})
	if err != nil {
		return nil, err
	}
	return s.snapshot(device), nil
}

func (s *service) Subscribe(ctx context.Context) (<-chan *ChangedEvent, error) {
	bytesChannel, err := s.subscription.Subscribe(ctx, path.Join(subscriptionPath, "*"))
	if err != nil {
		return nil, err
	}

	observerChan := make(chan *ChangedEvent)
	go func() {
		defer close(observerChan)

		for bytes := range bytesChannel {
			var changedEvent *ChangedEvent
			if err := json.Unmarshal(bytes, &changedEvent); err != nil {
				logrus.WithError(err).Warn("failed to decode interface changed event")
				return
			}

			select {
			case observerChan <- changedEvent:
			case <-ctx.Done():
				return
			}
		}
	}()

	return observerChan, nil
}

func (s *service) HasSubscribers() bool {
	return s.subscription.HasSubscribers(path.Join(subscriptionPath, "*"))
}

// Close unbinds and releases every config the service owns, then closes the
// registry which restores the interface settings it changed.
func (s *service) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, device := range s.registry.Devices() {
		p, ok := s.profiles[device.Index()]
		if !ok {
			continue
		}
		delete(s.profiles, device.Index())

		for _, cfg := range p.configs() {
			if !cfg.Enabled() {
				continue
			}
			if err := cfg.Disable(); err != nil {
				logrus.
					WithError(err).
					WithField("index", p.index).
					WithField("family", cfg.Family().String()).
					Warn("failed to disable ipconfig")
			}
		}
		p.release()
	}

	return s.registry.Close()
}

// configure creates the configs of device, loads them from the store under
// the interface name and enables them.
func (s *service) configure(ctx context.Context, device *ipconfig.Device) error {
	p := &profile{
		service: s,
		index:   device.Index(),
		ifname:  device.Name(),
	}
	p.ipv4 = s.registry.NewIPv4Config(p.index)
	if s.registry.IPv6Supported() {
		p.ipv6 = s.registry.NewIPv6Config(p.index)
	}

	err := s.transactionScoper.InReadScope(ctx, func(ctx context.Context) error {
		for _, cfg := range p.configs() {
			if err := cfg.Load(ctx, s.store, p.ifname, storePrefix(cfg.Family())); err != nil {
				return fmt.Errorf("failed to load %s config: %w", cfg.Family(), err)
			}
		}
		return nil
	})
	if err != nil {
		logrus.
			WithError(err).
			WithField("index", p.index).
			WithField("ifname", p.ifname).
			Warn("failed to load ipconfig, using defaults")
	}

	s.profiles[p.index] = p

	var result error
	for _, cfg := range p.configs() {
		if err := cfg.Enable(p.index, p); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to enable %s config: %w", cfg.Family(), err))
		}
	}
	return result
}

// reconfigure runs update on cfg, persists the result and rebinds cfg so the
// callbacks apply it. A static IPv4 address overlapping a subnet of another
// interface is rejected and cfg is restored. The address applied for the
// previous configuration is cleared from the kernel.
func (s *service) reconfigure(ctx context.Context, p *profile, cfg *ipconfig.Config, update func() error) error {
	previousMethod := cfg.Method()
	previousWanted := cfg.Wanted()
	applied := cfg.System()

	if err := update(); err != nil {
		return err
	}

	if cfg.Family() == ipconfig.FamilyIPv4 && hasStaticAddress(cfg.Method()) {
		wanted := cfg.Wanted()
		if err := s.pool.Check(p.index, wanted.Local, wanted.PrefixLength); err != nil {
			if restoreErr := restore(cfg, previousMethod, &previousWanted); restoreErr != nil {
				return errors.Join(err, restoreErr)
			}
			return err
		}
	}

	if hasStaticAddress(previousMethod) && applied.Local != "" {
		if err := s.addresses.ClearAddress(p.index, &applied); err != nil {
			logrus.
				WithError(err).
				WithField("index", p.index).
				WithField("address", applied.String()).
				Warn("failed to clear previous address")
		}
	}

	var result error
	if err := s.save(ctx, p, cfg); err != nil {
		result = multierror.Append(result, err)
	}
	if err := rebind(p, cfg); err != nil {
		result = multierror.Append(result, err)
	}

	s.changed(p)
	return result
}

func (s *service) save(ctx context.Context, p *profile, cfg *ipconfig.Config) error {
	return s.transactionScoper.InTransactionScope(ctx, func(ctx context.Context) error {
		if err := cfg.Save(ctx, s.store, p.ifname, storePrefix(cfg.Family())); err != nil {
			return fmt.Errorf("failed to save %s config of %s: %w", cfg.Family(), p.ifname, err)
		}
		return nil
	})
}

func (s *service) changed(p *profile) {
	s.publish(&ChangedEvent{
		Action:    ChangedActionUpdated,
		Index:     p.index,
		Interface: p.ifname,
	})
}

func (s *service) device(index int) (*ipconfig.Device, error) {
	if s.closed {
		return nil, ErrServiceClosed
	}

	device, err := s.registry.Device(index)
	if err != nil {
		if errors.Is(err, ipconfig.ErrNoSuchDevice) {
			return nil, fmt.Errorf("%w: %d", ErrInterfaceNotFound, index)
		}
		return nil, err
	}
	return device, nil
}

func (s *service) lookup(index int, family ipconfig.Family) (*ipconfig.Device, *profile, *ipconfig.Config, error) {
	if family == ipconfig.FamilyUnknown {
		return nil, nil, nil, ErrInvalidFamily
	}

	device, err := s.device(index)
	if err != nil {
		return nil, nil, nil, err
	}

	p, ok := s.profiles[index]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrInterfaceNotManaged, device.Name())
	}

	cfg := p.config(family)
	if cfg == nil {
		return nil, nil, nil, fmt.Errorf("%w: %s has no %s config", ErrInterfaceNotManaged, device.Name(), family)
	}
	return device, p, cfg, nil
}

func (s *service) snapshot(device *ipconfig.Device) *Interface {
	_, managed := s.profiles[device.Index()]
	return newInterface(device, s.pool.Subnets(device.Index()), managed)
}

func rebind(p *profile, cfg *ipconfig.Config) error {
	if cfg.Enabled() {
		if err := cfg.Disable(); err != nil {
			return err
		}
	}
	return cfg.Enable(p.index, p)
}

func restore(cfg *ipconfig.Config, method ipconfig.Method, wanted *ipconfig.Address) error {
	if err := cfg.SetMethod(method); err != nil {
		return err
	}
	return cfg.SetWanted(wanted)
}
