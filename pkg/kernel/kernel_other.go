//go:build !linux

package kernel

import (
	"context"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

type AddressManager struct{}

func NewAddressManager() *AddressManager {
	return &AddressManager{}
}

func (m *AddressManager) SetAddress(int, *ipconfig.Address) error {
	return ErrNotSupported
}

func (m *AddressManager) ClearAddress(int, *ipconfig.Address) error {
	return ErrNotSupported
}

func ListLinks() ([]ipconfig.LinkEvent, error) {
	return nil, ErrNotSupported
}

type Monitor struct{}

func NewMonitor(Handler) *Monitor {
	return &Monitor{}
}

func (m *Monitor) Run(context.Context) error {
	return ErrNotSupported
}
