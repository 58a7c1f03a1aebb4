package manage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

func TestStatsUpdaterForwardsChangedCounters(t *testing.T) {
	s := newTestService(t, openTestDB(t), Options{})
	s.HandleNewLink(ipconfig.LinkEvent{Index: 2, Name: "eth0", Flags: carrierFlags, Statistics: &ipconfig.Statistics{}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	var rxPackets uint64
	listLinks := func() ([]ipconfig.LinkEvent, error) {
		return []ipconfig.LinkEvent{
			{Index: 2, Name: "eth0", Statistics: &ipconfig.Statistics{RxPackets: rxPackets}},
		}, nil
	}

	updater := &statsUpdater{
		manageService:       s,
		listLinks:           listLinks,
		onlyWithSubscribers: true,
		previousStats:       make(map[int]ipconfig.Statistics),
	}

	updater.updateStats()
	updater.updateStats()
	rxPackets = 5
	updater.updateStats()

	select {
	case event := <-events:
		if event.Action != ChangedActionStatistics || event.Statistics == nil || event.Statistics.RxPackets != 5 {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for statistics")
	}

	select {
	case event := <-events:
		t.Fatalf("unexpected event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}

	if iface := s.iface(t, 2); !iface.Up || !iface.LowerUp {
		t.Fatalf("expected polled counters to leave the link flags alone, got %+v", iface)
	}
}

func TestStatsUpdaterIgnoresRemovedLinks(t *testing.T) {
	s := newTestService(t, openTestDB(t), Options{AutoConfigure: true})

	eth1 := ipconfig.LinkEvent{Index: 3, Name: "eth1", Flags: carrierFlags, Statistics: &ipconfig.Statistics{}}
	s.HandleNewLink(eth1)
	polled := []ipconfig.LinkEvent{
		{Index: 3, Name: "eth1", Flags: carrierFlags, Statistics: &ipconfig.Statistics{RxPackets: 7}},
		{Index: 4, Name: "eth2", Flags: carrierFlags, Statistics: &ipconfig.Statistics{RxPackets: 1}},
	}
	s.HandleDelLink(3)

	updater := &statsUpdater{
		manageService: s,
		previousStats: make(map[int]ipconfig.Statistics),
		listLinks: func() ([]ipconfig.LinkEvent, error) {
			return polled, nil
		},
	}
	updater.updateStats()

	for _, index := range []int{3, 4} {
		if _, err := s.Interface(context.Background(), index); !errors.Is(err, ErrInterfaceNotFound) {
			t.Fatalf("expected interface %d to stay unknown, got %v", index, err)
		}
	}
	if len(s.registry.Configs()) != 0 {
		t.Fatalf("expected no bound configs, got %d", len(s.registry.Configs()))
	}
}

func TestStatsUpdaterSkipsWithoutSubscribers(t *testing.T) {
	s := newTestService(t, openTestDB(t), Options{})

	calls := 0
	updater := &statsUpdater{
		manageService:       s,
		onlyWithSubscribers: true,
		previousStats:       make(map[int]ipconfig.Statistics),
		listLinks: func() ([]ipconfig.LinkEvent, error) {
			calls++
			return nil, nil
		},
	}

	updater.updateStats()
	if calls != 0 {
		t.Fatalf("expected no poll without subscribers, got %d", calls)
	}

	updater.onlyWithSubscribers = false
	updater.updateStats()
	if calls != 1 {
		t.Fatalf("expected one poll, got %d", calls)
	}
}

func TestStatsUpdaterClose(t *testing.T) {
	s := newTestService(t, openTestDB(t), Options{})

	for _, interval := range []time.Duration{0, time.Millisecond} {
		updater := NewStatsUpdater(s, func() ([]ipconfig.LinkEvent, error) {
			return nil, nil
		}, interval, false)
		updater.Close()
	}
}
