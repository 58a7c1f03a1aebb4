package manage

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

// LinkLister returns the current state of every link.
type LinkLister func() ([]ipconfig.LinkEvent, error)

type StatsUpdater interface {
	Close()
}

// statsUpdater polls link counters, which the kernel does not announce, and
// hands the counters that moved to the service. Links themselves are only
// ever added and removed by the kernel monitor.
type statsUpdater struct {
	manageService       Service
	listLinks           LinkLister
	interval            time.Duration
	onlyWithSubscribers bool
	previousStats       map[int]ipconfig.Statistics
	stopChan            chan struct{}
	stoppedChan         chan struct{}
}

func NewStatsUpdater(manageService Service, listLinks LinkLister, interval time.Duration, onlyWithSubscribers bool) StatsUpdater {
	s := &statsUpdater{
		manageService:       manageService,
		listLinks:           listLinks,
		interval:            interval,
		onlyWithSubscribers: onlyWithSubscribers,
		previousStats:       make(map[int]ipconfig.Statistics),
		stopChan:            make(chan struct{}),
		stoppedChan:         make(chan struct{}),
	}

	go s.run()

	return s
}

func (s *statsUpdater) run() {
	defer close(s.stoppedChan)

	if s.interval <= 0 {
		<-s.stopChan
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.updateStats()
		}
	}
}

func (s *statsUpdater) updateStats() {
	if s.onlyWithSubscribers && !s.manageService.HasSubscribers() {
		return
	}

	links, err := s.listLinks()
	if err != nil {
		logrus.
			WithError(err).
			Error("failed to list links")
		return
	}

	seen := make(map[int]struct{}, len(links))
	for _, link := range links {
		seen[link.Index] = struct{}{}
		if link.Statistics == nil {
			continue
		}

		previousStats, ok := s.previousStats[link.Index]
		if ok && previousStats == *link.Statistics {
			continue
		}
		s.previousStats[link.Index] = *link.Statistics

		s.manageService.HandleStatistics(link.Index, *link.Statistics)
	}

	for index := range s.previousStats {
		if _, ok := seen[index]; !ok {
			delete(s.previousStats, index)
		}
	}
}

func (s *statsUpdater) Close() {
	close(s.stopChan)
	<-s.stoppedChan
}
