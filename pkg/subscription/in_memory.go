package subscription

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const observerBufferSize = 64

type inMemorySubscription struct {
	observers     map[channelKey]chan []byte
	observersLock sync.RWMutex
}

func NewInMemorySubscription() Subscription {
	return &inMemorySubscription{
		observers: make(map[channelKey]chan []byte),
	}
}

// Notify never blocks: a subscriber whose buffer is full misses the payload.
func (s *inMemorySubscription) Notify(bytes []byte, channel string) error {
	s.observersLock.RLock()
	defer s.observersLock.RUnlock()

	channel = joinPath(channel)

	for k, v := range s.observers {
		if !matches(k.channel, channel) {
			continue
		}
		select {
		case v <- bytes:
		default:
			logrus.
				WithField("subscriber", k.id).
				WithField("channel", channel).
				Warn("dropping event for slow subscriber")
		}
	}
	return nil
}

func (s *inMemorySubscription) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	uuidValue, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	s.observersLock.Lock()
	defer s.observersLock.Unlock()

	key := newChannelKey(uuidValue.String(), joinPath(channel))
	observerChan := make(chan []byte, observerBufferSize)
	go func() {
		<-ctx.Done()
		s.unsubscribe(key, observerChan)
	}()

	s.observers[key] = observerChan
	return observerChan, nil
}

func (s *inMemorySubscription) HasSubscribers(channel string) bool {
	s.observersLock.RLock()
	defer s.observersLock.RUnlock()

	if len(channel) == 0 {
		return len(s.observers) != 0
	}
	channel = joinPath(channel)

	for k := range s.observers {
		if matches(k.channel, channel) {
			return true
		}
	}
	return false
}

func (s *inMemorySubscription) unsubscribe(key channelKey, observerChan chan<- []byte) {
	s.observersLock.Lock()
	defer s.observersLock.Unlock()

	delete(s.observers, key)
	close(observerChan)
}

func matches(pattern string, channel string) bool {
	match, err := filepath.Match(pattern, channel)
	if err != nil {
		logrus.
			WithError(err).
			WithField("pattern", pattern).
			WithField("channel", channel).
			Warn("failed to match glob pattern")
	}
	return match
}
