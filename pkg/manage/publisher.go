package manage

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
	"github.com/UnAfraid/ipconfd/pkg/subscription"
)

var (
	subscriptionPath = "interface"
)

type publisher struct {
	subscription subscription.Subscription
}

// NewStatsNotifier publishes the counters carried by link events as
// STATISTICS changed events.
func NewStatsNotifier(subscription subscription.Subscription) ipconfig.StatsNotifier {
	return &publisher{
		subscription: subscription,
	}
}

func (p *publisher) NotifyStatistics(index int, ifname string, stats ipconfig.Statistics) {
	p.publish(&ChangedEvent{
		Action:     ChangedActionStatistics,
		Index:      index,
		Interface:  ifname,
		Statistics: &stats,
	})
}

func (p *publisher) publish(event *ChangedEvent) {
	channel := path.Join(subscriptionPath, strconv.Itoa(event.Index))
	if !p.subscription.HasSubscribers(channel) {
		return
	}

	if err := p.notify(event, channel); err != nil {
		logrus.
			WithError(err).
			WithField("index", event.Index).
			WithField("action", event.Action).
			Warn("failed to publish changed event")
	}
}

func (p *publisher) notify(event *ChangedEvent, channel string) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.subscription.Notify(bytes, channel); err != nil {
		return fmt.Errorf("failed to notify interface changed event: %w", err)
	}
	return nil
}
