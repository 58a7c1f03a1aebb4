package subscription

import (
	"context"
)

// Subscription fans out payloads to subscribers whose channel glob matches
// the notified channel.
type Subscription interface {
	Notify(bytes []byte, channel string) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	HasSubscribers(channel string) bool
}
