package redis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"quiz-gateway/internal/bus"
)

const relayPrefix = "notify:"

// Relay fans notification events out through Redis pub/sub so that every
// gateway instance delivers them to its own websocket clients. It implements
// bus.Publisher; local delivery happens when the published message comes back
// on the subscription, keeping single- and multi-instance paths identical.
type Relay struct {
	client *redis.Client
	hub    *bus.Hub
}

func NewRelay(client *redis.Client, hub *bus.Hub) *Relay {
	return &Relay{client: client, hub: hub}
}

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Publish forwards the event to Redis. Best-effort: a failed publish is
// logged and dropped, matching the bus delivery contract.
func (r *Relay) Publish(channel, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Warn("relay: marshal payload")
		return
	}
	env, err := json.Marshal(envelope{Event: event, Payload: data})
	if err != nil {
		logrus.WithError(err).WithField("event", event).Warn("relay: marshal envelope")
		return
	}
	if err := r.client.Publish(context.Background(), relayPrefix+channel, env).Err(); err != nil {
		logrus.WithError(err).WithField("channel", channel).Warn("relay: publish")
	}
}

// Run subscribes to all notification channels and feeds incoming events into
// the local hub. Blocks until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, relayPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logrus.WithError(err).Warn("relay: bad envelope")
				continue
			}
			channel := strings.TrimPrefix(msg.Channel, relayPrefix)
			r.hub.Publish(channel, env.Event, env.Payload)
		}
	}
}
