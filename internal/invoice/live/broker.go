package live

import (
	"context"
	"encoding/json"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const channelPrefix = "invoicely:invoices:"

// Publisher announces invoice changes to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, change Change)
}

// Broker delivers changes to the local hub, routing them through Redis
// pub/sub when a client is configured so every instance sees them.
type Broker struct {
	hub    *Hub
	client *redis.Client
	log    *zap.Logger
}

type BrokerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Hub       *Hub
	Client    *redis.Client `optional:"true"`
	Log       *zap.Logger
}

func NewBroker(p BrokerParams) *Broker {
	b := &Broker{
		hub:    p.Hub,
		client: p.Client,
		log:    p.Log.Named("invoice.live"),
	}
	if b.client == nil {
		return b
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pubsub := b.client.PSubscribe(relayCtx, channelPrefix+"*")
			go func() {
				defer close(done)
				defer pubsub.Close()
				b.relay(relayCtx, pubsub.Channel())
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
	return b
}

func (b *Broker) Publish(ctx context.Context, change Change) {
	if b == nil {
		return
	}
	if b.client == nil {
		b.hub.Publish(change)
		return
	}

	payload, err := json.Marshal(change)
	if err == nil {
		err = b.client.Publish(ctx, Channel(change.OwnerID), payload).Err()
	}
	if err != nil {
		b.log.Warn("redis publish failed, delivering locally",
			zap.String("owner_id", change.OwnerID),
			zap.Error(err),
		)
		b.hub.Publish(change)
	}
}

func (b *Broker) relay(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			change, err := decodeChange(msg.Channel, msg.Payload)
			if err != nil {
				b.log.Warn("dropping malformed live change", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			b.hub.Publish(change)
		}
	}
}

func Channel(ownerID string) string {
	return channelPrefix + strings.TrimSpace(ownerID)
}

func decodeChange(channel, payload string) (Change, error) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return Change{}, err
	}
	if change.OwnerID == "" {
		change.OwnerID = strings.TrimPrefix(channel, channelPrefix)
	}
	return change, nil
}
