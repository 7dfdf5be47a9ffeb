package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MetricsRecorder counts published events
type MetricsRecorder interface {
	RecordEventPublished(ctx context.Context, topic string)
}

// Broker fans events out over Redis pub/sub, or over an in-process hub when
// Redis is not configured or unreachable.
type Broker struct {
	client  *redis.Client
	hub     *Hub
	logger  *zap.SugaredLogger
	metrics MetricsRecorder
}

var _ Publisher = (*Broker)(nil)

// NewBroker connects to Redis at addr. An empty addr or a failed ping
// selects the in-memory hub.
func NewBroker(addr string, logger *zap.SugaredLogger, metrics MetricsRecorder) *Broker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if addr == "" {
		logger.Info("Redis not configured; using in-memory event hub")
		return NewMemoryBroker(logger, metrics)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnw("Redis unavailable; using in-memory event hub", "addr", addr, "error", err)
		_ = client.Close()
		return NewMemoryBroker(logger, metrics)
	}

	logger.Infow("Connected to Redis event broker", "addr", addr)
	return &Broker{client: client, logger: logger, metrics: metrics}
}

// NewMemoryBroker returns a broker backed by the in-process hub
func NewMemoryBroker(logger *zap.SugaredLogger, metrics MetricsRecorder) *Broker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Broker{hub: NewHub(), logger: logger, metrics: metrics}
}

// Publish sends event on the channel of its topic
func (b *Broker) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("pubsub marshal error: %w", err)
	}
	channel := Channel(event.Topic)

	if b.client != nil {
		if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
			return fmt.Errorf("pubsub publish error: %w", err)
		}
	} else {
		b.hub.Publish(channel, string(data))
		b.logger.Debugw("Published to in-memory pubsub", "channel", channel, "type", event.Type)
	}

	if b.metrics != nil {
		b.metrics.RecordEventPublished(ctx, event.Topic)
	}
	return nil
}

// Subscribe follows the given topics until ctx is done or the subscription is closed
func (b *Broker) Subscribe(ctx context.Context, topics ...string) (*Subscription, error) {
	channels := make([]string, 0, len(topics))
	for _, topic := range topics {
		channels = append(channels, Channel(topic))
	}

	if b.client == nil {
		return b.hub.Subscribe(ctx, channels...), nil
	}

	pubsub := b.client.Subscribe(ctx, channels...)
	// Wait for confirmation so publishes after Subscribe returns are not missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("pubsub subscribe error: %w", err)
	}

	out := make(chan *Message, 100)
	go func() {
		defer close(out)
		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- &Message{Channel: msg.Channel, Payload: msg.Payload}:
				default:
				}
			}
		}
	}()

	return &Subscription{ch: out, close: pubsub.Close}, nil
}

// IsInMemoryMode returns true when events stay inside this process
func (b *Broker) IsInMemoryMode() bool {
	return b.client == nil
}

// Ping checks the Redis connection. The in-memory hub is always healthy.
func (b *Broker) Ping(ctx context.Context) error {
	if b.client != nil {
		return b.client.Ping(ctx).Err()
	}
	return nil
}

// Close releases the Redis client
func (b *Broker) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}
