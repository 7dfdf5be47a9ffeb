package events

import (
	"context"
	"sync"
)

// memorySubscriber is a single in-process subscription
type memorySubscriber struct {
	channels map[string]bool
	msgChan  chan *Message
	closeCh  chan struct{}
	closed   bool
	mu       sync.RWMutex
}

func newMemorySubscriber(channels []string) *memorySubscriber {
	channelMap := make(map[string]bool)
	for _, ch := range channels {
		channelMap[ch] = true
	}

	return &memorySubscriber{
		channels: channelMap,
		msgChan:  make(chan *Message, 100),
		closeCh:  make(chan struct{}),
	}
}

func (m *memorySubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.closeCh)
		close(m.msgChan)
	}
	return nil
}

// send delivers msg without blocking. Slow subscribers lose messages.
func (m *memorySubscriber) send(msg *Message) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed || !m.channels[msg.Channel] {
		return
	}

	select {
	case m.msgChan <- msg:
	default:
	}
}

// Hub is the in-process pub/sub used when Redis is not configured
type Hub struct {
	subscribers map[string][]*memorySubscriber // channel -> list of subscribers
	mu          sync.RWMutex
}

// NewHub creates a new pubsub hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string][]*memorySubscriber),
	}
}

// Subscribe registers a subscription for the given channels. It ends when
// ctx is done or the subscription is closed.
func (h *Hub) Subscribe(ctx context.Context, channels ...string) *Subscription {
	sub := newMemorySubscriber(channels)

	h.mu.Lock()
	for _, channel := range channels {
		h.subscribers[channel] = append(h.subscribers[channel], sub)
	}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.closeCh:
		}
		h.remove(sub, channels)
	}()

	return &Subscription{ch: sub.msgChan, close: sub.Close}
}

func (h *Hub) remove(sub *memorySubscriber, channels []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, channel := range channels {
		subscribers := h.subscribers[channel]
		for i, s := range subscribers {
			if s == sub {
				h.subscribers[channel] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(h.subscribers[channel]) == 0 {
			delete(h.subscribers, channel)
		}
	}
}

// Publish sends a payload to all subscribers of a channel
func (h *Hub) Publish(channel, payload string) {
	h.mu.RLock()
	subscribers := make([]*memorySubscriber, len(h.subscribers[channel]))
	copy(subscribers, h.subscribers[channel])
	h.mu.RUnlock()

	msg := &Message{
		Channel: channel,
		Payload: payload,
	}
	for _, sub := range subscribers {
		sub.send(msg)
	}
}

// SubscriberCount returns the number of live subscriptions on channel
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}
