package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Topics carried by the broker
const (
	TopicAuthors = "authors"
	TopicPosts   = "posts"
)

// Event types
const (
	TypeAuthorCreated = "author.created"
	TypePostCreated   = "post.created"
)

const channelPrefix = "blog:"

// Channel returns the pub/sub channel backing a topic
func Channel(topic string) string {
	return channelPrefix + topic
}

// Topic is the inverse of Channel
func Topic(channel string) string {
	if len(channel) > len(channelPrefix) && channel[:len(channelPrefix)] == channelPrefix {
		return channel[len(channelPrefix):]
	}
	return channel
}

// Event is a domain event as published on the broker
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent marshals data into a timestamped event
func NewEvent(topic, eventType string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return Event{
		Type:      eventType,
		Topic:     topic,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Message is a raw payload received on a channel
type Message struct {
	Channel string
	Payload string
}

// Subscription delivers messages until closed or its context ends
type Subscription struct {
	ch    <-chan *Message
	close func() error
}

// Channel returns the message channel. It is closed when the subscription ends.
func (s *Subscription) Channel() <-chan *Message {
	return s.ch
}

// Close ends the subscription
func (s *Subscription) Close() error {
	return s.close()
}
