package ws

import (
	"context"
	"strings"

	"github.com/noobjs/blog-backend/internal/events"
)

// Subscriber opens event subscriptions
type Subscriber interface {
	Subscribe(ctx context.Context, topics ...string) (*events.Subscription, error)
}

// ConnectionMetrics tracks open streaming connections by kind ("ws", "sse")
type ConnectionMetrics interface {
	IncrementConnections(ctx context.Context, kind string)
	DecrementConnections(ctx context.Context, kind string)
}

// AllTopics lists every topic a client can follow
var AllTopics = []string{events.TopicAuthors, events.TopicPosts}

// parseTopics keeps the known topics of a comma separated list. An empty
// or fully unknown list selects every topic.
func parseTopics(param string) []string {
	var topics []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(param, ",") {
		t = strings.TrimSpace(strings.ToLower(t))
		if !isKnownTopic(t) || seen[t] {
			continue
		}
		seen[t] = true
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return AllTopics
	}
	return topics
}

func isKnownTopic(topic string) bool {
	for _, t := range AllTopics {
		if t == topic {
			return true
		}
	}
	return false
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
