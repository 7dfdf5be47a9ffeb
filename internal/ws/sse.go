package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/events"
)

const sseHeartbeatInterval = 30 * time.Second

type SSEHandler struct {
	subscriber     Subscriber
	allowedOrigins []string
	logger         *zap.SugaredLogger
	metrics        ConnectionMetrics
}

func NewSSEHandler(subscriber Subscriber, allowedOrigins []string, logger *zap.SugaredLogger, metrics ConnectionMetrics) *SSEHandler {
	return &SSEHandler{
		subscriber:     subscriber,
		allowedOrigins: allowedOrigins,
		logger:         logger,
		metrics:        metrics,
	}
}

// HandleSSE streams domain events as server-sent events until the client
// disconnects. ?topics=authors,posts selects the topics.
func (h *SSEHandler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	origin := r.Header.Get("Origin")
	if origin != "" && originAllowed(origin, h.allowedOrigins) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	topics := parseTopics(r.URL.Query().Get("topics"))

	// Create context that cancels when client disconnects
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := h.subscriber.Subscribe(ctx, topics...)
	if err != nil {
		h.logger.Errorw("SSE subscribe failed", "topics", topics, "error", err)
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if h.metrics != nil {
		h.metrics.IncrementConnections(ctx, "sse")
		defer h.metrics.DecrementConnections(context.WithoutCancel(ctx), "sse")
	}
	h.logger.Debugw("SSE connection established", "topics", topics)

	h.stream(ctx, w, flusher, sub)
}

func (h *SSEHandler) stream(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sub *events.Subscription) {
	var seq int64
	h.sendEvent(w, flusher, "connected", seq, nil)

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debugw("SSE client disconnected")
			return

		case <-heartbeat.C:
			seq++
			h.sendEvent(w, flusher, "heartbeat", seq, map[string]interface{}{
				"timestamp": time.Now().Unix(),
			})

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warnw("Failed to parse message payload", "channel", msg.Channel, "error", err)
				continue
			}

			seq++
			h.sendEvent(w, flusher, event.Type, seq, event.Data)
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, id int64, data interface{}) {
	payload := []byte("{}")
	switch v := data.(type) {
	case nil:
	case json.RawMessage:
		payload = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			h.logger.Errorw("Failed to marshal SSE data", "error", err)
			return
		}
		payload = b
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "id: %d\n", id)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
