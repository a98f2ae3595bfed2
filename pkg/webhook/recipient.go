package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/haveachin/gatekeeper/pkg/event"
	"go.uber.org/zap"
)

const defaultDispatchTimeout = 5 * time.Second

// Recipient is an event.Handler that forwards every event to all Webhooks
// that allow its topics.
type Recipient struct {
	Webhooks []Webhook
	// Timeout bounds a single dispatch.
	Timeout time.Duration
	Logger  *zap.Logger
}

func (r Recipient) Handle(e event.Event) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}

	log := EventLog{
		ID:         e.ID,
		Topics:     e.Topics,
		OccurredAt: e.OccurredAt,
		Data:       e.Data,
	}

	for _, wh := range r.Webhooks {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := wh.DispatchEvent(ctx, log)
		cancel()
		if err != nil && !errors.Is(err, ErrEventTypeNotAllowed) {
			logger.Warn("failed to dispatch event",
				zap.String("webhookID", wh.ID),
				zap.String("eventID", e.ID),
				zap.Error(err),
			)
		}
	}
}

// Attach registers r on bus for the union of all webhook topics.
func (r Recipient) Attach(bus event.Bus) string {
	seen := map[string]bool{}
	var topics []string
	for _, wh := range r.Webhooks {
		for _, t := range wh.AllowedTopics {
			if !seen[t] {
				seen[t] = true
				topics = append(topics, t)
			}
		}
	}

	id, _ := bus.AttachHandler("webhooks", r, topics...)
	return id
}
