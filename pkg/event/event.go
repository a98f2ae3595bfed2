package event

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	TopicNewConn       = "NewConn"
	TopicStatusRequest = "StatusRequest"
	TopicPreLogin      = "PreLogin"
	TopicPlayerLogin   = "PlayerLogin"
	TopicLoginFailed   = "LoginFailed"
	TopicPlayerLeave   = "PlayerLeave"
)

// Topics lists every topic the gateway publishes.
var Topics = []string{
	TopicNewConn,
	TopicStatusRequest,
	TopicPreLogin,
	TopicPlayerLogin,
	TopicLoginFailed,
	TopicPlayerLeave,
}

type Event struct {
	ID         string
	OccurredAt time.Time
	Topics     []string
	Data       any
}

func (e Event) HasTopic(topic string) bool {
	for _, t := range e.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

type Handler interface {
	Handle(Event)
}

type HandlerFunc func(Event)

func (fn HandlerFunc) Handle(e Event) {
	fn(e)
}

func New(data any, topics ...string) Event {
	return Event{
		ID:         uuid.Must(uuid.NewV4()).String(),
		OccurredAt: time.Now(),
		Topics:     topics,
		Data:       data,
	}
}
