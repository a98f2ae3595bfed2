package api

import (
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"github.com/gorilla/websocket"
	"github.com/haveachin/gatekeeper/pkg/event"
	"go.uber.org/zap"
)

const (
	eventQueueSize = 64
	writeTimeout   = 5 * time.Second
)

type eventDTO struct {
	ID         string    `json:"id"`
	Topics     []string  `json:"topics"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowedOrigins) == 0 {
			return true
		}

		for _, o := range allowedOrigins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// eventsHandler streams bus events as JSON text messages. The topic query
// parameter may be repeated to narrow the stream. Events are dropped for
// clients that do not keep up.
func eventsHandler(bus event.Bus, allowedOrigins []string, logger *zap.Logger) http.HandlerFunc {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		reqDTO := &struct {
			Topics []string `schema:"topic"`
		}{}

		if err := decoder.Decode(reqDTO, r.URL.Query()); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		events := make(chan event.Event, eventQueueSize)
		id, _ := bus.AttachHandlerFunc("", func(e event.Event) {
			select {
			case events <- e:
			default:
			}
		}, reqDTO.Topics...)
		defer bus.DetachRecipient(id)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("failed to upgrade event stream", zap.Error(err))
			return
		}
		defer conn.Close()

		// Reading is required to notice the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case <-r.Context().Done():
				return
			case e := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(eventDTO{
					ID:         e.ID,
					Topics:     e.Topics,
					OccurredAt: e.OccurredAt,
					Data:       e.Data,
				}); err != nil {
					logger.Debug("failed to write event", zap.Error(err))
					return
				}
			}
		}
	}
}
