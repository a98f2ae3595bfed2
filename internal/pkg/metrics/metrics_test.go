package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haveachin/gatekeeper/internal/pkg/java"
	"github.com/haveachin/gatekeeper/pkg/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Handle(t *testing.T) {
	m := New()

	events := []event.Event{
		event.New(java.NewConnEvent{}, event.TopicNewConn),
		event.New(java.StatusRequestEvent{ServerAddr: "play.example.com"}, event.TopicStatusRequest),
		event.New(java.PreLoginEvent{ServerAddr: "play.example.com"}, event.TopicPreLogin),
		event.New(java.PlayerLoginEvent{Username: "Alice"}, event.TopicPlayerLogin),
		event.New(java.PreLoginEvent{ServerAddr: "play.example.com"}, event.TopicPreLogin),
		event.New(java.LoginFailedEvent{Reason: "authentication"}, event.TopicLoginFailed),
		event.New(java.PlayerLeaveEvent{Playtime: 2 * time.Second}, event.TopicPlayerLeave),
	}
	for _, e := range events {
		m.Handle(e)
	}

	tt := []struct {
		name      string
		collector prometheus.Collector
		want      float64
	}{
		{name: "connections", collector: m.connections, want: 1},
		{name: "status handshakes", collector: m.handshakes.WithLabelValues("play.example.com", "status"), want: 1},
		{name: "login handshakes", collector: m.handshakes.WithLabelValues("play.example.com", "login"), want: 2},
		{name: "logins", collector: m.logins, want: 1},
		{name: "auth failures", collector: m.loginFailures.WithLabelValues("authentication"), want: 1},
		{name: "players connected", collector: m.playersConnected, want: 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tc.collector); got != tc.want {
				t.Errorf("got: %v, want: %v", got, tc.want)
			}
		})
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Handle(event.New(java.NewConnEvent{}, event.TopicNewConn))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("got: %d, want: %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "gatekeeper_connections_total 1") {
		t.Errorf("missing connection counter in:\n%s", rec.Body.String())
	}
}
