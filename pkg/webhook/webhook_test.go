package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haveachin/gatekeeper/pkg/webhook"
)

var errHTTPRequestFailed = errors.New("request failed")

type mockHTTPClient struct {
	*testing.T
	targetURL         string
	body              *bytes.Buffer
	requestShouldFail bool
}

func (mock *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost {
		mock.Errorf("got method: %s", req.Method)
	}

	if req.URL.String() != mock.targetURL {
		mock.Errorf("got url: %s, want: %s", req.URL, mock.targetURL)
	}

	if _, err := mock.body.ReadFrom(req.Body); err != nil {
		mock.Error(err)
	}

	if mock.requestShouldFail {
		return nil, errHTTPRequestFailed
	}

	return &http.Response{
		StatusCode: http.StatusNoContent,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

func TestWebhook_DispatchEvent(t *testing.T) {
	tt := []struct {
		name                  string
		webhook               webhook.Webhook
		event                 webhook.EventLog
		err                   error
		httpRequestShouldFail bool
	}{
		{
			name: "WithExactlyTheAllowedTopic",
			webhook: webhook.Webhook{
				URL:           "https://example.com",
				AllowedTopics: []string{"PlayerLogin"},
			},
			event: webhook.EventLog{
				Topics:     []string{"PlayerLogin"},
				OccurredAt: time.Now(),
				Data: map[string]any{
					"username": "Alice",
				},
			},
		},
		{
			name: "WithOneOfTheAllowedTopics",
			webhook: webhook.Webhook{
				URL:           "https://example.com",
				AllowedTopics: []string{"PlayerLogin", "PlayerLeave"},
			},
			event: webhook.EventLog{
				Topics:     []string{"PlayerLeave"},
				OccurredAt: time.Now(),
			},
		},
		{
			name: "ErrorsWithDeniedTopic",
			webhook: webhook.Webhook{
				URL:           "https://example.com",
				AllowedTopics: []string{"PlayerLeave"},
			},
			event: webhook.EventLog{
				Topics:     []string{"LoginFailed"},
				OccurredAt: time.Now(),
			},
			err: webhook.ErrEventTypeNotAllowed,
		},
		{
			name: "ErrorsWithFailedHTTPRequest",
			webhook: webhook.Webhook{
				URL:           "https://example.com",
				AllowedTopics: []string{"PlayerLogin"},
			},
			event: webhook.EventLog{
				Topics:     []string{"PlayerLogin"},
				OccurredAt: time.Now(),
			},
			err:                   errHTTPRequestFailed,
			httpRequestShouldFail: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var body bytes.Buffer
			tc.webhook.HTTPClient = &mockHTTPClient{
				T:                 t,
				targetURL:         tc.webhook.URL,
				body:              &body,
				requestShouldFail: tc.httpRequestShouldFail,
			}

			err := tc.webhook.DispatchEvent(context.Background(), tc.event)
			if !errors.Is(err, tc.err) {
				t.Fatalf("got: %v, want: %v", err, tc.err)
			}
			if err != nil {
				return
			}

			var got webhook.EventLog
			if err := json.Unmarshal(body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if len(got.Topics) != len(tc.event.Topics) || got.Topics[0] != tc.event.Topics[0] {
				t.Errorf("got: %v, want: %v", got.Topics, tc.event.Topics)
			}
		})
	}
}

func TestWebhook_DispatchEvent_unexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("got content type: %s", ct)
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := webhook.Webhook{
		URL:           srv.URL,
		HTTPClient:    srv.Client(),
		AllowedTopics: []string{"PlayerLogin"},
	}

	err := wh.DispatchEvent(context.Background(), webhook.EventLog{Topics: []string{"PlayerLogin"}})
	if !errors.Is(err, webhook.ErrUnexpectedStatus) {
		t.Errorf("got: %v, want: %v", err, webhook.ErrUnexpectedStatus)
	}
}
