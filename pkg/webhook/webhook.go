package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrEventTypeNotAllowed = errors.New("event topic not allowed")
	ErrUnexpectedStatus    = errors.New("webhook responded with unexpected status")
)

// HTTPClient represents an interface for the Webhook to send events with.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// EventLog is the body that is posted to Webhook.URL.
type EventLog struct {
	ID         string    `json:"id"`
	Topics     []string  `json:"topics"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Webhook posts JSON encoded event logs to a URL.
type Webhook struct {
	ID            string
	HTTPClient    HTTPClient
	URL           string
	AllowedTopics []string
}

// Allows reports whether any topic of e is in AllowedTopics.
func (webhook Webhook) Allows(e EventLog) bool {
	for _, at := range webhook.AllowedTopics {
		for _, et := range e.Topics {
			if at == et {
				return true
			}
		}
	}
	return false
}

// DispatchEvent marshals e into JSON and sends it in a POST request to
// Webhook.URL. A response status outside of 2xx is reported as an error.
func (webhook Webhook) DispatchEvent(ctx context.Context, e EventLog) error {
	if !webhook.Allows(e) {
		return ErrEventTypeNotAllowed
	}

	bb, err := json.Marshal(e)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(bb))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := webhook.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	// The body has to be closed for the connection to be reused.
	if resp.Body != nil {
		_ = resp.Body.Close()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return nil
}
