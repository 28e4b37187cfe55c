package alerts

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// webhookSink POSTs alert events to an operator-configured endpoint.
// With no URL configured delivery degrades to a log line.
type webhookSink struct {
	url    string
	client *http.Client
}

func newWebhookSink(url string) *webhookSink {
	return &webhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookEnvelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

func (s *webhookSink) deliver(event string, payload interface{}) error {
	if s.url == "" {
		log.Info().Str("event", event).Interface("payload", payload).Msg("Alert (no webhook configured)")
		return nil
	}

	b, err := json.Marshal(webhookEnvelope{Event: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return errors.Wrap(err, "marshal webhook envelope")
	}

	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("webhook returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
