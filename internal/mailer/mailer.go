package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mailer delivers transactional mail. Callers treat delivery as
// fire-and-forget: failures are logged, never retried.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// HTTPMailer posts messages to a transactional-email provider's JSON
// API.
type HTTPMailer struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

func NewHTTPMailer(endpoint, apiKey, from string) *HTTPMailer {
	return &HTTPMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(message{
		To:      to,
		From:    m.from,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	return nil
}

// Noop discards all mail. Used when no provider is configured and in
// tests.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, body string) error {
	return nil
}
