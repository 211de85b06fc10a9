package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/hookrelay/internal/notification"
)

const maxErrorBody = 512

// Deliverer posts a rendered message to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, msg *notification.Message) error
}

// StatusError is returned when the webhook answers with a status >= 400.
type StatusError struct {
	Notification string
	StatusCode   int
	Status       string
	Body         string
}

func (e *StatusError) Error() string {
	s := fmt.Sprintf("notification %q: webhook returned %s", e.Notification, e.Status)
	if e.Body != "" {
		s += ": " + e.Body
	}
	return s
}

// Retryable reports whether the failure is on the server side. 4xx means the
// request itself is wrong and sending it again will not help.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500
}

// Webhook posts JSON payloads over HTTP.
type Webhook struct {
	client    *http.Client
	userAgent string
}

// NewWebhook creates a Webhook whose requests time out after timeout.
// Redirects are not followed: a 3xx answer is itself the delivery result.
func NewWebhook(timeout time.Duration) *Webhook {
	return &Webhook{
		client: &http.Client{
			Timeout:       timeout,
			CheckRedirect: noRedirect,
		},
		userAgent: "hookrelay/1",
	}
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// WithClient replaces the HTTP client, mainly for tests.
func (w *Webhook) WithClient(c *http.Client) *Webhook {
	w.client = c
	return w
}

// Deliver serializes msg.Payload and POSTs it to msg.Webhook.
func (w *Webhook) Deliver(ctx context.Context, msg *notification.Message) error {
	b, err := json.Marshal(msg.Payload)
	if err != nil {
		return NonRetryable(fmt.Errorf("notification %q: encode payload: %w", msg.Notification, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.Webhook, bytes.NewReader(b))
	if err != nil {
		return NonRetryable(fmt.Errorf("notification %q: build request: %w", msg.Notification, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req) // #nosec G107 -- destination comes from the operator's rules file
	if err != nil {
		return fmt.Errorf("notification %q: post: %w", msg.Notification, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Notification: msg.Notification,
		StatusCode:   resp.StatusCode,
		Status:       resp.Status,
		Body:         strings.TrimSpace(string(body)),
	}
}
