package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/hookrelay/internal/notification"
)

func newMessage(url string) *notification.Message {
	return &notification.Message{
		Notification: "Build State Notification",
		Webhook:      url,
		Payload:      map[string]any{"text": "New build for lambda-slack."},
	}
}

func TestWebhook_Deliver(t *testing.T) {
	var got map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewWebhook(time.Second).Deliver(context.Background(), newMessage(srv.URL)); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if got["text"] != "New build for lambda-slack." {
		t.Errorf("server received %v", got)
	}
}

func TestWebhook_Classification(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		wantErr   bool
		retryable bool
	}{
		{"ok", http.StatusOK, false, false},
		{"no content", http.StatusNoContent, false, false},
		{"not modified", http.StatusNotModified, false, false},
		{"bad request", http.StatusBadRequest, true, false},
		{"not found", http.StatusNotFound, true, false},
		{"too many requests", http.StatusTooManyRequests, true, false},
		{"internal error", http.StatusInternalServerError, true, true},
		{"bad gateway", http.StatusBadGateway, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("invalid_payload"))
			}))
			defer srv.Close()

			err := NewWebhook(time.Second).Deliver(context.Background(), newMessage(srv.URL))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil {
				return
			}
			var se *StatusError
			if !errors.As(err, &se) || se.StatusCode != tc.status {
				t.Fatalf("expected StatusError %d, got %v", tc.status, err)
			}
			if se.Body != "invalid_payload" {
				t.Errorf("body = %q", se.Body)
			}
			if IsRetryable(err) != tc.retryable {
				t.Errorf("IsRetryable = %v, want %v", IsRetryable(err), tc.retryable)
			}
		})
	}
}

func TestWebhook_RedirectIsNotFollowed(t *testing.T) {
	var followed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/hook", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/moved", http.StatusFound)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		followed.Store(true)
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if err := NewWebhook(time.Second).Deliver(context.Background(), newMessage(srv.URL+"/hook")); err != nil {
		t.Fatalf("302 should count as delivered, got %v", err)
	}
	if followed.Load() {
		t.Error("redirect was followed")
	}
}

func TestWebhook_TransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewWebhook(time.Second).Deliver(context.Background(), newMessage(url))
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if !IsRetryable(err) {
		t.Errorf("transport failure should be retryable: %v", err)
	}
}

func TestWebhook_BadURLIsTerminal(t *testing.T) {
	err := NewWebhook(time.Second).Deliver(context.Background(), newMessage("://nope"))
	if err == nil || IsRetryable(err) {
		t.Errorf("malformed URL should fail terminally, got %v", err)
	}
}

type stubDeliverer struct {
	calls atomic.Int32
	errs  []error
}

func (s *stubDeliverer) Deliver(ctx context.Context, msg *notification.Message) error {
	n := int(s.calls.Add(1)) - 1
	if n < len(s.errs) {
		return s.errs[n]
	}
	return nil
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRetrying(t *testing.T) {
	serverErr := &StatusError{StatusCode: 503, Status: "503 Service Unavailable"}
	clientErr := &StatusError{StatusCode: 400, Status: "400 Bad Request"}

	cases := []struct {
		name      string
		errs      []error
		attempts  int
		wantCalls int32
		wantErr   error
	}{
		{"first try", nil, 3, 1, nil},
		{"recovers", []error{serverErr, serverErr}, 3, 3, nil},
		{"gives up", []error{serverErr, serverErr, serverErr}, 3, 3, serverErr},
		{"client error not retried", []error{clientErr}, 3, 1, clientErr},
		{"single attempt", []error{serverErr}, 1, 1, serverErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubDeliverer{errs: tc.errs}
			err := NewRetrying(stub, fastRetry(tc.attempts)).Deliver(context.Background(), newMessage("http://unused"))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
			if got := stub.calls.Load(); got != tc.wantCalls {
				t.Errorf("calls = %d, want %d", got, tc.wantCalls)
			}
		})
	}
}

func TestRetrying_ContextCancelled(t *testing.T) {
	stub := &stubDeliverer{errs: []error{errors.New("connection refused"), errors.New("connection refused")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRetrying(stub, RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour})
	if err := r.Deliver(ctx, newMessage("http://unused")); err == nil {
		t.Fatal("expected error")
	}
	if got := stub.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error is not retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Error("cancellation is not retryable")
	}
	if IsRetryable(NonRetryable(errors.New("x"))) {
		t.Error("NonRetryable must not be retryable")
	}
	if !IsRetryable(errors.New("dial tcp: connection refused")) {
		t.Error("plain errors are retryable")
	}
	if NonRetryable(nil) != nil {
		t.Error("NonRetryable(nil) should be nil")
	}
}
