package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/hookrelay/internal/config"
	"github.com/gyaneshwarpardhi/hookrelay/internal/engine"
	"github.com/gyaneshwarpardhi/hookrelay/internal/event"
	"github.com/gyaneshwarpardhi/hookrelay/internal/metrics"
)

const maxBatchSize = 100

// Reloader re-reads the rules file. The caller is expected to have wired the
// reload to Engine.Apply (config.Loader does this through OnChange).
type Reloader interface {
	Reload() (*config.RelayConfig, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng   *engine.Engine
	rules Reloader
	mux   *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, rules Reloader) http.Handler {
	h := &Handler{eng: eng, rules: rules, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.ingestBatch)
	h.mux.HandleFunc("POST /v1/render", h.render)
	h.mux.HandleFunc("GET /v1/notifications", h.listNotifications)
	h.mux.HandleFunc("POST /v1/notifications/reload", h.reloadNotifications)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events: synchronous single-event processing.
// 502 tells the sender to retry; a 4xx from the webhook is reported with 200
// because sending the same event again cannot succeed.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := event.Decode(r.Body)
	if err != nil {
		metrics.EventsInvalid.WithLabelValues("http").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.eng.ProcessSync(r.Context(), ev)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, engine.ErrQueueFull) {
			status = http.StatusTooManyRequests
		}
		writeError(w, status, err.Error())
		return
	}
	status := http.StatusOK
	if res.Retry {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

// POST /v1/events/batch: async batch ingestion (up to 100 events).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	events, err := event.DecodeBatch(r.Body)
	if err != nil {
		metrics.EventsInvalid.WithLabelValues("http").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	if len(events) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(events), maxBatchSize))
		return
	}

	queued := 0
	for _, ev := range events {
		if h.eng.ProcessAsync(ev) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   uuid.New().String(),
		"total":    len(events),
		"queued":   queued,
		"rejected": len(events) - queued,
	})
}

// POST /v1/render: dry run, nothing is sent.
func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	ev, err := event.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msg := h.eng.Render(ev)
	if msg == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"event_id": ev.ID,
			"selected": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":     ev.ID,
		"selected":     true,
		"notification": msg.Notification,
		"webhook_host": webhookHost(msg.Webhook),
		"variables":    msg.Variables,
		"payload":      msg.Payload,
	})
}

type notificationSummary struct {
	Name        string   `json:"name"`
	Conditional bool     `json:"conditional"`
	Variables   []string `json:"variables"`
	WebhookHost string   `json:"webhook_host"`
}

// GET /v1/notifications: list active definitions in evaluation order.
func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	defs := h.eng.Rules().Definitions()
	out := make([]notificationSummary, 0, len(defs))
	for _, d := range defs {
		out = append(out, notificationSummary{
			Name:        d.Name,
			Conditional: d.Match != nil,
			Variables:   d.Variables.Names(),
			WebhookHost: webhookHost(d.Webhook),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":         len(out),
		"notifications": out,
	})
}

// POST /v1/notifications/reload: hot-reload rules from disk.
func (h *Handler) reloadNotifications(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.rules.Reload()
	if err != nil {
		writeRulesError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":            true,
		"version":             cfg.Version,
		"notifications_count": h.eng.Rules().Len(),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if event queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// webhookHost hides the secret part of an incoming-webhook URL.
func webhookHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
