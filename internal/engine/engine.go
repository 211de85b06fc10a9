package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/hookrelay/internal/config"
	"github.com/gyaneshwarpardhi/hookrelay/internal/delivery"
	"github.com/gyaneshwarpardhi/hookrelay/internal/event"
	"github.com/gyaneshwarpardhi/hookrelay/internal/metrics"
	"github.com/gyaneshwarpardhi/hookrelay/internal/notification"
)

// ErrQueueFull is returned when an event cannot be enqueued.
var ErrQueueFull = errors.New("event queue full")

// Outcome classifies what happened to an event.
type Outcome string

const (
	// OutcomeSkipped: no notification matched; nothing to do.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeDelivered: the webhook accepted the payload.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeRejected: the webhook answered 4xx. Retrying will not help.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed: server error or transport failure. The sender should retry.
	OutcomeFailed Outcome = "failed"
)

// Result is the outcome of processing a single event.
type Result struct {
	EventID      string  `json:"event_id"`
	DurationMs   int64   `json:"duration_ms"`
	Notification string  `json:"notification,omitempty"`
	Outcome      Outcome `json:"outcome"`
	Retry        bool    `json:"retry"`
	Error        string  `json:"error,omitempty"`
}

// Engine routes events through the active rule set and hands rendered
// messages to a Deliverer.
type Engine struct {
	rules     atomic.Pointer[notification.Set]
	deliverer delivery.Deliverer
	pool      *workerPool[*eventWork]
	conf      config.EngineConf
}

type eventWork struct {
	ev      *event.Event
	resultC chan *Result
}

// New creates an Engine using conf and starts the worker pool.
func New(ctx context.Context, rules *notification.Set, d delivery.Deliverer, conf config.EngineConf) *Engine {
	e := &Engine{
		deliverer: d,
		conf:      conf,
	}
	e.SwapRules(rules)

	e.pool = newWorkerPool[*eventWork](
		ctx,
		conf.EventWorkers,
		conf.QueueDepth,
		func(ctx context.Context, w *eventWork) {
			res := e.Handle(ctx, w.ev)
			if w.resultC != nil {
				w.resultC <- res
			}
		},
	)
	return e
}

// SwapRules atomically replaces the rule set (used on hot-reload).
func (e *Engine) SwapRules(s *notification.Set) {
	e.rules.Store(s)
	metrics.ActiveNotifications.Set(float64(s.Len()))
}

// Rules returns the active rule set.
func (e *Engine) Rules() *notification.Set {
	return e.rules.Load()
}

// Render selects and renders a notification without delivering it.
func (e *Engine) Render(ev *event.Event) *notification.Message {
	return notification.Render(e.rules.Load(), ev.Body)
}

// Handle renders ev and delivers the result in the calling goroutine.
func (e *Engine) Handle(ctx context.Context, ev *event.Event) *Result {
	start := time.Now()
	res := &Result{EventID: ev.ID}
	defer func() {
		res.DurationMs = time.Since(start).Milliseconds()
		metrics.EventsProcessed.Inc()
		metrics.EventProcessingDuration.Observe(float64(res.DurationMs))
	}()

	msg := e.Render(ev)
	if msg == nil {
		slog.Info("no notification selected", "event_id", ev.ID)
		metrics.EventsSkipped.Inc()
		res.Outcome = OutcomeSkipped
		return res
	}
	res.Notification = msg.Notification
	metrics.NotificationsSelected.WithLabelValues(msg.Notification).Inc()

	if e.conf.EventTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.conf.EventTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	deliverStart := time.Now()
	err := e.deliverer.Deliver(ctx, msg)
	metrics.DeliveryDuration.WithLabelValues(msg.Notification).Observe(float64(time.Since(deliverStart).Milliseconds()))

	switch {
	case err == nil:
		res.Outcome = OutcomeDelivered
		slog.Info("notification sent", "event_id", ev.ID, "notification", msg.Notification)
	case delivery.IsRetryable(err):
		res.Outcome = OutcomeFailed
		res.Retry = true
		res.Error = err.Error()
		slog.Warn("notification delivery failed, retry requested", "event_id", ev.ID, "notification", msg.Notification, "err", err)
	default:
		res.Outcome = OutcomeRejected
		res.Error = err.Error()
		slog.Error("notification rejected", "event_id", ev.ID, "notification", msg.Notification, "err", err)
	}
	metrics.Deliveries.WithLabelValues(msg.Notification, string(res.Outcome)).Inc()
	return res
}

// ProcessSync processes an event on the worker pool and waits for the result.
// It returns ErrQueueFull if the queue is full.
func (e *Engine) ProcessSync(ctx context.Context, ev *event.Event) (*Result, error) {
	resultC := make(chan *Result, 1)
	w := &eventWork{ev: ev, resultC: resultC}

	if !e.pool.Submit(w) {
		metrics.EventsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}
	metrics.EventsEnqueued.Inc()

	// Allow one extra second over the delivery deadline for queueing.
	timeout := time.Duration(e.conf.EventTimeoutMs)*time.Millisecond + time.Second
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-resultC:
		return res, nil
	case <-timer.C:
		return nil, fmt.Errorf("event processing timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues an event for background processing. Returns false if the queue is full.
func (e *Engine) ProcessAsync(ev *event.Event) bool {
	if !e.pool.Submit(&eventWork{ev: ev}) {
		metrics.EventsDropped.Inc()
		return false
	}
	metrics.EventsEnqueued.Inc()
	return true
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
