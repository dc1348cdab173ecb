// Package events implements the best-effort analytics dispatcher.
//
// Every user-facing action is translated into a structured event and posted
// to the backend as a detached task: the emitting call returns immediately,
// the work happens on a single background worker, and every failure is
// swallowed into a debug-level log plus a metric. By construction nothing in
// this package can fail, block, or roll back the action that triggered an
// event — a flaky analytics backend must never degrade shopping.
//
// Events are stamped with a generated unique id and UTC timestamp at emit
// time, and carry the ambient session id plus the authenticated user id when
// one exists. No ordering is guaranteed between independently emitted events.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cartiq/cartiq-go/internal/domain"
	"github.com/cartiq/cartiq-go/internal/session"
)

// Sink is the transport the dispatcher posts events through. *api.Client
// satisfies it.
type Sink interface {
	TrackUserEvent(ctx context.Context, ev domain.UserEvent) error
	TrackProductView(ctx context.Context, ev domain.ProductViewEvent) error
	TrackCartEvent(ctx context.Context, ev domain.CartEvent) error
	TrackOrderEvent(ctx context.Context, ev domain.OrderEvent) error
	TrackProfile(ctx context.Context, ev domain.ProfileEvent) error
}

// event family labels, used for logs and metrics.
const (
	familyPage    = "page_view"
	familyProduct = "product_view"
	familyCart    = "cart"
	familyOrder   = "order"
	familyProfile = "profile"
)

// task is one queued dispatch.
type task struct {
	family string
	send   func(ctx context.Context) error
}

// Options configures a Dispatcher.
type Options struct {
	// QueueSize bounds the dispatch queue; emits beyond it are dropped.
	QueueSize int
	// RPS and Burst shape the outbound rate limiter. RPS <= 0 disables
	// limiting.
	RPS   float64
	Burst int
	// UserAgent is the client user agent used for device classification on
	// page-view events.
	UserAgent string
	// Timeout bounds each dispatch attempt.
	Timeout time.Duration
}

// Dispatcher fans user-facing actions out to the analytics backend.
//
// SessionID and UserID are callbacks so the dispatcher always observes the
// current session and identity without holding either. A dispatcher whose
// session callback yields "" silently drops emits (session not ready).
type Dispatcher struct {
	sink      Sink
	sessionID func() string
	userID    func() string
	device    domain.DeviceType
	timeout   time.Duration
	limiter   *rate.Limiter
	log       zerolog.Logger

	queue     chan task
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher starts the background worker and returns the dispatcher.
// userID may be nil for anonymous-only use.
func NewDispatcher(sink Sink, sessionID func() string, userID func() string, log zerolog.Logger, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if userID == nil {
		userID = func() string { return "" }
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	d := &Dispatcher{
		sink:      sink,
		sessionID: sessionID,
		userID:    userID,
		device:    session.DetectDevice(opts.UserAgent),
		timeout:   opts.Timeout,
		limiter:   limiter,
		log:       log,
		queue:     make(chan task, opts.QueueSize),
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// Close stops accepting events and blocks until the queue drains.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// worker drains the queue serially, pacing dispatches with the limiter.
func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.queue {
		if d.limiter != nil {
			_ = d.limiter.Wait(context.Background())
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := t.send(ctx); err != nil {
			eventsFailed.WithLabelValues(t.family).Inc()
			d.log.Debug().Err(err).Str("family", t.family).Msg("event dispatch failed")
		}
		cancel()
	}
}

// stamp builds the common event header. ok is false when no session id is
// available yet, in which case the emit is a silent no-op.
func (d *Dispatcher) stamp() (domain.BaseEvent, bool) {
	sid := d.sessionID()
	if sid == "" {
		return domain.BaseEvent{}, false
	}
	return domain.BaseEvent{
		EventID:   uuid.NewString(),
		SessionID: sid,
		UserID:    d.userID(),
		Timestamp: time.Now().UTC(),
	}, true
}

// enqueue hands a task to the worker, dropping it when the queue is full.
func (d *Dispatcher) enqueue(family string, send func(ctx context.Context) error) {
	select {
	case d.queue <- task{family: family, send: send}:
		eventsEmitted.WithLabelValues(family).Inc()
	default:
		eventsDropped.WithLabelValues(family).Inc()
		d.log.Debug().Str("family", family).Msg("event queue full, dropping")
	}
}

// PageView emits a page-view event enriched with device class, path, full
// URL, and referrer. pageType is normalized onto the backend's closed set.
func (d *Dispatcher) PageView(pageType, pagePath, pageURL, referrer string) {
	base, ok := d.stamp()
	if !ok {
		return
	}
	ev := domain.UserEvent{
		BaseEvent:  base,
		EventType:  "page_view",
		PageType:   domain.NormalizePageType(pageType),
		PagePath:   pagePath,
		PageURL:    pageURL,
		DeviceType: d.device,
		Referrer:   referrer,
	}
	d.enqueue(familyPage, func(ctx context.Context) error {
		return d.sink.TrackUserEvent(ctx, ev)
	})
}

// Lifecycle emits an auth lifecycle signal ("login", "logout").
func (d *Dispatcher) Lifecycle(eventType string) {
	base, ok := d.stamp()
	if !ok {
		return
	}
	ev := domain.UserEvent{BaseEvent: base, EventType: eventType, DeviceType: d.device}
	d.enqueue(familyPage, func(ctx context.Context) error {
		return d.sink.TrackUserEvent(ctx, ev)
	})
}

// CartAction emits a cart mutation event. The caller fills the action,
// product, and post-mutation totals; the header is stamped here.
func (d *Dispatcher) CartAction(ev domain.CartEvent) {
	base, ok := d.stamp()
	if !ok {
		return
	}
	ev.BaseEvent = base
	d.enqueue(familyCart, func(ctx context.Context) error {
		return d.sink.TrackCartEvent(ctx, ev)
	})
}

// OrderLifecycle emits an order lifecycle transition.
func (d *Dispatcher) OrderLifecycle(ev domain.OrderEvent) {
	base, ok := d.stamp()
	if !ok {
		return
	}
	ev.BaseEvent = base
	d.enqueue(familyOrder, func(ctx context.Context) error {
		return d.sink.TrackOrderEvent(ctx, ev)
	})
}

// ProfileSnapshot emits a point-in-time user profile snapshot.
func (d *Dispatcher) ProfileSnapshot(ev domain.ProfileEvent) {
	base, ok := d.stamp()
	if !ok {
		return
	}
	ev.BaseEvent = base
	d.enqueue(familyProfile, func(ctx context.Context) error {
		return d.sink.TrackProfile(ctx, ev)
	})
}

// productView emits a raw product view event; StartView is the public entry.
func (d *Dispatcher) productView(ev domain.ProductViewEvent) {
	base, ok := d.stamp()
	if !ok {
		return
	}
	ev.BaseEvent = base
	d.enqueue(familyProduct, func(ctx context.Context) error {
		return d.sink.TrackProductView(ctx, ev)
	})
}
