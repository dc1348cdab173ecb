package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// fakeSink records every delivered event. When block is non-nil the first
// delivery waits on it, letting tests fill the queue deterministically. err
// is returned from every delivery when set.
type fakeSink struct {
	mu    sync.Mutex
	user  []domain.UserEvent
	views []domain.ProductViewEvent
	carts []domain.CartEvent
	order []domain.OrderEvent
	prof  []domain.ProfileEvent

	block chan struct{}
	err   error
}

func (f *fakeSink) hold() {
	if f.block != nil {
		<-f.block
		f.block = nil
	}
}

func (f *fakeSink) TrackUserEvent(_ context.Context, ev domain.UserEvent) error {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = append(f.user, ev)
	return f.err
}

func (f *fakeSink) TrackProductView(_ context.Context, ev domain.ProductViewEvent) error {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, ev)
	return f.err
}

func (f *fakeSink) TrackCartEvent(_ context.Context, ev domain.CartEvent) error {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts = append(f.carts, ev)
	return f.err
}

func (f *fakeSink) TrackOrderEvent(_ context.Context, ev domain.OrderEvent) error {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, ev)
	return f.err
}

func (f *fakeSink) TrackProfile(_ context.Context, ev domain.ProfileEvent) error {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prof = append(f.prof, ev)
	return f.err
}

func newTestDispatcher(sink Sink, sessionID, userID string) *Dispatcher {
	return NewDispatcher(sink,
		func() string { return sessionID },
		func() string { return userID },
		zerolog.Nop(), Options{})
}

func TestPageViewStampedAndDelivered(t *testing.T) {
	sink := &fakeSink{}
	d := newTestDispatcher(sink, "sess-1", "u-1")

	before := time.Now().UTC()
	d.PageView("checkout", "/checkout", "https://shop.example/checkout", "https://shop.example/cart")
	d.Close()

	if len(sink.user) != 1 {
		t.Fatalf("delivered %d user events, want 1", len(sink.user))
	}
	ev := sink.user[0]
	if ev.EventID == "" {
		t.Fatal("missing event id")
	}
	if ev.SessionID != "sess-1" || ev.UserID != "u-1" {
		t.Fatalf("identity = %q/%q", ev.SessionID, ev.UserID)
	}
	if ev.Timestamp.Before(before) || ev.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp = %v", ev.Timestamp)
	}
	if ev.EventType != "page_view" || ev.PageType != "checkout" || ev.PagePath != "/checkout" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestUnknownPageTypeNormalizedToHome(t *testing.T) {
	sink := &fakeSink{}
	d := newTestDispatcher(sink, "sess-1", "")

	d.PageView("wishlist", "/wishlist", "", "")
	d.Close()

	if len(sink.user) != 1 || sink.user[0].PageType != domain.PageHome {
		t.Fatalf("events = %+v", sink.user)
	}
}

func TestEmitWithoutSessionIsDropped(t *testing.T) {
	sink := &fakeSink{}
	d := newTestDispatcher(sink, "", "u-1")

	d.PageView("home", "/", "", "")
	d.Lifecycle("login")
	d.CartAction(domain.CartEvent{Action: domain.CartActionAdd})
	d.Close()

	if len(sink.user)+len(sink.carts) != 0 {
		t.Fatalf("delivered %d/%d events without a session", len(sink.user), len(sink.carts))
	}
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	sink := &fakeSink{err: errors.New("backend down")}
	d := newTestDispatcher(sink, "sess-1", "")

	d.Lifecycle("logout")
	d.OrderLifecycle(domain.OrderEvent{OrderID: "ORD-1", Action: domain.OrderActionPlaced})
	d.Close()

	// Both attempts reached the sink; neither failure surfaced anywhere.
	if len(sink.user) != 1 || len(sink.order) != 1 {
		t.Fatalf("delivered %d/%d events", len(sink.user), len(sink.order))
	}
}

func TestFullQueueDropsNewestEmits(t *testing.T) {
	release := make(chan struct{})
	sink := &fakeSink{block: release}
	d := NewDispatcher(sink,
		func() string { return "sess-1" },
		nil,
		zerolog.Nop(), Options{QueueSize: 1})

	// The worker takes the first emit off the queue and parks inside the
	// sink until release is closed.
	d.Lifecycle("login")
	deadline := time.Now().Add(time.Second)
	for len(d.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	// One emit fills the queue; the rest have nowhere to go.
	d.Lifecycle("login")
	d.Lifecycle("login")
	d.Lifecycle("login")

	close(release)
	d.Close()

	if got := len(sink.user); got != 2 {
		t.Fatalf("delivered %d events, want 2 (overflow dropped)", got)
	}
}

func TestViewTrackerFiresImmediateAndDurationedOnce(t *testing.T) {
	sink := &fakeSink{}
	d := newTestDispatcher(sink, "sess-1", "u-1")

	v := d.StartView(ViewParams{
		ProductID:   "p-1",
		ProductName: "Aurora 14 Laptop",
		Category:    "Electronics",
		Price:       999,
		Source:      domain.SourceSearch,
		SearchQuery: "laptop",
	})
	v.Finish()
	v.Finish()
	d.Close()

	if len(sink.views) != 2 {
		t.Fatalf("delivered %d view events, want 2", len(sink.views))
	}
	first, second := sink.views[0], sink.views[1]
	if first.ViewDurationMs != nil {
		t.Fatalf("immediate event has duration %v", *first.ViewDurationMs)
	}
	if second.ViewDurationMs == nil || *second.ViewDurationMs < 0 {
		t.Fatalf("durationed event = %+v", second)
	}
	if second.ProductID != "p-1" || second.SearchQuery != "laptop" {
		t.Fatalf("event = %+v", second)
	}
}
