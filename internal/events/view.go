package events

import (
	"sync"
	"time"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// ViewParams identifies the product whose view is being timed.
type ViewParams struct {
	ProductID   string
	ProductName string
	Category    string
	Price       float64
	Source      string
	SearchQuery string
}

// ViewTracker times one product detail view.
//
// StartView emits a duration-free "view started" event immediately, so a fast
// navigation away still produces a record. Finish emits the durationed
// follow-up exactly once no matter how many of the possible endings (tab
// hidden, navigation, unmount) invoke it; later calls are no-ops.
type ViewTracker struct {
	d      *Dispatcher
	params ViewParams
	start  time.Time

	mu      sync.Mutex
	tracked bool
}

// StartView records the view start and returns the tracker for the eventual
// Finish call.
func (d *Dispatcher) StartView(p ViewParams) *ViewTracker {
	d.productView(viewEvent(p, nil))
	return &ViewTracker{d: d, params: p, start: time.Now()}
}

// Finish emits the durationed view event. Only the first call has effect.
func (v *ViewTracker) Finish() {
	v.mu.Lock()
	if v.tracked {
		v.mu.Unlock()
		return
	}
	v.tracked = true
	v.mu.Unlock()

	dur := time.Since(v.start).Milliseconds()
	v.d.productView(viewEvent(v.params, &dur))
}

func viewEvent(p ViewParams, durationMs *int64) domain.ProductViewEvent {
	return domain.ProductViewEvent{
		ProductID:      p.ProductID,
		ProductName:    p.ProductName,
		Category:       p.Category,
		Price:          p.Price,
		Source:         p.Source,
		SearchQuery:    p.SearchQuery,
		ViewDurationMs: durationMs,
	}
}
