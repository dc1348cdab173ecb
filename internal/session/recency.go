package session

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/state"
)

// MaxRecent caps each recency buffer.
const MaxRecent = 10

// Ephemeral-store keys for the two buffers.
const (
	recentProductsKey   = "cartiq_recent_products"
	recentCategoriesKey = "cartiq_recent_categories"
)

// Recency tracks the recently viewed product ids and category names used to
// personalize chat and recommendations. Both buffers are bounded at
// MaxRecent, deduplicated, and ordered most-recent-first; re-touching an
// existing entry moves it to the front without changing length.
//
// Buffers are JSON-encoded into the ephemeral store after every mutation so a
// reload within the same client session picks them up. Storage failures are
// logged at debug and the buffers carry on in memory.
type Recency struct {
	mu         sync.Mutex
	store      state.EphemeralStore
	log        zerolog.Logger
	products   []string
	categories []string
}

// NewRecency returns buffers seeded from the ephemeral store when previous
// values exist.
func NewRecency(store state.EphemeralStore, log zerolog.Logger) *Recency {
	r := &Recency{store: store, log: log}
	r.products = r.load(recentProductsKey)
	r.categories = r.load(recentCategoriesKey)
	return r
}

// TouchProduct records a product view, moving the id to the front.
func (r *Recency) TouchProduct(productID string) {
	if productID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = pushFront(r.products, productID)
	r.persist(recentProductsKey, r.products)
}

// TouchCategory records a category view, moving the name to the front.
func (r *Recency) TouchCategory(category string) {
	if category == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = pushFront(r.categories, category)
	r.persist(recentCategoriesKey, r.categories)
}

// ProductIDs returns a copy of the product buffer, most recent first.
func (r *Recency) ProductIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.products...)
}

// Categories returns a copy of the category buffer, most recent first.
func (r *Recency) Categories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.categories...)
}

// pushFront implements the buffer discipline: dedupe, move-to-front, cap.
func pushFront(buf []string, v string) []string {
	out := make([]string, 0, len(buf)+1)
	out = append(out, v)
	for _, x := range buf {
		if x != v {
			out = append(out, x)
		}
	}
	if len(out) > MaxRecent {
		out = out[:MaxRecent]
	}
	return out
}

func (r *Recency) load(key string) []string {
	raw, err := r.store.Get(key)
	if err != nil || raw == "" {
		return nil
	}
	var buf []string
	if err := json.Unmarshal([]byte(raw), &buf); err != nil {
		r.log.Debug().Err(err).Str("key", key).Msg("discarding corrupt recency buffer")
		return nil
	}
	if len(buf) > MaxRecent {
		buf = buf[:MaxRecent]
	}
	return buf
}

func (r *Recency) persist(key string, buf []string) {
	raw, err := json.Marshal(buf)
	if err == nil {
		err = r.store.Set(key, string(raw))
	}
	if err != nil {
		r.log.Debug().Err(err).Str("key", key).Msg("recency buffer not persisted")
	}
}
