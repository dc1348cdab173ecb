package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/api"
	"github.com/cartiq/cartiq-go/internal/domain"
)

// CatalogAPI is the backend surface the listing controller depends on. The
// active filter decides which endpoint serves a page.
type CatalogAPI interface {
	Products(ctx context.Context, page, size int, sort string) (*domain.Page[domain.Product], error)
	SearchProducts(ctx context.Context, query string, page, size int, filter api.ProductFilter) (*domain.Page[domain.Product], error)
	ProductsByCategory(ctx context.Context, categoryID string, page, size int, sort string) (*domain.Page[domain.Product], error)
	ProductsByPriceRange(ctx context.Context, minPrice, maxPrice *float64, page, size int) (*domain.Page[domain.Product], error)
	FeaturedProducts(ctx context.Context, page, size int) (*domain.Page[domain.Product], error)
}

// Filter selects the product set a listing shows. Precedence when several
// fields are set: search, then category, then price range, then featured.
type Filter struct {
	Search     string
	CategoryID string
	Sort       string
	MinPrice   *float64
	MaxPrice   *float64
	MinRating  *float64
	Featured   bool
}

// ListingController drives an append-only, paginated product listing with
// one-page-ahead prefetch. Every filter change bumps a generation counter;
// responses carrying a stale generation are discarded wholesale, so a slow
// fetch for an abandoned filter can never leak rows into the new listing.
type ListingController struct {
	api      CatalogAPI
	pageSize int
	log      zerolog.Logger

	mu          sync.Mutex
	filter      Filter
	gen         uint64
	items       []domain.Product
	total       int
	page        int
	loaded      bool
	loading     bool
	loadingMore bool

	prefetching  bool
	prefetchPage int
	prefetched   *domain.Page[domain.Product]

	// spawn runs the background prefetch; tests replace it to run inline.
	spawn func(fn func())

	notifier notifier
}

// NewListingController returns a controller with no filter applied; call
// SetFilter (or Reload) to populate it.
func NewListingController(catalog CatalogAPI, pageSize int, log zerolog.Logger) *ListingController {
	return &ListingController{
		api:      catalog,
		pageSize: pageSize,
		log:      log,
		spawn:    func(fn func()) { go fn() },
	}
}

// Items returns the accumulated rows in load order.
func (l *ListingController) Items() []domain.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Product, len(l.items))
	copy(out, l.items)
	return out
}

// Total returns the backend-reported total row count for the active filter.
func (l *ListingController) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Filter returns the active filter.
func (l *ListingController) Filter() Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Loading reports whether the initial page for the active filter is in
// flight.
func (l *ListingController) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// LoadingMore reports whether an incremental page fetch is in flight.
func (l *ListingController) LoadingMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadingMore
}

// HasMore reports whether rows remain beyond what has been loaded. Derived
// from the reported total, never stored.
func (l *ListingController) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMoreLocked()
}

func (l *ListingController) hasMoreLocked() bool {
	return l.loaded && len(l.items) < l.total
}

// ShouldLoadMore is the gate the embedding UI checks when the end of the
// listing scrolls into view: more rows exist and nothing is in flight.
func (l *ListingController) ShouldLoadMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMoreLocked() && !l.loading && !l.loadingMore
}

// Subscribe registers fn to run after every listing change and returns a
// cancel func.
func (l *ListingController) Subscribe(fn func()) func() { return l.notifier.subscribe(fn) }

// SetFilter replaces the active filter, discards all accumulated rows and
// loads the first page. Any in-flight fetch for the previous filter is
// invalidated by the generation bump.
func (l *ListingController) SetFilter(ctx context.Context, f Filter) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.filter = f
	l.items = nil
	l.total = 0
	l.page = 0
	l.loaded = false
	l.loading = true
	l.prefetched = nil
	l.mu.Unlock()
	l.notifier.broadcast()

	page, err := l.fetch(ctx, f, 0)

	l.mu.Lock()
	l.loading = false
	if gen != l.gen {
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		l.mu.Unlock()
		l.notifier.broadcast()
		return err
	}
	l.items = append([]domain.Product(nil), page.Content...)
	l.total = page.TotalElements
	l.page = 0
	l.loaded = true
	hasMore := l.hasMoreLocked()
	l.mu.Unlock()
	l.notifier.broadcast()

	if hasMore {
		l.primePrefetch(ctx, gen)
	}
	return nil
}

// Reload re-fetches the current filter from the first page.
func (l *ListingController) Reload(ctx context.Context) error {
	return l.SetFilter(ctx, l.Filter())
}

// LoadMore appends the next page. When the prefetch buffer holds that page it
// is consumed without a network round trip and the following page is primed;
// otherwise the fetch happens inline. Calls while ShouldLoadMore is false are
// no-ops.
func (l *ListingController) LoadMore(ctx context.Context) error {
	l.mu.Lock()
	if !l.hasMoreLocked() || l.loading || l.loadingMore {
		l.mu.Unlock()
		return nil
	}
	gen := l.gen
	next := l.page + 1

	if l.prefetched != nil && l.prefetchPage == next {
		l.items = append(l.items, l.prefetched.Content...)
		l.total = l.prefetched.TotalElements
		l.page = next
		l.prefetched = nil
		hasMore := l.hasMoreLocked()
		l.mu.Unlock()
		l.notifier.broadcast()
		if hasMore {
			l.primePrefetch(ctx, gen)
		}
		return nil
	}

	l.loadingMore = true
	filter := l.filter
	l.mu.Unlock()
	l.notifier.broadcast()

	page, err := l.fetch(ctx, filter, next)

	l.mu.Lock()
	l.loadingMore = false
	if gen != l.gen {
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		l.mu.Unlock()
		l.notifier.broadcast()
		return err
	}
	l.items = append(l.items, page.Content...)
	l.total = page.TotalElements
	l.page = next
	hasMore := l.hasMoreLocked()
	l.mu.Unlock()
	l.notifier.broadcast()

	if hasMore {
		l.primePrefetch(ctx, gen)
	}
	return nil
}

// primePrefetch starts a single background fetch of the page after the
// current one. The single-flight guard and the buffer slot share the
// controller lock, so a consumed buffer and a new prefetch can never race.
func (l *ListingController) primePrefetch(ctx context.Context, gen uint64) {
	l.mu.Lock()
	if gen != l.gen || l.prefetching || l.prefetched != nil || !l.hasMoreLocked() {
		l.mu.Unlock()
		return
	}
	l.prefetching = true
	target := l.page + 1
	filter := l.filter
	l.mu.Unlock()

	l.spawn(func() {
		page, err := l.fetch(ctx, filter, target)
		l.mu.Lock()
		l.prefetching = false
		if gen != l.gen {
			l.mu.Unlock()
			return
		}
		if err != nil {
			// Next LoadMore falls back to an inline fetch.
			l.log.Debug().Err(err).Int("page", target).Msg("prefetch failed")
			l.mu.Unlock()
			return
		}
		l.prefetchPage = target
		l.prefetched = page
		l.mu.Unlock()
	})
}

// fetch routes one page request to the endpoint the filter selects.
func (l *ListingController) fetch(ctx context.Context, f Filter, page int) (*domain.Page[domain.Product], error) {
	switch {
	case f.Search != "":
		return l.api.SearchProducts(ctx, f.Search, page, l.pageSize, api.ProductFilter{
			MinPrice:  f.MinPrice,
			MaxPrice:  f.MaxPrice,
			MinRating: f.MinRating,
		})
	case f.CategoryID != "":
		return l.api.ProductsByCategory(ctx, f.CategoryID, page, l.pageSize, f.Sort)
	case f.MinPrice != nil || f.MaxPrice != nil:
		return l.api.ProductsByPriceRange(ctx, f.MinPrice, f.MaxPrice, page, l.pageSize)
	case f.Featured:
		return l.api.FeaturedProducts(ctx, page, l.pageSize)
	default:
		return l.api.Products(ctx, page, l.pageSize, f.Sort)
	}
}
