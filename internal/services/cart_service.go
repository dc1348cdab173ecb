package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// CartAPI is the backend surface the cart service depends on. Every mutation
// returns the full updated cart; Clear returns nothing and the service
// synthesizes the empty snapshot locally.
type CartAPI interface {
	Cart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, req domain.AddToCartRequest) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, itemID string, req domain.UpdateCartItemRequest) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, itemID string) (*domain.Cart, error)
	ClearCart(ctx context.Context) error
}

// CartEvents receives cart analytics. Satisfied by *events.Dispatcher; may be
// nil when analytics are disabled.
type CartEvents interface {
	CartAction(ev domain.CartEvent)
}

// AuthState is the read-only view of the auth service the cart needs.
type AuthState interface {
	IsAuthenticated() bool
}

// ItemMeta carries display attributes of a product being added to the cart.
// The backend cart snapshot does not echo the category, so the service keeps
// a product-to-category side map to enrich later analytics events.
type ItemMeta struct {
	Name     string
	Price    float64
	Category string
}

// CartService holds the authoritative cart snapshot. The snapshot is replaced
// wholesale with every backend response; totals are never recomputed locally.
// A failed mutation leaves the snapshot untouched and surfaces the backend
// error, while analytics failures are invisible here entirely.
type CartService struct {
	api    CartAPI
	events CartEvents
	auth   AuthState
	log    zerolog.Logger

	mu         sync.Mutex
	cart       *domain.Cart
	loading    bool
	categories map[string]string

	notifier notifier
}

// NewCartService returns an empty cart service; call Load to hydrate.
func NewCartService(api CartAPI, ev CartEvents, auth AuthState, log zerolog.Logger) *CartService {
	return &CartService{api: api, events: ev, auth: auth, log: log, categories: make(map[string]string)}
}

// Cart returns the current snapshot, or nil when signed out or not yet
// loaded.
func (s *CartService) Cart() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// ItemCount returns the server-reported total quantity across lines.
func (s *CartService) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return 0
	}
	return s.cart.TotalItems
}

// Loading reports whether a hydrating fetch is in progress.
func (s *CartService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CategoryFor returns the remembered category of a product previously added
// to the cart, or "".
func (s *CartService) CategoryFor(productID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories[productID]
}

// Subscribe registers fn to run after every cart change and returns a cancel
// func.
func (s *CartService) Subscribe(fn func()) func() { return s.notifier.subscribe(fn) }

// Load fetches the cart for the signed-in user. When signed out the snapshot
// is forced to nil without touching the network.
func (s *CartService) Load(ctx context.Context) error {
	if !s.auth.IsAuthenticated() {
		s.mu.Lock()
		s.cart = nil
		s.mu.Unlock()
		s.notifier.broadcast()
		return nil
	}
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.notifier.broadcast()

	cart, err := s.api.Cart(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.notifier.broadcast()
		return err
	}
	s.cart = cart
	s.mu.Unlock()
	s.notifier.broadcast()
	return nil
}

// AddItem adds quantity units of a product and replaces the snapshot with the
// backend response. The analytics event carries the post-mutation totals, so
// it is emitted only after the snapshot is replaced.
func (s *CartService) AddItem(ctx context.Context, productID string, quantity int, meta ItemMeta) error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	cart, err := s.api.AddToCart(ctx, domain.AddToCartRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cart = cart
	if meta.Category != "" {
		s.categories[productID] = meta.Category
	}
	s.mu.Unlock()
	s.notifier.broadcast()

	if s.events != nil {
		s.events.CartAction(domain.CartEvent{
			Action:        domain.CartActionAdd,
			ProductID:     productID,
			ProductName:   meta.Name,
			Category:      meta.Category,
			Quantity:      quantity,
			Price:         meta.Price,
			CartTotal:     cart.TotalAmount,
			CartItemCount: cart.TotalItems,
		})
	}
	return nil
}

// UpdateQuantity changes a line's quantity. The event records both the prior
// and the new quantity so consumers can compute the delta.
func (s *CartService) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	s.mu.Lock()
	before := s.cart.Line(lineID)
	if before == nil {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	prev := *before
	s.mu.Unlock()

	cart, err := s.api.UpdateCartItem(ctx, lineID, domain.UpdateCartItemRequest{Quantity: quantity})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()
	s.notifier.broadcast()

	if s.events != nil {
		s.events.CartAction(domain.CartEvent{
			Action:        domain.CartActionUpdateQuantity,
			ProductID:     prev.ProductID,
			ProductName:   prev.ProductName,
			Category:      s.CategoryFor(prev.ProductID),
			Quantity:      quantity,
			PrevQuantity:  prev.Quantity,
			Price:         prev.UnitPrice,
			CartTotal:     cart.TotalAmount,
			CartItemCount: cart.TotalItems,
		})
	}
	return nil
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, lineID string) error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	s.mu.Lock()
	before := s.cart.Line(lineID)
	if before == nil {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	prev := *before
	s.mu.Unlock()

	cart, err := s.api.RemoveFromCart(ctx, lineID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cart = cart
	category := s.categories[prev.ProductID]
	if cart.Line(lineID) == nil && !containsProduct(cart, prev.ProductID) {
		delete(s.categories, prev.ProductID)
	}
	s.mu.Unlock()
	s.notifier.broadcast()

	if s.events != nil {
		s.events.CartAction(domain.CartEvent{
			Action:        domain.CartActionRemove,
			ProductID:     prev.ProductID,
			ProductName:   prev.ProductName,
			Category:      category,
			Quantity:      prev.Quantity,
			Price:         prev.UnitPrice,
			CartTotal:     cart.TotalAmount,
			CartItemCount: cart.TotalItems,
		})
	}
	return nil
}

// Clear empties the cart. One event per pre-existing line attributes the
// removed revenue to its product, followed by a final clear event with zero
// totals. An already-empty cart still emits the final event so downstream
// state converges.
func (s *CartService) Clear(ctx context.Context) error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	s.mu.Lock()
	var lines []domain.CartLine
	if s.cart != nil {
		lines = append(lines, s.cart.Items...)
	}
	s.mu.Unlock()

	if err := s.api.ClearCart(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.cart != nil {
		emptied := *s.cart
		emptied.Items = nil
		emptied.TotalAmount = 0
		emptied.TotalItems = 0
		s.cart = &emptied
	}
	categories := s.categories
	s.categories = make(map[string]string)
	s.mu.Unlock()
	s.notifier.broadcast()

	if s.events != nil {
		for _, line := range lines {
			s.events.CartAction(domain.CartEvent{
				Action:      domain.CartActionClear,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Category:    categories[line.ProductID],
				Quantity:    line.Quantity,
				Price:       line.UnitPrice,
			})
		}
		s.events.CartAction(domain.CartEvent{Action: domain.CartActionClear})
	}
	return nil
}

func containsProduct(c *domain.Cart, productID string) bool {
	if c == nil {
		return false
	}
	for _, it := range c.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
