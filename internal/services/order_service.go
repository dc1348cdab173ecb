package services

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// profileOrderSample caps how much order history the profile snapshot reads.
const profileOrderSample = 100

// topCategoryCount is how many categories the profile snapshot reports.
const topCategoryCount = 5

// OrderAPI is the backend surface the order service depends on. Preferences
// and ProductsByIDs feed the post-checkout profile snapshot.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	Orders(ctx context.Context, page, size int, status string) (*domain.Page[domain.Order], error)
	Order(ctx context.Context, id string) (*domain.Order, error)
	OrderByNumber(ctx context.Context, number string) (*domain.Order, error)
	CancelOrder(ctx context.Context, id string) (*domain.Order, error)
	Preferences(ctx context.Context) (*domain.UserPreference, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

// OrderEvents receives order lifecycle and profile analytics. Satisfied by
// *events.Dispatcher; may be nil when analytics are disabled.
type OrderEvents interface {
	OrderLifecycle(ev domain.OrderEvent)
	ProfileSnapshot(ev domain.ProfileEvent)
}

// CategorySource maps a product id to its category, best effort. The cart
// service provides this from products it has seen added.
type CategorySource interface {
	CategoryFor(productID string) string
}

// OrderService places and cancels orders and emits the corresponding
// analytics. Checkout success additionally publishes a shopping-profile
// snapshot computed from the user's order history; that computation is best
// effort and can never fail the checkout itself.
type OrderService struct {
	api        OrderAPI
	events     OrderEvents
	categories CategorySource
	log        zerolog.Logger
}

// NewOrderService wires an order service. categories may be nil.
func NewOrderService(api OrderAPI, ev OrderEvents, categories CategorySource, log zerolog.Logger) *OrderService {
	return &OrderService{api: api, events: ev, categories: categories, log: log}
}

// Create places an order. On success a "placed" lifecycle event is emitted
// with per-item category enrichment, then the profile snapshot runs. Both are
// best effort; the returned order reflects only the checkout call.
func (s *OrderService) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	order, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.OrderLifecycle(s.lifecycleEvent(domain.OrderActionPlaced, order))
		s.snapshotProfile(ctx)
	}
	return order, nil
}

// Cancel cancels an order and emits a "cancelled" lifecycle event.
func (s *OrderService) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.api.CancelOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.OrderLifecycle(s.lifecycleEvent(domain.OrderActionCancelled, order))
	}
	return order, nil
}

// List returns a page of the user's orders, optionally filtered by status.
func (s *OrderService) List(ctx context.Context, page, size int, status string) (*domain.Page[domain.Order], error) {
	return s.api.Orders(ctx, page, size, status)
}

// Get returns one order by id.
func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.api.Order(ctx, id)
}

// GetByNumber returns one order by its human-facing order number.
func (s *OrderService) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.api.OrderByNumber(ctx, number)
}

func (s *OrderService) lifecycleEvent(action string, order *domain.Order) domain.OrderEvent {
	items := make([]domain.OrderEventItem, 0, len(order.Items))
	for _, it := range order.Items {
		var category string
		if s.categories != nil {
			category = s.categories.CategoryFor(it.ProductID)
		}
		items = append(items, domain.OrderEventItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Category:    category,
			Quantity:    it.Quantity,
			Price:       it.UnitPrice,
		})
	}
	return domain.OrderEvent{
		Action:        action,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Items:         items,
		Subtotal:      order.Subtotal,
		Total:         order.TotalAmount,
		Status:        order.Status,
		ShippingCity:  order.ShippingCity,
		ShippingState: order.ShippingState,
	}
}

// snapshotProfile aggregates the user's order history into a profile event:
// totals across the sampled window plus the top categories weighted by
// purchased quantity. List entries omit line items, so each sampled order's
// detail is fetched before weighting; an order whose detail cannot be
// fetched still counts toward the totals. Any failure is logged and
// swallowed.
func (s *OrderService) snapshotProfile(ctx context.Context) {
	page, err := s.api.Orders(ctx, 0, profileOrderSample, "")
	if err != nil {
		s.log.Debug().Err(err).Msg("profile snapshot: order history fetch failed")
		return
	}

	var (
		totalSpent float64
		quantities = make(map[string]int)
	)
	for _, o := range page.Content {
		if o.Status == domain.OrderCancelled {
			continue
		}
		totalSpent += o.TotalAmount
		items := o.Items
		if len(items) == 0 {
			detail, err := s.api.Order(ctx, o.ID)
			if err != nil {
				s.log.Debug().Err(err).Str("order_id", o.ID).Msg("profile snapshot: order detail fetch failed")
				continue
			}
			items = detail.Items
		}
		for _, it := range items {
			quantities[it.ProductID] += it.Quantity
		}
	}

	ev := domain.ProfileEvent{
		TopCategories: s.topCategories(ctx, quantities),
		TotalOrders:   page.TotalElements,
		TotalSpent:    totalSpent,
	}
	if prefs, err := s.api.Preferences(ctx); err == nil {
		ev.MinPricePreference = prefs.MinPricePreference
		ev.MaxPricePreference = prefs.MaxPricePreference
	} else {
		s.log.Debug().Err(err).Msg("profile snapshot: preferences fetch failed")
	}
	s.events.ProfileSnapshot(ev)
}

// topCategories resolves purchased product ids to categories in one batch
// call and returns the highest-weighted ones.
func (s *OrderService) topCategories(ctx context.Context, quantities map[string]int) []string {
	if len(quantities) == 0 {
		return nil
	}
	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products, err := s.api.ProductsByIDs(ctx, ids)
	if err != nil {
		s.log.Debug().Err(err).Msg("profile snapshot: product batch fetch failed")
		return nil
	}
	weights := make(map[string]int)
	for _, p := range products {
		if p.CategoryName == "" {
			continue
		}
		weights[p.CategoryName] += quantities[p.ID]
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if weights[names[i]] != weights[names[j]] {
			return weights[names[i]] > weights[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > topCategoryCount {
		names = names[:topCategoryCount]
	}
	return names
}
