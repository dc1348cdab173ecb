package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
)

type fakeOrderAPI struct {
	order  *domain.Order
	err    error
	orders *domain.Page[domain.Order]

	details   map[string]*domain.Order
	detailIDs []string

	prefs    *domain.UserPreference
	prefsErr error

	products    []domain.Product
	productsErr error
	batchIDs    []string

	cancelID string
}

func (f *fakeOrderAPI) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	return f.order, f.err
}
func (f *fakeOrderAPI) Orders(ctx context.Context, page, size int, status string) (*domain.Page[domain.Order], error) {
	if f.orders == nil {
		return nil, errors.New("no history")
	}
	return f.orders, nil
}
func (f *fakeOrderAPI) Order(ctx context.Context, id string) (*domain.Order, error) {
	f.detailIDs = append(f.detailIDs, id)
	if f.details != nil {
		if d, ok := f.details[id]; ok {
			return d, nil
		}
		return nil, errors.New("no such order")
	}
	return f.order, f.err
}
func (f *fakeOrderAPI) OrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return f.order, f.err
}
func (f *fakeOrderAPI) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	f.cancelID = id
	return f.order, f.err
}
func (f *fakeOrderAPI) Preferences(ctx context.Context) (*domain.UserPreference, error) {
	return f.prefs, f.prefsErr
}
func (f *fakeOrderAPI) ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	f.batchIDs = ids
	return f.products, f.productsErr
}

type orderEventRecorder struct {
	orders   []domain.OrderEvent
	profiles []domain.ProfileEvent
}

func (r *orderEventRecorder) OrderLifecycle(ev domain.OrderEvent) { r.orders = append(r.orders, ev) }
func (r *orderEventRecorder) ProfileSnapshot(ev domain.ProfileEvent) {
	r.profiles = append(r.profiles, ev)
}

type staticCategories map[string]string

func (c staticCategories) CategoryFor(productID string) string { return c[productID] }

func placedOrder() *domain.Order {
	return &domain.Order{
		ID:          "ord-1",
		OrderNumber: "ORD-1001",
		Items: []domain.OrderItem{
			{ProductID: "p-1", ProductName: "Laptop", UnitPrice: 999, Quantity: 1},
			{ProductID: "p-2", ProductName: "Mouse", UnitPrice: 25, Quantity: 2},
		},
		Status:       domain.OrderPending,
		Subtotal:     1049,
		TotalAmount:  1103,
		ShippingCity: "Pune",
	}
}

func TestCreateEmitsPlacedEventWithCategories(t *testing.T) {
	api := &fakeOrderAPI{order: placedOrder()}
	rec := &orderEventRecorder{}
	cats := staticCategories{"p-1": "Electronics"}
	s := NewOrderService(api, rec, cats, zerolog.Nop())

	order, err := s.Create(context.Background(), domain.CreateOrderRequest{})
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if order.ID != "ord-1" {
		t.Fatalf("order = %+v", order)
	}
	if len(rec.orders) != 1 {
		t.Fatalf("order events = %d; want 1", len(rec.orders))
	}
	ev := rec.orders[0]
	if ev.Action != domain.OrderActionPlaced || ev.OrderID != "ord-1" || ev.Total != 1103 {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.Items) != 2 || ev.Items[0].Category != "Electronics" || ev.Items[1].Category != "" {
		t.Errorf("event items = %+v", ev.Items)
	}
}

func TestCreateFailureEmitsNothing(t *testing.T) {
	api := &fakeOrderAPI{err: errors.New("card declined")}
	rec := &orderEventRecorder{}
	s := NewOrderService(api, rec, nil, zerolog.Nop())

	if _, err := s.Create(context.Background(), domain.CreateOrderRequest{}); err == nil {
		t.Fatal("Create error = nil; want failure")
	}
	if len(rec.orders) != 0 || len(rec.profiles) != 0 {
		t.Errorf("events emitted on failure: %v %v", rec.orders, rec.profiles)
	}
}

func TestCreateSucceedsDespiteProfileSnapshotFailure(t *testing.T) {
	api := &fakeOrderAPI{order: placedOrder(), orders: nil} // history fetch fails
	rec := &orderEventRecorder{}
	s := NewOrderService(api, rec, nil, zerolog.Nop())

	if _, err := s.Create(context.Background(), domain.CreateOrderRequest{}); err != nil {
		t.Fatalf("Create error = %v; want nil despite snapshot failure", err)
	}
	if len(rec.orders) != 1 {
		t.Errorf("placed event missing")
	}
	if len(rec.profiles) != 0 {
		t.Errorf("profile event emitted despite history failure: %+v", rec.profiles)
	}
}

func TestProfileSnapshotAggregatesHistory(t *testing.T) {
	min, max := 100.0, 2000.0
	api := &fakeOrderAPI{
		order: placedOrder(),
		orders: &domain.Page[domain.Order]{
			Content: []domain.Order{
				{TotalAmount: 500, Items: []domain.OrderItem{{ProductID: "p-1", Quantity: 3}}},
				{TotalAmount: 300, Items: []domain.OrderItem{{ProductID: "p-2", Quantity: 1}}},
				{TotalAmount: 999, Status: domain.OrderCancelled, Items: []domain.OrderItem{{ProductID: "p-3", Quantity: 9}}},
			},
			TotalElements: 2,
		},
		prefs: &domain.UserPreference{MinPricePreference: &min, MaxPricePreference: &max},
		products: []domain.Product{
			{ID: "p-1", CategoryName: "Electronics"},
			{ID: "p-2", CategoryName: "Accessories"},
		},
	}
	rec := &orderEventRecorder{}
	s := NewOrderService(api, rec, nil, zerolog.Nop())

	if _, err := s.Create(context.Background(), domain.CreateOrderRequest{}); err != nil {
		t.Fatal(err)
	}
	if len(rec.profiles) != 1 {
		t.Fatalf("profile events = %d; want 1", len(rec.profiles))
	}
	ev := rec.profiles[0]
	if ev.TotalOrders != 2 || ev.TotalSpent != 800 {
		t.Errorf("totals = %d/%v; cancelled orders must not count spend", ev.TotalOrders, ev.TotalSpent)
	}
	// Electronics weighted 3, Accessories 1.
	if !reflect.DeepEqual(ev.TopCategories, []string{"Electronics", "Accessories"}) {
		t.Errorf("TopCategories = %v", ev.TopCategories)
	}
	if ev.MinPricePreference == nil || *ev.MinPricePreference != 100 {
		t.Errorf("MinPricePreference = %v", ev.MinPricePreference)
	}
	// The cancelled order's product is excluded from the batch lookup.
	if !reflect.DeepEqual(api.batchIDs, []string{"p-1", "p-2"}) {
		t.Errorf("batch ids = %v", api.batchIDs)
	}
}

func TestProfileSnapshotFetchesDetailsForItemlessListEntries(t *testing.T) {
	// List entries carry no line items; details must be fetched per order
	// before categories can be weighted.
	api := &fakeOrderAPI{
		order: placedOrder(),
		orders: &domain.Page[domain.Order]{
			Content: []domain.Order{
				{ID: "ord-1", TotalAmount: 500},
				{ID: "ord-2", TotalAmount: 300},
				{ID: "ord-3", TotalAmount: 999, Status: domain.OrderCancelled},
			},
			TotalElements: 3,
		},
		details: map[string]*domain.Order{
			"ord-1": {ID: "ord-1", Items: []domain.OrderItem{{ProductID: "p-1", Quantity: 3}}},
			"ord-2": {ID: "ord-2", Items: []domain.OrderItem{{ProductID: "p-2", Quantity: 1}}},
		},
		products: []domain.Product{
			{ID: "p-1", CategoryName: "Electronics"},
			{ID: "p-2", CategoryName: "Accessories"},
		},
		prefsErr: errors.New("no prefs"),
	}
	rec := &orderEventRecorder{}
	s := NewOrderService(api, rec, nil, zerolog.Nop())

	s.snapshotProfile(context.Background())

	// Cancelled orders never trigger a detail fetch.
	if !reflect.DeepEqual(api.detailIDs, []string{"ord-1", "ord-2"}) {
		t.Fatalf("detail fetches = %v", api.detailIDs)
	}
	if len(rec.profiles) != 1 {
		t.Fatalf("profile events = %d; want 1", len(rec.profiles))
	}
	ev := rec.profiles[0]
	if !reflect.DeepEqual(ev.TopCategories, []string{"Electronics", "Accessories"}) {
		t.Errorf("TopCategories = %v", ev.TopCategories)
	}
	if ev.TotalSpent != 800 {
		t.Errorf("TotalSpent = %v", ev.TotalSpent)
	}
}

func TestProfileSnapshotSurvivesDetailFetchFailure(t *testing.T) {
	api := &fakeOrderAPI{
		order: placedOrder(),
		orders: &domain.Page[domain.Order]{
			Content:       []domain.Order{{ID: "ord-gone", TotalAmount: 500}},
			TotalElements: 1,
		},
		details:  map[string]*domain.Order{}, // every detail fetch fails
		prefsErr: errors.New("no prefs"),
	}
	rec := &orderEventRecorder{}
	s := NewOrderService(api, rec, nil, zerolog.Nop())

	s.snapshotProfile(context.Background())

	if len(rec.profiles) != 1 {
		t.Fatalf("profile events = %d; want 1", len(rec.profiles))
	}
	ev := rec.profiles[0]
	// The order still counts toward the totals; only enrichment degrades.
	if ev.TotalSpent != 500 || ev.TotalOrders != 1 {
		t.Errorf("totals = %v/%d", ev.TotalSpent, ev.TotalOrders)
	}
	if len(ev.TopCategories) != 0 {
		t.Errorf("TopCategories = %v; want none", ev.TopCategories)
	}
}

func TestCancelEmitsCancelledEvent(t *testing.T) {
	cancelled := placedOrder()
	cancelled.Status = domain.OrderCancelled
	api := &fakeOrderAPI{order: cancelled}
	rec := &orderEventRecorder{}
	s := NewOrderService(api, rec, nil, zerolog.Nop())

	if _, err := s.Cancel(context.Background(), "ord-1"); err != nil {
		t.Fatalf("Cancel error = %v", err)
	}
	if api.cancelID != "ord-1" {
		t.Fatalf("backend cancelled %q", api.cancelID)
	}
	if len(rec.orders) != 1 || rec.orders[0].Action != domain.OrderActionCancelled {
		t.Errorf("events = %+v", rec.orders)
	}
	if len(rec.profiles) != 0 {
		t.Error("profile snapshot must not run on cancel")
	}
}
