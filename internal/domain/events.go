// Analytics event payloads. The dispatcher stamps EventID and Timestamp at
// enqueue time; everything else is supplied by the emitting component. The
// backend treats these as fire-and-forget: a 2xx with no body is the only
// expected response.

package domain

import "time"

// DeviceType classifies the client device, inferred from the user agent.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
)

// BaseEvent carries the fields common to every analytics event.
type BaseEvent struct {
	EventID   string    `json:"eventId"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Page types the analytics backend accepts for page-view events. Anything
// else is mapped to PageHome before dispatch.
const (
	PageHome     = "home"
	PageProduct  = "product"
	PageCart     = "cart"
	PageCheckout = "checkout"
	PageCategory = "category"
)

// UserEvent covers page views and auth lifecycle signals.
type UserEvent struct {
	BaseEvent
	EventType  string     `json:"eventType"` // page_view, login, logout
	PageType   string     `json:"pageType,omitempty"`
	PagePath   string     `json:"pagePath,omitempty"`
	PageURL    string     `json:"pageUrl,omitempty"`
	DeviceType DeviceType `json:"deviceType,omitempty"`
	Referrer   string     `json:"referrer,omitempty"`
}

// Sources a product view can be attributed to.
const (
	SourceSearch         = "search"
	SourceCategory       = "category"
	SourceHome           = "home"
	SourceRecommendation = "recommendation"
	SourceDirect         = "direct"
	SourceCart           = "cart"
)

// ProductViewEvent records a product detail view. ViewDurationMs is absent on
// the immediate "view started" event and set on the durationed follow-up.
type ProductViewEvent struct {
	BaseEvent
	ProductID      string  `json:"productId"`
	ProductName    string  `json:"productName"`
	Category       string  `json:"category,omitempty"`
	Price          float64 `json:"price"`
	Source         string  `json:"source,omitempty"`
	SearchQuery    string  `json:"searchQuery,omitempty"`
	ViewDurationMs *int64  `json:"viewDurationMs,omitempty"`
}

// Cart event actions, lowercase per the backend enum.
const (
	CartActionAdd            = "add"
	CartActionRemove         = "remove"
	CartActionUpdateQuantity = "update_quantity"
	CartActionClear          = "clear"
)

// CartEvent records a cart mutation together with the cart's post-mutation
// totals.
type CartEvent struct {
	BaseEvent
	Action        string  `json:"action"`
	ProductID     string  `json:"productId,omitempty"`
	ProductName   string  `json:"productName,omitempty"`
	Category      string  `json:"category,omitempty"`
	Quantity      int     `json:"quantity,omitempty"`
	PrevQuantity  int     `json:"previousQuantity,omitempty"`
	Price         float64 `json:"price,omitempty"`
	CartTotal     float64 `json:"cartTotal"`
	CartItemCount int     `json:"cartItemCount"`
}

// Order lifecycle actions.
const (
	OrderActionPlaced    = "placed"
	OrderActionCancelled = "cancelled"
	OrderActionCompleted = "completed"
)

// OrderEventItem is one order line inside an OrderEvent, enriched with the
// category from the client-side category map when known.
type OrderEventItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Category    string  `json:"category,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// OrderEvent records an order lifecycle transition.
type OrderEvent struct {
	BaseEvent
	Action        string           `json:"action"`
	OrderID       string           `json:"orderId"`
	OrderNumber   string           `json:"orderNumber"`
	Items         []OrderEventItem `json:"items"`
	Subtotal      float64          `json:"subtotal"`
	Discount      float64          `json:"discount"`
	Total         float64          `json:"total"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
	Status        string           `json:"status,omitempty"`
	ShippingCity  string           `json:"shippingCity,omitempty"`
	ShippingState string           `json:"shippingState,omitempty"`
}

// ProfileEvent is a point-in-time snapshot of a user's shopping profile,
// emitted after order completion for downstream personalization.
type ProfileEvent struct {
	BaseEvent
	TopCategories      []string `json:"topCategories,omitempty"`
	MinPricePreference *float64 `json:"minPricePreference,omitempty"`
	MaxPricePreference *float64 `json:"maxPricePreference,omitempty"`
	TotalOrders        int      `json:"totalOrders"`
	TotalSpent         float64  `json:"totalSpent"`
}

// NormalizePageType maps an arbitrary client page label onto the closed set
// the analytics backend accepts. Unknown labels fall back to PageHome.
func NormalizePageType(pageType string) string {
	switch pageType {
	case PageHome, PageProduct, PageCart, PageCheckout, PageCategory:
		return pageType
	}
	switch pageType {
	case "products", "PRODUCTS", "PRODUCT":
		return PageProduct
	case "CART":
		return PageCart
	case "CHECKOUT":
		return PageCheckout
	case "CATEGORY":
		return PageCategory
	}
	return PageHome
}
