// Package domain defines the wire-level data transfer objects exchanged with
// the CartIQ backend: users, products, categories, carts, orders, and chat
// turns. All types mirror the backend's JSON contract; none of them carry
// client-side behavior beyond small derived accessors. Monetary amounts are
// server-computed and never recalculated locally.
package domain

import "time"

// User is the authenticated identity returned by the auth and profile
// endpoints.
type User struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	FirstName  string          `json:"firstName"`
	LastName   string          `json:"lastName"`
	Phone      string          `json:"phone,omitempty"`
	Role       string          `json:"role"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Preference *UserPreference `json:"preference,omitempty"`
}

// UserPreference holds per-user personalization settings.
type UserPreference struct {
	ID                  string   `json:"id"`
	MinPricePreference  *float64 `json:"minPricePreference,omitempty"`
	MaxPricePreference  *float64 `json:"maxPricePreference,omitempty"`
	PreferredCategories []string `json:"preferredCategories"`
	PreferredBrands     []string `json:"preferredBrands"`
	EmailNotifications  bool     `json:"emailNotifications"`
	PushNotifications   bool     `json:"pushNotifications"`
	Currency            string   `json:"currency"`
	Language            string   `json:"language"`
}

// AuthResponse is the payload returned by login and register. AccessToken is
// the bearer credential the client persists durably.
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
	User        User   `json:"user"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// Product is a catalog entry.
type Product struct {
	ID             string    `json:"id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	CompareAtPrice *float64  `json:"compareAtPrice,omitempty"`
	Currency       string    `json:"currency"`
	StockQuantity  int       `json:"stockQuantity"`
	Brand          string    `json:"brand,omitempty"`
	CategoryID     string    `json:"categoryId,omitempty"`
	CategoryName   string    `json:"categoryName,omitempty"`
	ImageURLs      []string  `json:"imageUrls"`
	ThumbnailURL   string    `json:"thumbnailUrl,omitempty"`
	Rating         float64   `json:"rating"`
	ReviewCount    int       `json:"reviewCount"`
	Status         string    `json:"status"`
	Featured       bool      `json:"featured"`
	InStock        bool      `json:"inStock"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Category is a node in the catalog taxonomy.
type Category struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	ImageURL         string     `json:"imageUrl,omitempty"`
	ParentCategoryID string     `json:"parentCategoryId,omitempty"`
	Active           bool       `json:"active"`
	ProductCount     int        `json:"productCount"`
	SubCategories    []Category `json:"subCategories,omitempty"`
}

// Pageable describes the requested page inside a paginated envelope.
type Pageable struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// Page is the backend's paginated envelope. Page indexes are 0-based.
type Page[T any] struct {
	Content          []T       `json:"content"`
	TotalElements    int       `json:"totalElements"`
	TotalPages       int       `json:"totalPages"`
	NumberOfElements int       `json:"numberOfElements"`
	First            bool      `json:"first"`
	Last             bool      `json:"last"`
	Pageable         *Pageable `json:"pageable,omitempty"`
}

// CartLine is one line item inside a cart snapshot. Subtotal is
// server-computed.
type CartLine struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	ProductName  string    `json:"productName"`
	UnitPrice    float64   `json:"unitPrice"`
	Quantity     int       `json:"quantity"`
	Subtotal     float64   `json:"subtotal"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Cart is the authoritative cart snapshot. The client always replaces its
// copy wholesale with the backend response; totals are never recomputed
// locally.
type Cart struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Items       []CartLine `json:"items"`
	TotalAmount float64    `json:"totalAmount"`
	TotalItems  int        `json:"totalItems"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Line returns the cart line with the given line id, or nil.
func (c *Cart) Line(lineID string) *CartLine {
	if c == nil {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			return &c.Items[i]
		}
	}
	return nil
}

// ProductIDs returns the product ids of all lines, in cart order.
func (c *Cart) ProductIDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.ProductID)
	}
	return out
}

// AddToCartRequest is the body for adding a product to the cart.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest is the body for changing a line's quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// OrderItem is one line of a placed order. Only present in the detail
// response, not in list responses.
type OrderItem struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	ProductSKU   string  `json:"productSku"`
	ProductName  string  `json:"productName"`
	UnitPrice    float64 `json:"unitPrice"`
	Quantity     int     `json:"quantity"`
	Subtotal     float64 `json:"subtotal"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
}

// Order statuses as the backend reports them.
const (
	OrderPending   = "PENDING"
	OrderConfirmed = "CONFIRMED"
	OrderShipped   = "SHIPPED"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// Order is a placed order with server-computed totals.
type Order struct {
	ID              string      `json:"id"`
	OrderNumber     string      `json:"orderNumber"`
	UserID          string      `json:"userId"`
	Items           []OrderItem `json:"items,omitempty"`
	Status          string      `json:"status"`
	PaymentStatus   string      `json:"paymentStatus"`
	Subtotal        float64     `json:"subtotal"`
	ShippingCost    float64     `json:"shippingCost"`
	Tax             float64     `json:"tax"`
	TotalAmount     float64     `json:"totalAmount"`
	TotalQuantity   int         `json:"totalQuantity"`
	ShippingAddress string      `json:"shippingAddress"`
	ShippingCity    string      `json:"shippingCity"`
	ShippingState   string      `json:"shippingState,omitempty"`
	ShippingZipCode string      `json:"shippingZipCode"`
	ShippingCountry string      `json:"shippingCountry"`
	ContactPhone    string      `json:"contactPhone"`
	Notes           string      `json:"notes,omitempty"`
	Cancellable     bool        `json:"cancellable"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// CreateOrderRequest carries the shipping and contact fields for checkout.
type CreateOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	ShippingCity    string `json:"shippingCity"`
	ShippingState   string `json:"shippingState,omitempty"`
	ShippingZipCode string `json:"shippingZipCode"`
	ShippingCountry string `json:"shippingCountry"`
	ContactPhone    string `json:"contactPhone"`
	Notes           string `json:"notes,omitempty"`
}

// Roles for chat transcript messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatProduct is a product card attached to an assistant reply.
type ChatProduct struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand,omitempty"`
	Price        float64 `json:"price"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	CategoryName string  `json:"categoryName,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// ChatMessage is one utterance in the client-side transcript.
type ChatMessage struct {
	ID        string        `json:"id"`
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Products  []ChatProduct `json:"products,omitempty"`
}

// ChatRequest is a single turn sent to the backend assistant, including the
// contextual signals used for personalization.
type ChatRequest struct {
	Message                  string   `json:"message"`
	UserID                   string   `json:"userId,omitempty"`
	RecentlyViewedProductIDs []string `json:"recentlyViewedProductIds,omitempty"`
	RecentCategories         []string `json:"recentCategories,omitempty"`
	CartProductIDs           []string `json:"cartProductIds,omitempty"`
	CartTotal                *float64 `json:"cartTotal,omitempty"`
}

// ChatResponse is the assistant's reply. SessionID is assigned by the backend
// on the first turn and must be echoed on all subsequent turns.
type ChatResponse struct {
	Message   string        `json:"message"`
	Products  []ChatProduct `json:"products,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
}

// SuggestionsResponse carries personalized product suggestions.
type SuggestionsResponse struct {
	Products []Product `json:"products"`
	Source   string    `json:"source,omitempty"`
}
