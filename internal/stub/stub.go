// Package stub implements a self-contained, in-memory storefront backend for
// local development and demos. It serves the same HTTP surface the client
// consumes: auth, catalog, cart, orders, chat and event ingestion. All state
// lives in process memory and resets on restart.
package stub

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// account is a registered user plus its password. Passwords are stored in
// plain text; this backend exists for development only.
type account struct {
	user     domain.User
	password string
	prefs    domain.UserPreference
}

// Server holds the in-memory storefront state. All exported handler methods
// are safe for concurrent use.
type Server struct {
	log zerolog.Logger

	mu        sync.Mutex
	accounts  map[string]*account // keyed by email
	tokens    map[string]string   // bearer token -> email
	carts     map[string]*domain.Cart
	orders    map[string][]domain.Order
	nextOrder int

	chatTurns map[string]int // session id -> turns served
	events    map[string]int // event family -> received count

	products   []domain.Product
	categories []domain.Category
}

// NewServer returns a server seeded with a small demo catalog.
func NewServer(log zerolog.Logger) *Server {
	s := &Server{
		log:       log,
		accounts:  make(map[string]*account),
		tokens:    make(map[string]string),
		carts:     make(map[string]*domain.Cart),
		orders:    make(map[string][]domain.Order),
		nextOrder: 1000,
		chatTurns: make(map[string]int),
		events:    make(map[string]int),
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	now := time.Now()
	s.categories = []domain.Category{
		{ID: "cat-electronics", Name: "Electronics", Active: true},
		{ID: "cat-audio", Name: "Audio", ParentCategoryID: "cat-electronics", Active: true},
		{ID: "cat-home", Name: "Home & Kitchen", Active: true},
		{ID: "cat-fitness", Name: "Fitness", Active: true},
	}

	type row struct {
		name, brand, cat string
		price            float64
		rating           float64
		featured         bool
	}
	rows := []row{
		{"Aurora 14 Laptop", "Novatech", "cat-electronics", 74999, 4.5, true},
		{"Pulse Wireless Earbuds", "Sonic", "cat-audio", 4999, 4.2, true},
		{"Thunder Over-Ear Headphones", "Sonic", "cat-audio", 8999, 4.6, false},
		{"Nimbus Smart Speaker", "Novatech", "cat-audio", 6499, 3.9, false},
		{"Ember Electric Kettle", "Hearth", "cat-home", 2299, 4.1, false},
		{"Crisp Air Fryer XL", "Hearth", "cat-home", 9499, 4.4, true},
		{"Stride Running Shoes", "Kinetic", "cat-fitness", 5999, 4.0, false},
		{"Forge Adjustable Dumbbells", "Kinetic", "cat-fitness", 12999, 4.7, false},
		{"Glide Yoga Mat", "Kinetic", "cat-fitness", 1499, 4.3, false},
		{"Volt Power Bank 20K", "Novatech", "cat-electronics", 1999, 4.0, false},
	}
	for i, r := range rows {
		var catName string
		for _, c := range s.categories {
			if c.ID == r.cat {
				catName = c.Name
			}
		}
		s.products = append(s.products, domain.Product{
			ID:            fmt.Sprintf("p-%03d", i+1),
			SKU:           fmt.Sprintf("SKU-%03d", i+1),
			Name:          r.name,
			Description:   fmt.Sprintf("%s by %s", r.name, r.brand),
			Price:         r.price,
			Currency:      "INR",
			StockQuantity: 25,
			Brand:         r.brand,
			CategoryID:    r.cat,
			CategoryName:  catName,
			Rating:        r.rating,
			ReviewCount:   10 + i*7,
			Status:        "ACTIVE",
			Featured:      r.featured,
			InStock:       true,
			CreatedAt:     now.Add(-time.Duration(i) * 24 * time.Hour),
			UpdatedAt:     now,
		})
	}
}

// product looks up a catalog entry by id.
func (s *Server) product(id string) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// issueToken creates and remembers a bearer token for the account.
func (s *Server) issueToken(email string) string {
	tok := uuid.NewString()
	s.tokens[tok] = email
	return tok
}

// paginate slices rows into the backend's standard page envelope.
func paginate(rows []domain.Product, page, size int) domain.Page[domain.Product] {
	if size < 1 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	total := len(rows)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	totalPages := (total + size - 1) / size
	return domain.Page[domain.Product]{
		Content:          append([]domain.Product(nil), rows[start:end]...),
		TotalElements:    total,
		TotalPages:       totalPages,
		NumberOfElements: end - start,
		First:            page == 0,
		Last:             end >= total,
		Pageable:         &domain.Pageable{PageNumber: page, PageSize: size},
	}
}

// matchesQuery does a case-insensitive token match over name, brand,
// description and category.
func matchesQuery(p domain.Product, query string) bool {
	hay := strings.ToLower(p.Name + " " + p.Brand + " " + p.Description + " " + p.CategoryName)
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(hay, tok) {
			return false
		}
	}
	return true
}
