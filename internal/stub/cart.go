package stub

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// cartFor returns (and lazily creates) the user's cart. Callers hold s.mu.
func (s *Server) cartFor(userID string) *domain.Cart {
	cart, ok := s.carts[userID]
	if !ok {
		now := time.Now()
		cart = &domain.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		s.carts[userID] = cart
	}
	return cart
}

// retotal recomputes the server-side totals after a mutation.
func retotal(cart *domain.Cart) {
	var amount float64
	var items int
	for i := range cart.Items {
		line := &cart.Items[i]
		line.Subtotal = line.UnitPrice * float64(line.Quantity)
		amount += line.Subtotal
		items += line.Quantity
	}
	cart.TotalAmount = amount
	cart.TotalItems = items
	cart.UpdatedAt = time.Now()
}

func (s *Server) handleCart(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	s.mu.Lock()
	out := *s.cartFor(acct.user.ID)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAddToCart(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	var req domain.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		fail(c, http.StatusBadRequest, "bad_request", "productId and positive quantity required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.product(req.ProductID)
	if !found {
		fail(c, http.StatusNotFound, "not_found", "product not found")
		return
	}
	cart := s.cartFor(acct.user.ID)
	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			cart.Items[i].Quantity += req.Quantity
			cart.Items[i].UpdatedAt = time.Now()
			merged = true
			break
		}
	}
	if !merged {
		now := time.Now()
		cart.Items = append(cart.Items, domain.CartLine{
			ID:           uuid.NewString(),
			ProductID:    p.ID,
			ProductName:  p.Name,
			UnitPrice:    p.Price,
			Quantity:     req.Quantity,
			ThumbnailURL: p.ThumbnailURL,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	retotal(cart)
	c.JSON(http.StatusOK, *cart)
}

func (s *Server) handleUpdateCartItem(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	var req domain.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		fail(c, http.StatusBadRequest, "bad_request", "positive quantity required")
		return
	}
	itemID := c.Param("itemId")
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartFor(acct.user.ID)
	line := cart.Line(itemID)
	if line == nil {
		fail(c, http.StatusNotFound, "not_found", "cart item not found")
		return
	}
	line.Quantity = req.Quantity
	line.UpdatedAt = time.Now()
	retotal(cart)
	c.JSON(http.StatusOK, *cart)
}

func (s *Server) handleRemoveFromCart(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	itemID := c.Param("itemId")
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartFor(acct.user.ID)
	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		fail(c, http.StatusNotFound, "not_found", "cart item not found")
		return
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	retotal(cart)
	c.JSON(http.StatusOK, *cart)
}

func (s *Server) handleClearCart(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	s.mu.Lock()
	cart := s.cartFor(acct.user.ID)
	cart.Items = nil
	retotal(cart)
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}
