package stub

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartiq/cartiq-go/internal/domain"
	"github.com/cartiq/cartiq-go/internal/utils"
)

const shippingFlat = 49

// handleCreateOrder turns the user's cart into an order and empties the cart.
func (s *Server) handleCreateOrder(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartFor(acct.user.ID)
	if len(cart.Items) == 0 {
		fail(c, http.StatusUnprocessableEntity, "empty_cart", "cart is empty")
		return
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		sku := ""
		if p, found := s.product(line.ProductID); found {
			sku = p.SKU
		}
		items = append(items, domain.OrderItem{
			ID:           uuid.NewString(),
			ProductID:    line.ProductID,
			ProductSKU:   sku,
			ProductName:  line.ProductName,
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
			Subtotal:     line.Subtotal,
			ThumbnailURL: line.ThumbnailURL,
		})
	}

	s.nextOrder++
	now := time.Now()
	subtotal := cart.TotalAmount
	tax := subtotal * 0.18
	order := domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     fmt.Sprintf("ORD-%d", s.nextOrder),
		UserID:          acct.user.ID,
		Items:           items,
		Status:          domain.OrderPending,
		PaymentStatus:   "PAID",
		Subtotal:        subtotal,
		ShippingCost:    shippingFlat,
		Tax:             tax,
		TotalAmount:     subtotal + tax + shippingFlat,
		TotalQuantity:   cart.TotalItems,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingZipCode: req.ShippingZipCode,
		ShippingCountry: req.ShippingCountry,
		ContactPhone:    req.ContactPhone,
		Notes:           req.Notes,
		Cancellable:     true,
		CreatedAt:       now,
	}
	s.orders[acct.user.ID] = append([]domain.Order{order}, s.orders[acct.user.ID]...)

	cart.Items = nil
	retotal(cart)

	c.JSON(http.StatusCreated, order)
}

func (s *Server) handleOrders(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	status := c.Query("status")
	page := utils.AtoiDefault(c.Query("page"), 0)
	size := utils.AtoiDefault(c.Query("size"), 10)
	if size < 1 {
		size = 10
	}

	s.mu.Lock()
	var rows []domain.Order
	for _, o := range s.orders[acct.user.ID] {
		if status == "" || o.Status == status {
			rows = append(rows, o)
		}
	}
	s.mu.Unlock()

	total := len(rows)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	c.JSON(http.StatusOK, domain.Page[domain.Order]{
		Content:          rows[start:end],
		TotalElements:    total,
		TotalPages:       (total + size - 1) / size,
		NumberOfElements: end - start,
		First:            page == 0,
		Last:             end >= total,
		Pageable:         &domain.Pageable{PageNumber: page, PageSize: size},
	})
}

// findOrder locates one of the user's orders. Callers hold s.mu.
func (s *Server) findOrder(userID string, match func(domain.Order) bool) *domain.Order {
	orders := s.orders[userID]
	for i := range orders {
		if match(orders[i]) {
			return &orders[i]
		}
	}
	return nil
}

func (s *Server) handleOrder(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	id := c.Param("id")
	s.mu.Lock()
	order := s.findOrder(acct.user.ID, func(o domain.Order) bool { return o.ID == id })
	s.mu.Unlock()
	if order == nil {
		fail(c, http.StatusNotFound, "not_found", "order not found")
		return
	}
	c.JSON(http.StatusOK, *order)
}

func (s *Server) handleOrderByNumber(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	number := c.Param("number")
	s.mu.Lock()
	order := s.findOrder(acct.user.ID, func(o domain.Order) bool { return o.OrderNumber == number })
	s.mu.Unlock()
	if order == nil {
		fail(c, http.StatusNotFound, "not_found", "order not found")
		return
	}
	c.JSON(http.StatusOK, *order)
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	id := c.Param("id")
	s.mu.Lock()
	order := s.findOrder(acct.user.ID, func(o domain.Order) bool { return o.ID == id })
	if order == nil {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if !order.Cancellable || order.Status == domain.OrderCancelled {
		s.mu.Unlock()
		fail(c, http.StatusConflict, "not_cancellable", "order can no longer be cancelled")
		return
	}
	order.Status = domain.OrderCancelled
	order.Cancellable = false
	out := *order
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}
