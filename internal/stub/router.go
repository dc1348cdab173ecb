package stub

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the stub's Gin engine with the full storefront surface.
//
// Middleware order: request id first so logs and panic responses carry the
// correlation id, then access logging, then recovery, then metrics.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(requestID())
	r.Use(accessLog(s.log))
	r.Use(recovery(s.log))
	r.Use(metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Session-Id", "X-User-Id"},
		ExposeHeaders:    []string{requestIDHeader, "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "not_found", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		fail(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/auth/register", s.handleRegister)
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/logout", s.handleLogout)

		api.GET("/users/me", s.handleCurrentUser)
		api.PUT("/users/me", s.handleUpdateProfile)
		api.GET("/users/me/preferences", s.handlePreferences)
		api.PUT("/users/me/preferences", s.handleUpdatePreferences)

		api.GET("/products", s.handleProducts)
		api.GET("/products/search", s.handleSearch)
		api.GET("/products/featured", s.handleFeatured)
		api.GET("/products/price-range", s.handlePriceRange)
		api.GET("/products/brands", s.handleBrands)
		api.POST("/products/batch", s.handleBatch)
		api.GET("/products/category/:id", s.handleProductsByCategory)
		api.GET("/products/brand/:brand", s.handleProductsByBrand)
		api.GET("/products/:id", s.handleProduct)

		api.GET("/suggestions", s.handleSuggestions)

		api.GET("/categories", s.handleCategories)
		api.GET("/categories/tree", s.handleCategoryTree)
		api.GET("/categories/:id", s.handleCategory)

		api.GET("/cart", s.handleCart)
		api.POST("/cart/items", s.handleAddToCart)
		api.PUT("/cart/items/:itemId", s.handleUpdateCartItem)
		api.DELETE("/cart/items/:itemId", s.handleRemoveFromCart)
		api.DELETE("/cart", s.handleClearCart)

		api.POST("/orders", s.handleCreateOrder)
		api.GET("/orders", s.handleOrders)
		api.GET("/orders/number/:number", s.handleOrderByNumber)
		api.GET("/orders/:id", s.handleOrder)
		api.POST("/orders/:id/cancel", s.handleCancelOrder)

		api.POST("/chat", s.handleChat)
		api.GET("/chat/health", s.handleChatHealth)

		api.POST("/events/user", s.handleEvent("page_view"))
		api.POST("/events/product-view", s.handleEvent("product_view"))
		api.POST("/events/cart", s.handleEvent("cart"))
		api.POST("/events/order", s.handleEvent("order"))
		api.POST("/events/profile", s.handleEvent("profile"))
	}

	return r
}
