package stub

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cartiq/cartiq-go/internal/domain"
	"github.com/cartiq/cartiq-go/internal/utils"
)

func pageParams(c *gin.Context) (page, size int) {
	return utils.AtoiDefault(c.Query("page"), 0), utils.AtoiDefault(c.Query("size"), 10)
}

func floatParam(c *gin.Context, key string) *float64 {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// sortProducts applies a "field,dir" sort expression in place.
func sortProducts(rows []domain.Product, expr string) {
	field, dir, _ := strings.Cut(expr, ",")
	desc := dir == "desc"
	less := func(a, b domain.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch field {
	case "price":
		less = func(a, b domain.Product) bool { return a.Price < b.Price }
	case "rating":
		less = func(a, b domain.Product) bool { return a.Rating < b.Rating }
	case "name":
		less = func(a, b domain.Product) bool { return a.Name < b.Name }
	case "createdAt", "":
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

func (s *Server) filtered(keep func(domain.Product) bool) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleProducts(c *gin.Context) {
	rows := s.filtered(func(domain.Product) bool { return true })
	sortProducts(rows, c.Query("sort"))
	page, size := pageParams(c)
	c.JSON(http.StatusOK, paginate(rows, page, size))
}

func (s *Server) handleProduct(c *gin.Context) {
	s.mu.Lock()
	p, ok := s.product(c.Param("id"))
	s.mu.Unlock()
	if !ok {
		fail(c, http.StatusNotFound, "not_found", "product not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	min, max, minRating := floatParam(c, "minPrice"), floatParam(c, "maxPrice"), floatParam(c, "minRating")
	rows := s.filtered(func(p domain.Product) bool {
		if query != "" && !matchesQuery(p, query) {
			return false
		}
		if min != nil && p.Price < *min {
			return false
		}
		if max != nil && p.Price > *max {
			return false
		}
		if minRating != nil && p.Rating < *minRating {
			return false
		}
		return true
	})
	page, size := pageParams(c)
	c.JSON(http.StatusOK, paginate(rows, page, size))
}

func (s *Server) handleFeatured(c *gin.Context) {
	rows := s.filtered(func(p domain.Product) bool { return p.Featured })
	page, size := pageParams(c)
	c.JSON(http.StatusOK, paginate(rows, page, size))
}

func (s *Server) handleProductsByCategory(c *gin.Context) {
	id := c.Param("id")
	rows := s.filtered(func(p domain.Product) bool { return p.CategoryID == id })
	sortProducts(rows, c.Query("sort"))
	page, size := pageParams(c)
	c.JSON(http.StatusOK, paginate(rows, page, size))
}

func (s *Server) handleProductsByBrand(c *gin.Context) {
	brand := c.Param("brand")
	rows := s.filtered(func(p domain.Product) bool { return strings.EqualFold(p.Brand, brand) })
	page, size := pageParams(c)
	c.JSON(http.StatusOK, paginate(rows, page, size))
}

func (s *Server) handlePriceRange(c *gin.Context) {
	min, max := floatParam(c, "minPrice"), floatParam(c, "maxPrice")
	rows := s.filtered(func(p domain.Product) bool {
		if min != nil && p.Price < *min {
			return false
		}
		if max != nil && p.Price > *max {
			return false
		}
		return true
	})
	page, size := pageParams(c)
	c.JSON(http.StatusOK, paginate(rows, page, size))
}

func (s *Server) handleBatch(c *gin.Context) {
	var ids []string
	if err := c.ShouldBindJSON(&ids); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	rows := s.filtered(func(p domain.Product) bool {
		_, ok := want[p.ID]
		return ok
	})
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleBrands(c *gin.Context) {
	s.mu.Lock()
	seen := make(map[string]struct{})
	var brands []string
	for _, p := range s.products {
		if _, ok := seen[p.Brand]; !ok && p.Brand != "" {
			seen[p.Brand] = struct{}{}
			brands = append(brands, p.Brand)
		}
	}
	s.mu.Unlock()
	sort.Strings(brands)
	c.JSON(http.StatusOK, brands)
}

// handleSuggestions returns featured products first, topped up with the
// highest rated rest. The X-User-Id header is accepted but the stub does not
// personalize.
func (s *Server) handleSuggestions(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 8)
	rows := s.filtered(func(domain.Product) bool { return true })
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Featured != rows[j].Featured {
			return rows[i].Featured
		}
		return rows[i].Rating > rows[j].Rating
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	source := "popular"
	if c.GetHeader("X-User-Id") != "" {
		source = "personalized"
	}
	c.JSON(http.StatusOK, domain.SuggestionsResponse{Products: rows, Source: source})
}

func (s *Server) handleCategories(c *gin.Context) {
	s.mu.Lock()
	out := append([]domain.Category(nil), s.categories...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCategoryTree(c *gin.Context) {
	s.mu.Lock()
	var roots []domain.Category
	for _, cat := range s.categories {
		if cat.ParentCategoryID != "" {
			continue
		}
		node := cat
		for _, child := range s.categories {
			if child.ParentCategoryID == cat.ID {
				node.SubCategories = append(node.SubCategories, child)
			}
		}
		roots = append(roots, node)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, roots)
}

func (s *Server) handleCategory(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cat := range s.categories {
		if cat.ID == id {
			c.JSON(http.StatusOK, cat)
			return
		}
	}
	fail(c, http.StatusNotFound, "not_found", "category not found")
}
