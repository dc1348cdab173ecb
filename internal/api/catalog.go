package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// ProductFilter narrows a search query. Zero values mean "unfiltered".
type ProductFilter struct {
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
}

func (f ProductFilter) apply(q url.Values) {
	if f.MinPrice != nil {
		q.Set("minPrice", fmt.Sprint(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", fmt.Sprint(*f.MaxPrice))
	}
	if f.MinRating != nil {
		q.Set("minRating", fmt.Sprint(*f.MinRating))
	}
}

// Products returns one page of the catalog, sorted per the backend sort
// expression (e.g. "createdAt,desc").
func (c *Client) Products(ctx context.Context, page, size int, sort string) (*domain.Page[domain.Product], error) {
	q := pageQuery(page, size)
	if sort != "" {
		q.Set("sort", sort)
	}
	var out domain.Page[domain.Product]
	if err := c.do(ctx, http.MethodGet, "/api/products", q, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Product fetches a single catalog entry.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchProducts runs a full-text search with optional filters.
func (c *Client) SearchProducts(ctx context.Context, query string, page, size int, filter ProductFilter) (*domain.Page[domain.Product], error) {
	q := pageQuery(page, size)
	q.Set("q", query)
	filter.apply(q)
	var out domain.Page[domain.Product]
	if err := c.do(ctx, http.MethodGet, "/api/products/search", q, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// FeaturedProducts returns the featured selection.
func (c *Client) FeaturedProducts(ctx context.Context, page, size int) (*domain.Page[domain.Product], error) {
	var out domain.Page[domain.Product]
	if err := c.do(ctx, http.MethodGet, "/api/products/featured", pageQuery(page, size), nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductsByCategory returns one page of a category's products.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID string, page, size int, sort string) (*domain.Page[domain.Product], error) {
	q := pageQuery(page, size)
	if sort != "" {
		q.Set("sort", sort)
	}
	var out domain.Page[domain.Product]
	path := "/api/products/category/" + url.PathEscape(categoryID)
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductsByBrand returns one page of a brand's products.
func (c *Client) ProductsByBrand(ctx context.Context, brand string, page, size int) (*domain.Page[domain.Product], error) {
	var out domain.Page[domain.Product]
	path := "/api/products/brand/" + url.PathEscape(brand)
	if err := c.do(ctx, http.MethodGet, path, pageQuery(page, size), nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductsByPriceRange returns one page of products within price bounds.
func (c *Client) ProductsByPriceRange(ctx context.Context, minPrice, maxPrice *float64, page, size int) (*domain.Page[domain.Product], error) {
	q := pageQuery(page, size)
	ProductFilter{MinPrice: minPrice, MaxPrice: maxPrice}.apply(q)
	var out domain.Page[domain.Product]
	if err := c.do(ctx, http.MethodGet, "/api/products/price-range", q, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductsByIDs batch-fetches products by id, used for analytics enrichment.
func (c *Client) ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, http.MethodPost, "/api/products/batch", nil, ids, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return out, nil
}

// Brands lists all known brand names.
func (c *Client) Brands(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/products/brands", nil, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return out, nil
}

// Suggestions returns personalized product suggestions. The user id rides in
// a header so anonymous sessions still get a response.
func (c *Client) Suggestions(ctx context.Context, limit int, userID string) (*domain.SuggestionsResponse, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	var out domain.SuggestionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/suggestions", q, nil, &out, reqOpt{userID: userID}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories lists the flat category set.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return out, nil
}

// CategoryTree lists categories with their subcategory hierarchy.
func (c *Client) CategoryTree(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories/tree", nil, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return out, nil
}

// Category fetches a single category.
func (c *Client) Category(ctx context.Context, id string) (*domain.Category, error) {
	var out domain.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories/"+url.PathEscape(id), nil, nil, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}
