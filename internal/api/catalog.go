package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/community-vercel/alwaqas-pos/internal/domain"
)

// CatalogAPI reads products from the remote catalog service.
type CatalogAPI struct {
	client *Client
}

func NewCatalogAPI(client *Client) *CatalogAPI {
	return &CatalogAPI{client: client}
}

type ListProductsParams struct {
	Search     string
	Limit      int
	ActiveOnly bool
}

func (a *CatalogAPI) ListProducts(ctx context.Context, p ListProductsParams) ([]domain.Product, error) {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.ActiveOnly {
		q.Set("isActive", "true")
	}

	var products []domain.Product
	if err := a.client.do(ctx, http.MethodGet, "/products", q, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (a *CatalogAPI) LowStock(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := a.client.do(ctx, http.MethodGet, "/products/low-stock", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}
