// Package catalog resolves search terms and scanned barcodes to
// products with live stock counts. It is read-only: post-sale stock
// reconciliation is written through the Cache by the checkout
// orchestrator, never by this service.
package catalog

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/community-vercel/alwaqas-pos/internal/api"
	"github.com/community-vercel/alwaqas-pos/internal/domain"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrCatalogUnavailable flags results served from the local cache
	// because the remote catalog could not be reached. The cart keeps
	// working on the stale copy.
	ErrCatalogUnavailable = errors.New("catalog unavailable, serving cached products")

	ErrProductNotFound = errors.New("product not found")
)

// Fetcher is the remote side of the catalog (api.CatalogAPI).
type Fetcher interface {
	ListProducts(ctx context.Context, p api.ListProductsParams) ([]domain.Product, error)
	LowStock(ctx context.Context) ([]domain.Product, error)
}

type Service struct {
	fetcher Fetcher
	cache   *Cache
	sfg     singleflight.Group // collapses concurrent identical searches
	breaker *gobreaker.CircuitBreaker[[]domain.Product]
	limit   int
}

func NewService(fetcher Fetcher, cache *Cache, limit int) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		limit:   limit,
		breaker: gobreaker.NewCircuitBreaker[[]domain.Product](gobreaker.Settings{
			Name: "catalog-api",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Search matches active products by case-insensitive name substring; an
// empty term returns the full active catalog (bounded by the remote
// API's own pagination). On upstream failure it degrades to the cached
// copy and joins ErrCatalogUnavailable so the caller can mark the
// results stale.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do("search:"+strings.ToLower(term), func() (interface{}, error) {
		products, errFetch := s.breaker.Execute(func() ([]domain.Product, error) {
			return s.fetcher.ListProducts(ctx, api.ListProductsParams{
				Search:     term,
				Limit:      s.limit,
				ActiveOnly: true,
			})
		})
		if errFetch != nil {
			log.Printf("catalog search %q failed, falling back to cache: %v", term, errFetch)
			return s.searchCache(term), errors.Join(ErrCatalogUnavailable, errFetch)
		}
		return products, nil
	})

	products, _ := v.([]domain.Product)
	if err != nil && !errors.Is(err, ErrCatalogUnavailable) {
		return nil, err
	}
	return products, err
}

func (s *Service) searchCache(term string) []domain.Product {
	needle := strings.ToLower(term)
	var out []domain.Product
	for _, p := range s.cache.List() {
		if !p.IsActive {
			continue
		}
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

// FindByCode resolves an exact barcode. The cache answers first so a
// scan stays instant; a miss falls through to a remote search.
func (s *Service) FindByCode(ctx context.Context, code string) (domain.Product, error) {
	for _, p := range s.cache.List() {
		if p.Barcode != "" && p.Barcode == code {
			return p, nil
		}
	}

	products, err := s.Search(ctx, "")
	if err != nil && !errors.Is(err, ErrCatalogUnavailable) {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.Barcode != "" && p.Barcode == code {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}

// Refresh replaces the local cache with a full fetch. Existing cart
// lines keep their stock snapshots untouched.
func (s *Service) Refresh(ctx context.Context) error {
	products, err := s.breaker.Execute(func() ([]domain.Product, error) {
		return s.fetcher.ListProducts(ctx, api.ListProductsParams{ActiveOnly: false, Limit: s.limit})
	})
	if err != nil {
		return errors.Join(ErrCatalogUnavailable, err)
	}
	s.cache.ReplaceAll(products)
	return nil
}

// LowStock lists products under their reorder threshold, straight from
// the remote API.
func (s *Service) LowStock(ctx context.Context) ([]domain.Product, error) {
	return s.fetcher.LowStock(ctx)
}

// Cache exposes the underlying cache for post-sale stock write-through.
func (s *Service) Cache() *Cache {
	return s.cache
}
