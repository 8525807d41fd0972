package api

import (
	"context"
	"net/http"

	"github.com/community-vercel/alwaqas-pos/internal/domain"
)

// SalesAPI submits finalized sales to the remote sales service.
type SalesAPI struct {
	client *Client
}

func NewSalesAPI(client *Client) *SalesAPI {
	return &SalesAPI{client: client}
}

// CreateSale posts one sale and returns the committed record. The
// Idempotency-Key header lets the server drop duplicates should the
// same checkout click ever be replayed.
func (a *SalesAPI) CreateSale(ctx context.Context, req domain.SaleRequest, idempotencyKey string) (*domain.Sale, error) {
	var sale domain.Sale
	ctx = withIdempotencyKey(ctx, idempotencyKey)
	if err := a.client.do(ctx, http.MethodPost, "/sales", nil, req, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

type idemKeyContextKey struct{}

func withIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idemKeyContextKey{}, key)
}

func idempotencyKeyFrom(ctx context.Context) string {
	if v, ok := ctx.Value(idemKeyContextKey{}).(string); ok {
		return v
	}
	return ""
}
