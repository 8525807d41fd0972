package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/community-vercel/alwaqas-pos/internal/domain"
)

type staticTokens struct {
	token        string
	unauthorized int
}

func (s *staticTokens) Token() string   { return s.token }
func (s *staticTokens) OnUnauthorized() { s.unauthorized++ }

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newFakeAPI(t *testing.T) (*httptest.Server, *staticTokens) {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/products", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer good-token" {
			respond(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "token expired"})
			return
		}
		products := []domain.Product{
			{ID: "p1", Name: "Claw Hammer", SalePrice: 100, QuantityAvailable: 5, IsActive: true},
		}
		if req.URL.Query().Get("search") == "none" {
			products = nil
		}
		respond(w, http.StatusOK, map[string]any{"success": true, "data": products})
	})
	r.Get("/products/low-stock", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]any{"success": true, "data": []domain.Product{{ID: "p2", QuantityAvailable: 1}}})
	})
	r.Post("/sales", func(w http.ResponseWriter, req *http.Request) {
		var sr domain.SaleRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&sr))
		assert.NotEmpty(t, req.Header.Get("Idempotency-Key"))

		if len(sr.Items) == 0 {
			respond(w, http.StatusUnprocessableEntity, map[string]any{"success": false, "message": "sale has no items"})
			return
		}
		sale := domain.Sale{
			InvoiceNumber: "INV-100",
			SaleDate:      time.Now(),
			Items:         sr.Items,
			Subtotal:      sr.Subtotal,
			ItemDiscounts: sr.ItemDiscounts,
			GrandTotal:    sr.GrandTotal,
			PaidAmount:    sr.PaidAmount,
			Change:        sr.Change,
			PaymentMethod: sr.PaymentMethod,
		}
		respond(w, http.StatusCreated, map[string]any{"success": true, "data": sale})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &staticTokens{token: "good-token"}
}

func TestCatalogAPI_ListProducts(t *testing.T) {
	srv, tokens := newFakeAPI(t)
	c := NewCatalogAPI(NewClient(srv.URL, tokens, 5*time.Second))

	products, err := c.ListProducts(context.Background(), ListProductsParams{Search: "hammer", Limit: 10, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Claw Hammer", products[0].Name)

	products, err = c.ListProducts(context.Background(), ListProductsParams{Search: "none"})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCatalogAPI_LowStock(t *testing.T) {
	srv, tokens := newFakeAPI(t)
	c := NewCatalogAPI(NewClient(srv.URL, tokens, 5*time.Second))

	products, err := c.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p2", products[0].ID)
}

func TestClient_UnauthorizedFiresHook(t *testing.T) {
	srv, _ := newFakeAPI(t)
	tokens := &staticTokens{token: "stale-token"}
	c := NewCatalogAPI(NewClient(srv.URL, tokens, 5*time.Second))

	_, err := c.ListProducts(context.Background(), ListProductsParams{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, tokens.unauthorized)
}

func TestSalesAPI_CreateSale(t *testing.T) {
	srv, tokens := newFakeAPI(t)
	s := NewSalesAPI(NewClient(srv.URL, tokens, 5*time.Second))

	req := domain.SaleRequest{
		Items:         []domain.SaleItem{{ProductID: "p1", ProductName: "Claw Hammer", Quantity: 2, UnitPrice: 100}},
		PaymentMethod: "cash",
		PaidAmount:    250,
		Subtotal:      200,
		GrandTotal:    200,
		Change:        50,
	}
	sale, err := s.CreateSale(context.Background(), req, "key-123")
	require.NoError(t, err)
	assert.Equal(t, "INV-100", sale.InvoiceNumber)
	assert.Equal(t, 200.0, sale.GrandTotal)
}

func TestSalesAPI_ServerRejection(t *testing.T) {
	srv, tokens := newFakeAPI(t)
	s := NewSalesAPI(NewClient(srv.URL, tokens, 5*time.Second))

	_, err := s.CreateSale(context.Background(), domain.SaleRequest{}, "key-456")
	require.Error(t, err)
	assert.True(t, IsServerRejected(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "sale has no items", apiErr.Message)
}

func TestClient_NetworkErrorClassified(t *testing.T) {
	tokens := &staticTokens{token: "good-token"}
	c := NewCatalogAPI(NewClient("http://127.0.0.1:1", tokens, time.Second))

	_, err := c.ListProducts(context.Background(), ListProductsParams{})
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.False(t, IsServerRejected(err))
}

func TestClient_EnvelopeFailureWithoutHTTPError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "backend degraded"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := NewCatalogAPI(NewClient(srv.URL, &staticTokens{token: "good-token"}, time.Second))
	_, err := c.ListProducts(context.Background(), ListProductsParams{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "backend degraded", apiErr.Message)
}
