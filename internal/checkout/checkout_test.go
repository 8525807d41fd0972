package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/community-vercel/alwaqas-pos/internal/api"
	"github.com/community-vercel/alwaqas-pos/internal/cart"
	"github.com/community-vercel/alwaqas-pos/internal/catalog"
	"github.com/community-vercel/alwaqas-pos/internal/domain"
)

type mockSalesAPI struct {
	mu       sync.Mutex
	calls    int
	requests []domain.SaleRequest
	keys     []string
	sale     *domain.Sale
	err      error
	block    chan struct{} // when set, CreateSale waits until closed
}

func (m *mockSalesAPI) CreateSale(_ context.Context, req domain.SaleRequest, key string) (*domain.Sale, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.keys = append(m.keys, key)
	block := m.block
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.sale, nil
}

func (m *mockSalesAPI) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type nopMetrics struct{}

func (nopMetrics) SaleCommitted(time.Duration) {}
func (nopMetrics) SaleRejected()               {}
func (nopMetrics) SaleFailed()                 {}

func fixture(t *testing.T, sales *mockSalesAPI) (*Orchestrator, *cart.Cart, *catalog.Cache) {
	t.Helper()
	cache := catalog.NewCache()
	cache.ReplaceAll([]domain.Product{
		{ID: "p1", Name: "hammer", SalePrice: 100, QuantityAvailable: 5, IsActive: true},
		{ID: "p2", Name: "pliers", SalePrice: 50, QuantityAvailable: 10, IsActive: true},
	})
	c := cart.New()
	return NewOrchestrator(sales, cache, c, nopMetrics{}), c, cache
}

func addToCart(t *testing.T, c *cart.Cart, cache *catalog.Cache, id string, qty int) {
	t.Helper()
	p, ok := cache.Get(id)
	require.True(t, ok)
	require.NoError(t, c.AddItem(p))
	require.NoError(t, c.SetQuantity(id, qty))
}

func TestSubmit_RejectsEmptyCart(t *testing.T) {
	sales := &mockSalesAPI{}
	o, _, _ := fixture(t, sales)

	_, err := o.Submit(context.Background(), "cash", 100)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StateRejected, o.State())
	assert.Equal(t, 0, sales.callCount())
}

func TestSubmit_RejectsZeroAndInsufficientPayment(t *testing.T) {
	sales := &mockSalesAPI{}
	o, c, cache := fixture(t, sales)
	addToCart(t, c, cache, "p1", 1) // grand total 100

	_, err := o.Submit(context.Background(), "cash", 0.004) // rounds to 0
	assert.ErrorIs(t, err, ErrNoPayment)

	_, err = o.Submit(context.Background(), "cash", 50)
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	// Epsilon under the total still passes on rounded comparison.
	sales.sale = &domain.Sale{InvoiceNumber: "INV-1"}
	_, err = o.Submit(context.Background(), "cash", 99.9999999998)
	assert.NoError(t, err)
	assert.Equal(t, 1, sales.callCount())
}

func TestSubmit_SuccessReconcilesAndClears(t *testing.T) {
	sales := &mockSalesAPI{sale: &domain.Sale{InvoiceNumber: "INV-42", GrandTotal: 230, PaidAmount: 250}}
	o, c, cache := fixture(t, sales)
	addToCart(t, c, cache, "p1", 2)
	addToCart(t, c, cache, "p2", 1)
	require.NoError(t, c.SetItemDiscount("p1", 10, domain.DiscountPercentage))

	sale, err := o.Submit(context.Background(), "cash", 250)
	require.NoError(t, err)
	assert.Equal(t, "INV-42", sale.InvoiceNumber)
	assert.Equal(t, StateCommitted, o.State())

	// Request carries rounded client-side totals.
	req := sales.requests[0]
	assert.Equal(t, 250.0, req.Subtotal)
	assert.Equal(t, 20.0, req.ItemDiscounts)
	assert.Equal(t, 230.0, req.GrandTotal)
	assert.Equal(t, 20.0, req.Change)
	assert.NotEmpty(t, sales.keys[0])

	// Local stock reconciled, cart reset.
	p1, _ := cache.Get("p1")
	assert.Equal(t, 3, p1.QuantityAvailable)
	p2, _ := cache.Get("p2")
	assert.Equal(t, 9, p2.QuantityAvailable)
	assert.True(t, c.IsEmpty())
}

func TestSubmit_FailureLeavesCartUntouched(t *testing.T) {
	sales := &mockSalesAPI{err: &api.TransportError{Err: errors.New("connection refused")}}
	o, c, cache := fixture(t, sales)
	addToCart(t, c, cache, "p1", 2)

	_, err := o.Submit(context.Background(), "cash", 200)
	require.Error(t, err)
	assert.Equal(t, StateFailed, o.State())

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, FailureNetwork, subErr.Reason)

	// Cart preserved for retry, stock untouched.
	assert.Equal(t, 1, c.Len())
	p1, _ := cache.Get("p1")
	assert.Equal(t, 5, p1.QuantityAvailable)
}

func TestSubmit_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		reason FailureReason
	}{
		{"session expired", api.ErrUnauthorized, FailureSessionExpired},
		{"server rejected", &api.APIError{StatusCode: 422, Message: "invalid sale"}, FailureServerRejected},
		{"server error", &api.APIError{StatusCode: 500, Message: "boom"}, FailureServerError},
		{"network", &api.TransportError{Err: errors.New("timeout")}, FailureNetwork},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sales := &mockSalesAPI{err: tc.err}
			o, c, cache := fixture(t, sales)
			addToCart(t, c, cache, "p1", 1)

			_, err := o.Submit(context.Background(), "cash", 100)
			var subErr *SubmissionError
			require.ErrorAs(t, err, &subErr)
			assert.Equal(t, tc.reason, subErr.Reason)
		})
	}
}

func TestSubmit_SingleInFlight(t *testing.T) {
	block := make(chan struct{})
	sales := &mockSalesAPI{sale: &domain.Sale{InvoiceNumber: "INV-1"}, block: block}
	o, c, cache := fixture(t, sales)
	addToCart(t, c, cache, "p1", 1)

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), "cash", 100)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return o.State() == StateSubmitting
	}, time.Second, time.Millisecond)

	// A second submit while one is in flight is refused without a request.
	_, err := o.Submit(context.Background(), "cash", 100)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sales.callCount())
}

func TestSubmit_CartClearedMidFlightStillReconciles(t *testing.T) {
	block := make(chan struct{})
	sales := &mockSalesAPI{sale: &domain.Sale{InvoiceNumber: "INV-1"}, block: block}
	o, c, cache := fixture(t, sales)
	addToCart(t, c, cache, "p1", 2)

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), "cash", 200)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return o.State() == StateSubmitting
	}, time.Second, time.Millisecond)

	// User clears the cart while the request is in flight. The request
	// was snapshotted, so the sale still commits and reconciliation is
	// keyed by product id, not cart contents.
	c.Clear()
	close(block)
	require.NoError(t, <-done)

	p1, _ := cache.Get("p1")
	assert.Equal(t, 3, p1.QuantityAvailable)
	assert.True(t, c.IsEmpty())
}

func TestSubmit_FreshIdempotencyKeyPerAttempt(t *testing.T) {
	sales := &mockSalesAPI{err: &api.TransportError{Err: errors.New("timeout")}}
	o, c, cache := fixture(t, sales)
	addToCart(t, c, cache, "p1", 1)

	_, _ = o.Submit(context.Background(), "cash", 100)
	sales.err = nil
	sales.sale = &domain.Sale{InvoiceNumber: "INV-2"}
	_, err := o.Submit(context.Background(), "cash", 100)
	require.NoError(t, err)

	require.Len(t, sales.keys, 2)
	assert.NotEqual(t, sales.keys[0], sales.keys[1])
}

func TestValidate(t *testing.T) {
	sales := &mockSalesAPI{}
	o, c, cache := fixture(t, sales)

	assert.ErrorIs(t, o.Validate(100), ErrEmptyCart)
	addToCart(t, c, cache, "p1", 1)
	assert.ErrorIs(t, o.Validate(0), ErrNoPayment)
	assert.ErrorIs(t, o.Validate(99), ErrInsufficientPayment)
	assert.NoError(t, o.Validate(100))
}
