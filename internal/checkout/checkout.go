// Package checkout drives a sale from cart to committed invoice:
// validate payment, submit to the sales API exactly once, reconcile the
// local stock cache, reset the cart. One orchestrator lives per
// terminal session.
package checkout

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/community-vercel/alwaqas-pos/internal/api"
	"github.com/community-vercel/alwaqas-pos/internal/cart"
	"github.com/community-vercel/alwaqas-pos/internal/catalog"
	"github.com/community-vercel/alwaqas-pos/internal/domain"
	"github.com/community-vercel/alwaqas-pos/internal/money"
	"github.com/community-vercel/alwaqas-pos/internal/pricing"
)

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrNoPayment           = errors.New("paid amount is zero")
	ErrInsufficientPayment = errors.New("paid amount is less than grand total")
	ErrSubmissionInFlight  = errors.New("a sale submission is already in progress")
)

// State of one checkout attempt. Committed, Rejected and Failed are
// terminal per attempt; the next Submit starts over from validation.
type State string

const (
	StateIdle       State = "IDLE"
	StateValidating State = "VALIDATING"
	StateSubmitting State = "SUBMITTING"
	StateCommitted  State = "COMMITTED"
	StateRejected   State = "REJECTED"
	StateFailed     State = "FAILED"
)

func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateRejected || s == StateFailed
}

// FailureReason classifies a failed submission for display.
type FailureReason string

const (
	FailureNetwork        FailureReason = "network"
	FailureServerRejected FailureReason = "server_rejected"
	FailureServerError    FailureReason = "server_error"
	FailureSessionExpired FailureReason = "session_expired"
)

// SubmissionError carries the classified reason alongside the cause.
type SubmissionError struct {
	Reason FailureReason
	Err    error
}

func (e *SubmissionError) Error() string {
	return "sale submission failed (" + string(e.Reason) + "): " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Submitter is the remote side of checkout (api.SalesAPI).
type Submitter interface {
	CreateSale(ctx context.Context, req domain.SaleRequest, idempotencyKey string) (*domain.Sale, error)
}

// Metrics is the subset of the metrics registry checkout reports to.
type Metrics interface {
	SaleCommitted(duration time.Duration)
	SaleRejected()
	SaleFailed()
}

type Orchestrator struct {
	sales Submitter
	stock *catalog.Cache
	cart  *cart.Cart
	meter Metrics

	mu    sync.Mutex
	state State
}

func NewOrchestrator(sales Submitter, stock *catalog.Cache, c *cart.Cart, meter Metrics) *Orchestrator {
	return &Orchestrator{
		sales: sales,
		stock: stock,
		cart:  c,
		meter: meter,
		state: StateIdle,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Validate checks whether the cart and payment are submittable without
// touching either. The same checks run again inside Submit.
func (o *Orchestrator) Validate(paid float64) error {
	return validate(o.cart, paid)
}

func validate(c *cart.Cart, paid float64) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	if money.IsZero(paid) {
		return ErrNoPayment
	}
	t := pricing.Compute(c)
	if !money.GTE(paid, t.GrandTotal) {
		return ErrInsufficientPayment
	}
	return nil
}

// Submit runs one checkout attempt end to end. It refuses to start
// while another submission is in flight, and never retries on its own:
// a duplicate POST would double-sell stock.
//
// On success the sold quantities are decremented in the stock cache
// (keyed by product id, so a cart cleared mid-flight still reconciles),
// the cart is reset and the committed sale is returned for the receipt.
// On failure the cart is left untouched for the user to edit or retry.
func (o *Orchestrator) Submit(ctx context.Context, paymentMethod string, paid float64) (*domain.Sale, error) {
	o.mu.Lock()
	if o.state == StateValidating || o.state == StateSubmitting {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	o.state = StateValidating
	o.mu.Unlock()

	if err := validate(o.cart, paid); err != nil {
		o.setState(StateRejected)
		o.meter.SaleRejected()
		return nil, err
	}

	req := buildSaleRequest(o.cart, paymentMethod, paid)
	o.setState(StateSubmitting)

	start := time.Now()
	sale, err := o.sales.CreateSale(ctx, req, uuid.NewString())
	if err != nil {
		o.setState(StateFailed)
		o.meter.SaleFailed()
		return nil, classify(err)
	}

	// Optimistic reconciliation ahead of the next catalog refresh.
	for _, item := range req.Items {
		o.stock.DecrementStock(item.ProductID, item.Quantity)
	}
	o.cart.Clear()
	o.setState(StateCommitted)
	o.meter.SaleCommitted(time.Since(start))
	log.Printf("sale %s committed, total %.2f paid %.2f", sale.InvoiceNumber, sale.GrandTotal, sale.PaidAmount)
	return sale, nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// buildSaleRequest snapshots the cart into the POST /sales body. All
// monetary fields are rounded before they leave the terminal.
func buildSaleRequest(c *cart.Cart, paymentMethod string, paid float64) domain.SaleRequest {
	t := pricing.Compute(c)
	lines := c.Lines()

	items := make([]domain.SaleItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.SaleItem{
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Discount:     l.DiscountValue,
			DiscountType: l.DiscountType,
		})
	}

	var cust *domain.Customer
	if buyer := c.Customer(); !buyer.IsEmpty() {
		cust = &buyer
	}

	return domain.SaleRequest{
		Items:         items,
		Customer:      cust,
		PaymentMethod: paymentMethod,
		PaidAmount:    money.Round2(paid),
		Subtotal:      t.Subtotal,
		ItemDiscounts: t.ItemDiscounts,
		GrandTotal:    t.GrandTotal,
		Change:        pricing.Change(paid, t.GrandTotal),
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return &SubmissionError{Reason: FailureSessionExpired, Err: err}
	case api.IsNetwork(err):
		return &SubmissionError{Reason: FailureNetwork, Err: err}
	case api.IsServerRejected(err):
		return &SubmissionError{Reason: FailureServerRejected, Err: err}
	default:
		return &SubmissionError{Reason: FailureServerError, Err: err}
	}
}
