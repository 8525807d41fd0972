// Package cart owns the in-progress sale: ordered line items keyed by
// product id, per-line discounts, the optional customer and the manual
// grand-total override. The cart is mutated only by direct user action;
// callers serialize access (single terminal session, no locking here).
package cart

import (
	"errors"

	"github.com/community-vercel/alwaqas-pos/internal/domain"
)

var (
	ErrOutOfStock        = errors.New("product is inactive or out of stock")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	ErrInvalidDiscount   = errors.New("invalid discount value")
	ErrLineNotFound      = errors.New("no cart line for product")
)

// Line is one product entry in the in-progress sale. Name, price and
// unit are snapshotted at add-time so catalog changes never alter an
// open cart. StockSnapshot is the quantity ceiling captured when the
// line was created; a catalog refresh does not touch it.
type Line struct {
	ProductID     string
	ProductName   string
	Packing       string
	Unit          string
	Quantity      int
	UnitPrice     float64
	DiscountType  domain.DiscountType
	DiscountValue float64
	StockSnapshot int
}

type Cart struct {
	lines    []Line
	index    map[string]int // productID -> position in lines
	override *float64       // manual grand total, cleared by any mutation
	customer domain.Customer
}

func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddItem puts one unit of the product into the cart. An existing line
// is incremented; a new line snapshots name, price, unit and stock.
// Rejected adds leave the cart unchanged and keep the override.
func (c *Cart) AddItem(p domain.Product) error {
	if i, ok := c.index[p.ID]; ok {
		line := &c.lines[i]
		if line.Quantity+1 > line.StockSnapshot {
			return ErrInsufficientStock
		}
		line.Quantity++
		c.override = nil
		return nil
	}

	if !p.IsActive || p.QuantityAvailable == 0 {
		return ErrOutOfStock
	}

	c.index[p.ID] = len(c.lines)
	c.lines = append(c.lines, Line{
		ProductID:     p.ID,
		ProductName:   p.Name,
		Packing:       p.Packing,
		Unit:          p.Unit,
		Quantity:      1,
		UnitPrice:     p.SalePrice,
		DiscountType:  domain.DiscountPercentage,
		StockSnapshot: p.QuantityAvailable,
	})
	c.override = nil
	return nil
}

// SetQuantity replaces a line's quantity. Anything below 1 removes the
// line; anything above the stock snapshot is rejected with no partial
// update.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i, ok := c.index[productID]
	if !ok {
		return ErrLineNotFound
	}
	if quantity < 1 {
		return c.RemoveItem(productID)
	}
	if quantity > c.lines[i].StockSnapshot {
		return ErrInsufficientStock
	}
	c.lines[i].Quantity = quantity
	c.override = nil
	return nil
}

// RemoveItem deletes the line if present; removing an absent product is
// a no-op and does not count as a mutation.
func (c *Cart) RemoveItem(productID string) error {
	i, ok := c.index[productID]
	if !ok {
		return nil
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
	c.override = nil
	return nil
}

// SetItemDiscount updates a line's discount. Percentage discounts are
// bounded to [0, 100]; fixed discounts only need to be non-negative
// (the pricing engine clamps them to the line subtotal).
func (c *Cart) SetItemDiscount(productID string, value float64, dt domain.DiscountType) error {
	i, ok := c.index[productID]
	if !ok {
		return ErrLineNotFound
	}
	if value < 0 {
		return ErrInvalidDiscount
	}
	if dt == domain.DiscountPercentage && value > 100 {
		return ErrInvalidDiscount
	}
	if dt != domain.DiscountPercentage && dt != domain.DiscountFixed {
		return ErrInvalidDiscount
	}
	c.lines[i].DiscountValue = value
	c.lines[i].DiscountType = dt
	c.override = nil
	return nil
}

// Clear empties the cart: lines, customer and override.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
	c.override = nil
	c.customer = domain.Customer{}
}

// SetManualGrandTotal stores a user-supplied grand total that takes
// precedence over the computed one until the next cart mutation.
func (c *Cart) SetManualGrandTotal(v float64) {
	c.override = &v
}

// ManualGrandTotal returns the override and whether one is set.
func (c *Cart) ManualGrandTotal() (float64, bool) {
	if c.override == nil {
		return 0, false
	}
	return *c.override, true
}

func (c *Cart) SetCustomer(cust domain.Customer) {
	c.customer = cust
}

func (c *Cart) Customer() domain.Customer {
	return c.customer
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line returns the line for a product, if any.
func (c *Cart) Line(productID string) (Line, bool) {
	i, ok := c.index[productID]
	if !ok {
		return Line{}, false
	}
	return c.lines[i], true
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
