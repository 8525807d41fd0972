package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Customer is the optional free-form buyer info attached to a sale.
// Zero or all fields may be empty; it is never required for checkout.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (c Customer) IsEmpty() bool {
	return c.Name == "" && c.Phone == "" && c.Address == ""
}

// SaleItem is one line of a submitted or committed sale.
type SaleItem struct {
	ProductID    string       `json:"product"`
	ProductName  string       `json:"productName"`
	Quantity     int          `json:"quantity"`
	UnitPrice    float64      `json:"unitPrice"`
	Discount     float64      `json:"discount"`
	DiscountType DiscountType `json:"discountType"`
}

// SaleRequest is the POST /sales body. Totals are computed client-side
// and echoed back by the server in the committed Sale.
type SaleRequest struct {
	Items         []SaleItem `json:"items"`
	Customer      *Customer  `json:"customer"`
	PaymentMethod string     `json:"paymentMethod"`
	PaidAmount    float64    `json:"paidAmount"`
	Subtotal      float64    `json:"subtotal"`
	ItemDiscounts float64    `json:"itemDiscounts"`
	GrandTotal    float64    `json:"grandTotal"`
	Change        float64    `json:"change"`
}

// Sale is the committed record returned by the Sales API. Immutable.
type Sale struct {
	InvoiceNumber string     `json:"invoiceNumber"`
	SaleDate      time.Time  `json:"saleDate"`
	Items         []SaleItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	ItemDiscounts float64    `json:"itemDiscounts"`
	GrandTotal    float64    `json:"grandTotal"`
	PaidAmount    float64    `json:"paidAmount"`
	Change        float64    `json:"change"`
	PaymentMethod string     `json:"paymentMethod"`
	Customer      *Customer  `json:"customer,omitempty"`
}
