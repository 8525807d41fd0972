// Package receipt turns a committed sale into a printable document.
// Per-item discounts and line totals are recomputed from the sale's raw
// item fields with the cart pricing formulas, so a receipt can never
// disagree with what the pricing engine charged.
package receipt

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/community-vercel/alwaqas-pos/internal/cart"
	"github.com/community-vercel/alwaqas-pos/internal/domain"
	"github.com/community-vercel/alwaqas-pos/internal/pricing"
)

// ItemRow is one printed line of the receipt.
type ItemRow struct {
	Name      string
	Quantity  int
	UnitPrice float64
	Discount  float64
	LineTotal float64
}

type Document struct {
	ShopName      string
	InvoiceNumber string
	SaleDate      time.Time
	Items         []ItemRow
	Subtotal      float64
	ItemDiscounts float64
	GrandTotal    float64
	PaidAmount    float64
	Change        float64
	PaymentMethod string
	CustomerName  string
}

// Render builds the document for one committed sale.
func Render(shopName string, sale *domain.Sale) Document {
	doc := Document{
		ShopName:      shopName,
		InvoiceNumber: sale.InvoiceNumber,
		SaleDate:      sale.SaleDate,
		Subtotal:      sale.Subtotal,
		ItemDiscounts: sale.ItemDiscounts,
		GrandTotal:    sale.GrandTotal,
		PaidAmount:    sale.PaidAmount,
		Change:        sale.Change,
		PaymentMethod: sale.PaymentMethod,
	}
	if sale.Customer != nil {
		doc.CustomerName = sale.Customer.Name
	}

	for _, item := range sale.Items {
		l := cart.Line{
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			DiscountType:  item.DiscountType,
			DiscountValue: item.Discount,
		}
		doc.Items = append(doc.Items, ItemRow{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  pricing.LineDiscountAmount(l),
			LineTotal: pricing.LineTotal(l),
		})
	}
	return doc
}

// String renders fixed-width text suitable for a thermal printer.
func (d Document) String() string {
	var b strings.Builder

	fmt.Fprintln(&b, d.ShopName)
	fmt.Fprintf(&b, "Invoice: %s\n", d.InvoiceNumber)
	fmt.Fprintf(&b, "Date:    %s\n", d.SaleDate.Format("2006-01-02 15:04"))
	if d.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", d.CustomerName)
	}
	fmt.Fprintln(&b, strings.Repeat("-", 40))

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tQTY\tPRICE\tDISC\tTOTAL")
	for _, it := range d.Items {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\n",
			it.Name, it.Quantity, it.UnitPrice, it.Discount, it.LineTotal)
	}
	w.Flush()

	fmt.Fprintln(&b, strings.Repeat("-", 40))
	fmt.Fprintf(&b, "Subtotal:   %10.2f\n", d.Subtotal)
	fmt.Fprintf(&b, "Discounts:  %10.2f\n", d.ItemDiscounts)
	fmt.Fprintf(&b, "TOTAL:      %10.2f\n", d.GrandTotal)
	fmt.Fprintf(&b, "Paid (%s): %10.2f\n", d.PaymentMethod, d.PaidAmount)
	fmt.Fprintf(&b, "Change:     %10.2f\n", d.Change)
	return b.String()
}
