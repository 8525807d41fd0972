package domain

// Product is the read-only copy of a catalog product as served by the
// remote Catalog API. Stock counts are authoritative only at fetch time.
type Product struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Packing           string  `json:"packing"`
	Unit              string  `json:"unit"`
	SalePrice         float64 `json:"salePrice"`
	PurchasePrice     float64 `json:"purchasePrice"`
	QuantityAvailable int     `json:"quantityAvailable"`
	Barcode           string  `json:"barcode,omitempty"`
	IsActive          bool    `json:"isActive"`
}
