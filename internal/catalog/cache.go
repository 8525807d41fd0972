package catalog

import (
	"sort"
	"sync"

	"github.com/community-vercel/alwaqas-pos/internal/domain"
)

// Cache is the terminal's last-known copy of the product catalog. Reads
// serve searches and barcode lookups; the single writer besides Refresh
// is the checkout orchestrator decrementing stock after a committed
// sale.
type Cache struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewCache() *Cache {
	return &Cache{products: make(map[string]domain.Product)}
}

// ReplaceAll swaps the whole cached catalog for a fresh fetch. Cart
// lines keep their own stock snapshots; a refresh only changes the
// ceiling for future adds.
func (c *Cache) ReplaceAll(products []domain.Product) {
	next := make(map[string]domain.Product, len(products))
	for _, p := range products {
		next[p.ID] = p
	}
	c.mu.Lock()
	c.products = next
	c.mu.Unlock()
}

func (c *Cache) Get(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	return p, ok
}

// List returns all cached products sorted by name.
func (c *Cache) List() []domain.Product {
	c.mu.RLock()
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DecrementStock reduces a product's cached quantity after a sale,
// flooring at zero. Unknown ids are ignored: the sale is already
// committed remotely and the next refresh will converge anyway.
func (c *Cache) DecrementStock(id string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return
	}
	p.QuantityAvailable -= qty
	if p.QuantityAvailable < 0 {
		p.QuantityAvailable = 0
	}
	c.products[id] = p
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
