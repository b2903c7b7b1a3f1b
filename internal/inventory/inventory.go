package inventory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// AlertFunc receives formatted low-stock and expiry alert messages. Callbacks
// run synchronously under the inventory lock; panics are swallowed so a
// misbehaving observer cannot destabilize stock mutation.
type AlertFunc func(message string)

// Inventory is the thread-safe store of products. A single mutex serializes
// every read and write; correctness over throughput.
type Inventory struct {
	mu                 sync.Mutex
	products           map[string]*Product
	defaultThreshold   int
	categoryThresholds map[string]int
	alertCallbacks     []AlertFunc
}

func New(defaultThreshold int) *Inventory {
	return &Inventory{
		products:           make(map[string]*Product),
		defaultThreshold:   defaultThreshold,
		categoryThresholds: make(map[string]int),
	}
}

// AddProduct takes ownership of the product. It fails if the ID is already
// present.
func (inv *Inventory) AddProduct(p *Product) bool {
	if p == nil {
		return false
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, exists := inv.products[p.ID()]; exists {
		return false
	}
	inv.products[p.ID()] = p
	return true
}

func (inv *Inventory) RemoveProduct(id string) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, exists := inv.products[id]; !exists {
		return false
	}
	delete(inv.products, id)
	return true
}

func (inv *Inventory) HasProduct(id string) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	_, exists := inv.products[id]
	return exists
}

// GetProduct returns a snapshot copy of the product, so callers never hold a
// reference into guarded state.
func (inv *Inventory) GetProduct(id string) (*Product, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, exists := inv.products[id]
	if !exists {
		return nil, false
	}
	return p.Clone(), true
}

// AvailableQuantity returns the quantity on hand, or -1 if the product does
// not exist.
func (inv *Inventory) AvailableQuantity(id string) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, exists := inv.products[id]
	if !exists {
		return -1
	}
	return p.Quantity()
}

func (inv *Inventory) SetQuantity(id string, quantity int) bool {
	if quantity < 0 {
		return false
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, exists := inv.products[id]
	if !exists {
		return false
	}
	return p.SetQuantity(quantity) == nil
}

// AddQuantity increments stock for a product. Used both for restocking and
// for compensating a failed reservation.
func (inv *Inventory) AddQuantity(id string, amount int) bool {
	if amount < 0 {
		return false
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, exists := inv.products[id]
	if !exists {
		return false
	}
	return p.AddQuantity(amount) == nil
}

// RemoveQuantity decrements stock for a product. The sufficiency check and
// the decrement are atomic under the inventory lock. When the result drops
// below the effective threshold, all registered alert callbacks fire.
func (inv *Inventory) RemoveQuantity(id string, amount int) bool {
	if amount < 0 {
		return false
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, exists := inv.products[id]
	if !exists {
		return false
	}
	if err := p.RemoveQuantity(amount); err != nil {
		return false
	}

	threshold := inv.thresholdLocked(id)
	if p.Quantity() < threshold {
		inv.sendAlertLocked(fmt.Sprintf(
			"LOW STOCK ALERT: Product %q (ID: %s) is now at %d units (threshold: %d)",
			p.Name(), id, p.Quantity(), threshold))
	}
	return true
}

// SetCategoryThreshold overrides the low-stock threshold for a category.
func (inv *Inventory) SetCategoryThreshold(category string, threshold int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.categoryThresholds[category] = threshold
}

// Threshold resolves the effective low-stock threshold for a product:
// category override if present, else the store-wide default.
func (inv *Inventory) Threshold(id string) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.thresholdLocked(id)
}

func (inv *Inventory) thresholdLocked(id string) int {
	p, exists := inv.products[id]
	if !exists {
		return inv.defaultThreshold
	}
	if t, ok := inv.categoryThresholds[p.Category()]; ok {
		return t
	}
	return inv.defaultThreshold
}

func (inv *Inventory) RegisterAlertCallback(fn AlertFunc) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.alertCallbacks = append(inv.alertCallbacks, fn)
}

func (inv *Inventory) sendAlertLocked(message string) {
	for _, fn := range inv.alertCallbacks {
		func() {
			defer func() { _ = recover() }()
			fn(message)
		}()
	}
}

// AllProducts returns snapshot copies of every product, sorted by ID.
func (inv *Inventory) AllProducts() []*Product {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.collectLocked(func(*Product) bool { return true })
}

func (inv *Inventory) ProductsByCategory(category string) []*Product {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.collectLocked(func(p *Product) bool { return p.Category() == category })
}

// SearchByName returns products whose name contains the pattern,
// case-insensitive.
func (inv *Inventory) SearchByName(pattern string) []*Product {
	lower := strings.ToLower(pattern)

	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.collectLocked(func(p *Product) bool {
		return strings.Contains(strings.ToLower(p.Name()), lower)
	})
}

func (inv *Inventory) LowStockProducts() []*Product {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.collectLocked(func(p *Product) bool {
		return p.IsLowStock(inv.thresholdLocked(p.ID()))
	})
}

func (inv *Inventory) ExpiredProducts() []*Product {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.collectLocked(func(p *Product) bool { return p.IsExpired() })
}

func (inv *Inventory) ExpiringSoonProducts(days int) []*Product {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.collectLocked(func(p *Product) bool { return p.ExpiresSoon(days) })
}

func (inv *Inventory) collectLocked(match func(*Product) bool) []*Product {
	var result []*Product
	for _, p := range inv.products {
		if match(p) {
			result = append(result, p.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

func (inv *Inventory) TotalProductCount() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.products)
}

func (inv *Inventory) TotalQuantity() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	total := 0
	for _, p := range inv.products {
		total += p.Quantity()
	}
	return total
}

func (inv *Inventory) TotalValue() float64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	total := 0.0
	for _, p := range inv.products {
		total += p.TotalValue()
	}
	return total
}

func (inv *Inventory) ValueByCategory() map[string]float64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	values := make(map[string]float64)
	for _, p := range inv.products {
		values[p.Category()] += p.TotalValue()
	}
	return values
}

// CheckLowStockAlerts fires a summary alert if any product is below its
// effective threshold.
func (inv *Inventory) CheckLowStockAlerts() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	low := inv.collectLocked(func(p *Product) bool {
		return p.IsLowStock(inv.thresholdLocked(p.ID()))
	})
	if len(low) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LOW STOCK ALERT: %d products are low in stock:\n", len(low))
	for _, p := range low {
		fmt.Fprintf(&b, "- %s (ID: %s) - Current: %d, Threshold: %d\n",
			p.Name(), p.ID(), p.Quantity(), inv.thresholdLocked(p.ID()))
	}
	inv.sendAlertLocked(b.String())
}

// CheckExpiryAlerts fires alerts for expired products and for products
// expiring within seven days.
func (inv *Inventory) CheckExpiryAlerts() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	expired := inv.collectLocked(func(p *Product) bool { return p.IsExpired() })
	expiring := inv.collectLocked(func(p *Product) bool { return !p.IsExpired() && p.ExpiresSoon(7) })

	if len(expired) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "EXPIRED PRODUCTS ALERT: %d products have expired:\n", len(expired))
		for _, p := range expired {
			fmt.Fprintf(&b, "- %s (ID: %s) - %s\n", p.Name(), p.ID(), p.ExpiryInfo())
		}
		inv.sendAlertLocked(b.String())
	}

	if len(expiring) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "EXPIRING SOON ALERT: %d products expire soon:\n", len(expiring))
		for _, p := range expiring {
			fmt.Fprintf(&b, "- %s (ID: %s) - %s\n", p.Name(), p.ID(), p.ExpiryInfo())
		}
		inv.sendAlertLocked(b.String())
	}
}

// Validate checks store consistency and returns human-readable findings.
func (inv *Inventory) Validate() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	var errs []string
	for _, p := range inv.products {
		if p.Quantity() < 0 {
			errs = append(errs, fmt.Sprintf("product %s has negative quantity: %d", p.ID(), p.Quantity()))
		}
		if p.Price() < 0 {
			errs = append(errs, fmt.Sprintf("product %s has negative price: $%.2f", p.ID(), p.Price()))
		}
		if p.IsExpired() {
			errs = append(errs, fmt.Sprintf("product %s (%s) has expired: %s", p.ID(), p.Name(), p.ExpiryInfo()))
		}
	}
	return errs
}
