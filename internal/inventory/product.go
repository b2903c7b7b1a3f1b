package inventory

import (
	"fmt"
	"time"
)

// PerishableInfo carries the extra attributes of a perishable product.
type PerishableInfo struct {
	ExpiryDate          time.Time
	StorageRequirements string
	StorageTemperature  float64
}

// Product is a stocked item identified by a unique ID. Quantity and price
// mutations validate their arguments but do not lock; the owning Inventory
// serializes all access.
type Product struct {
	id         string
	name       string
	category   string
	price      float64
	quantity   int
	createdAt  time.Time
	perishable *PerishableInfo
}

func NewProduct(id, name, category string, price float64, quantity int) (*Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product ID cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	if price < 0 {
		return nil, fmt.Errorf("product price cannot be negative")
	}
	if quantity < 0 {
		return nil, fmt.Errorf("product quantity cannot be negative")
	}

	return &Product{
		id:        id,
		name:      name,
		category:  category,
		price:     price,
		quantity:  quantity,
		createdAt: time.Now(),
	}, nil
}

func NewPerishableProduct(id, name, category string, price float64, quantity int, expiry time.Time, storageRequirements string, storageTemperature float64) (*Product, error) {
	p, err := NewProduct(id, name, category, price, quantity)
	if err != nil {
		return nil, err
	}

	p.perishable = &PerishableInfo{
		ExpiryDate:          expiry,
		StorageRequirements: storageRequirements,
		StorageTemperature:  storageTemperature,
	}
	return p, nil
}

func (p *Product) ID() string           { return p.id }
func (p *Product) Name() string         { return p.name }
func (p *Product) Category() string     { return p.category }
func (p *Product) Price() float64       { return p.price }
func (p *Product) Quantity() int        { return p.quantity }
func (p *Product) CreatedAt() time.Time { return p.createdAt }
func (p *Product) IsPerishable() bool   { return p.perishable != nil }

// Perishable returns a copy of the perishable attributes and whether the
// product has any.
func (p *Product) Perishable() (PerishableInfo, bool) {
	if p.perishable == nil {
		return PerishableInfo{}, false
	}
	return *p.perishable, true
}

// TotalValue is price times quantity on hand.
func (p *Product) TotalValue() float64 { return p.price * float64(p.quantity) }

func (p *Product) IsLowStock(threshold int) bool { return p.quantity < threshold }

func (p *Product) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("product name cannot be empty")
	}
	p.name = name
	return nil
}

func (p *Product) SetCategory(category string) { p.category = category }

func (p *Product) SetPrice(price float64) error {
	if price < 0 {
		return fmt.Errorf("product price cannot be negative")
	}
	p.price = price
	return nil
}

func (p *Product) SetQuantity(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("product quantity cannot be negative")
	}
	p.quantity = quantity
	return nil
}

func (p *Product) AddQuantity(amount int) error {
	if amount < 0 {
		return fmt.Errorf("amount to add cannot be negative")
	}
	p.quantity += amount
	return nil
}

// RemoveQuantity decrements stock. The check and the decrement happen in one
// step under the caller's lock, so quantity can never go negative.
func (p *Product) RemoveQuantity(amount int) error {
	if amount < 0 {
		return fmt.Errorf("amount to remove cannot be negative")
	}
	if amount > p.quantity {
		return fmt.Errorf("cannot remove %d units, only %d available", amount, p.quantity)
	}
	p.quantity -= amount
	return nil
}

// IsExpired reports whether a perishable product is past its expiry date.
// Non-perishable products never expire.
func (p *Product) IsExpired() bool {
	if p.perishable == nil {
		return false
	}
	return time.Now().After(p.perishable.ExpiryDate)
}

// DaysUntilExpiry returns the number of whole days until expiry (negative
// once expired) and false for non-perishable products.
func (p *Product) DaysUntilExpiry() (int, bool) {
	if p.perishable == nil {
		return 0, false
	}
	hours := time.Until(p.perishable.ExpiryDate).Hours()
	return int(hours / 24), true
}

// ExpiresSoon reports whether a perishable product is expired or expires
// within the given number of days.
func (p *Product) ExpiresSoon(days int) bool {
	if p.perishable == nil {
		return false
	}
	if p.IsExpired() {
		return true
	}
	d, _ := p.DaysUntilExpiry()
	return d <= days
}

func (p *Product) ExpiryInfo() string {
	if p.perishable == nil {
		return "Non-perishable"
	}
	if p.IsExpired() {
		return "EXPIRED"
	}
	d, _ := p.DaysUntilExpiry()
	return fmt.Sprintf("%d days remaining", d)
}

// Clone returns an independent copy of the product.
func (p *Product) Clone() *Product {
	cp := *p
	if p.perishable != nil {
		info := *p.perishable
		cp.perishable = &info
	}
	return &cp
}
