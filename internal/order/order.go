package order

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"quirkventory/internal/inventory"
)

// DefaultPriceTolerance is the fraction by which an order's recorded unit
// price may deviate from the inventory's current price before validation
// flags it. Tunable per order via SetPriceTolerance.
const DefaultPriceTolerance = 0.05

// Stock is the inventory surface an order needs: a read-only snapshot for
// validation and the two atomic quantity primitives for reservation and
// compensation. *inventory.Inventory satisfies it.
type Stock interface {
	GetProduct(id string) (*inventory.Product, bool)
	RemoveQuantity(id string, amount int) bool
	AddQuantity(id string, amount int) bool
}

// Item is one order line.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice float64
}

func (it Item) TotalPrice() float64 { return float64(it.Quantity) * it.UnitPrice }

// Order is a customer order. Mutable state is guarded by a single mutex; the
// processing flag is an independent lock-free guard ensuring at most one
// processing attempt runs at a time.
type Order struct {
	id         string
	customerID string

	mu             sync.Mutex
	items          []Item
	status         Status
	orderDate      time.Time
	processedDate  time.Time
	totalAmount    float64
	notes          string
	errorMessage   string
	priceTolerance float64

	processing atomic.Bool
}

func New(orderID, customerID string) (*Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order ID cannot be empty")
	}
	if customerID == "" {
		return nil, fmt.Errorf("customer ID cannot be empty")
	}

	return &Order{
		id:             orderID,
		customerID:     customerID,
		status:         StatusPending,
		orderDate:      time.Now(),
		priceTolerance: DefaultPriceTolerance,
	}, nil
}

func (o *Order) ID() string { return o.id }

func (o *Order) CustomerID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.customerID
}

func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Order) OrderDate() time.Time { return o.orderDate }

// ProcessedDate returns the time processing finished and false if the order
// has not been processed.
func (o *Order) ProcessedDate() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processedDate, !o.processedDate.IsZero()
}

func (o *Order) TotalAmount() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalAmount
}

func (o *Order) Notes() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.notes
}

func (o *Order) ErrorMessage() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.errorMessage
}

func (o *Order) IsProcessing() bool { return o.processing.Load() }

func (o *Order) SetNotes(notes string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notes = notes
}

// SetCustomerID is allowed only while the order is still modifiable.
func (o *Order) SetCustomerID(customerID string) error {
	if customerID == "" {
		return fmt.Errorf("customer ID cannot be empty")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusPending {
		return fmt.Errorf("cannot modify order in status %s", o.status)
	}
	o.customerID = customerID
	return nil
}

// SetPriceTolerance overrides the validation price tolerance for this order.
func (o *Order) SetPriceTolerance(tolerance float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if tolerance >= 0 {
		o.priceTolerance = tolerance
	}
}

// CanModify reports whether items may still be changed.
func (o *Order) CanModify() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status == StatusPending
}

// AddItem appends an order line. Adding a product already present merges
// into the existing line by incrementing its quantity.
func (o *Order) AddItem(productID string, quantity int, unitPrice float64) bool {
	if productID == "" || quantity <= 0 || unitPrice < 0 {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusPending {
		return false
	}

	for i := range o.items {
		if o.items[i].ProductID == productID {
			o.items[i].Quantity += quantity
			o.recalcTotalLocked()
			return true
		}
	}

	o.items = append(o.items, Item{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice})
	o.recalcTotalLocked()
	return true
}

func (o *Order) RemoveItem(productID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusPending {
		return false
	}

	for i := range o.items {
		if o.items[i].ProductID == productID {
			o.items = append(o.items[:i], o.items[i+1:]...)
			o.recalcTotalLocked()
			return true
		}
	}
	return false
}

// UpdateItemQuantity sets a new quantity for an existing line; a quantity of
// zero or less removes the line.
func (o *Order) UpdateItemQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		return o.RemoveItem(productID)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusPending {
		return false
	}

	for i := range o.items {
		if o.items[i].ProductID == productID {
			o.items[i].Quantity = quantity
			o.recalcTotalLocked()
			return true
		}
	}
	return false
}

// Items returns a copy of the order lines in insertion order.
func (o *Order) Items() []Item {
	o.mu.Lock()
	defer o.mu.Unlock()

	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// Item returns the line for a product and whether it exists.
func (o *Order) Item(productID string) (Item, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, it := range o.items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

func (o *Order) recalcTotalLocked() {
	total := 0.0
	for _, it := range o.items {
		total += it.TotalPrice()
	}
	o.totalAmount = total
}

// Validate checks the order against current inventory without mutating
// either side. It returns human-readable findings; an empty slice means the
// order is valid.
func (o *Order) Validate(stock Stock) []string {
	items := o.Items()
	tolerance := o.tolerance()

	if len(items) == 0 {
		return []string{"Order contains no items"}
	}

	var errs []string
	for _, item := range items {
		p, ok := stock.GetProduct(item.ProductID)
		if !ok {
			errs = append(errs, "Product not found: "+item.ProductID)
			continue
		}

		if p.Quantity() < item.Quantity {
			errs = append(errs, fmt.Sprintf("Insufficient quantity for product %s: requested %d, available %d",
				item.ProductID, item.Quantity, p.Quantity()))
		}

		if p.IsExpired() {
			errs = append(errs, "Product is expired: "+item.ProductID)
		}

		if diff := p.Price() - item.UnitPrice; diff > p.Price()*tolerance || -diff > p.Price()*tolerance {
			errs = append(errs, fmt.Sprintf("Price mismatch for product %s: order price $%.2f, current price $%.2f",
				item.ProductID, item.UnitPrice, p.Price()))
		}
	}
	return errs
}

func (o *Order) tolerance() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.priceTolerance
}

// Process runs the reservation algorithm: claim the processing flag, move to
// PROCESSING, validate, reserve each item in insertion order, and either
// confirm or roll back every already-reserved item and fail. Concurrent
// callers lose the flag race and are rejected immediately.
func (o *Order) Process(stock Stock) bool {
	if !o.processing.CompareAndSwap(false, true) {
		o.setError("Order is already being processed")
		return false
	}
	defer o.processing.Store(false)

	return o.process(stock)
}

// ProcessAsync runs Process in its own goroutine and delivers the result on
// the returned channel. The work cannot be cancelled once started.
func (o *Order) ProcessAsync(stock Stock) <-chan bool {
	result := make(chan bool, 1)
	go func() {
		result <- o.Process(stock)
	}()
	return result
}

func (o *Order) process(stock Stock) bool {
	if !o.UpdateStatus(StatusProcessing) {
		o.setError("Cannot process order in current status")
		return false
	}

	if errs := o.Validate(stock); len(errs) > 0 {
		o.setError("Validation failed: " + strings.Join(errs, "; "))
		o.UpdateStatus(StatusFailed)
		return false
	}

	// Reserve in insertion order so a failure rolls back a deterministic
	// prefix.
	items := o.Items()
	reserved := make([]Item, 0, len(items))
	for _, item := range items {
		if !stock.RemoveQuantity(item.ProductID, item.Quantity) {
			for _, r := range reserved {
				// Compensating increments cannot fail for an existing
				// product, so the result is not consulted.
				stock.AddQuantity(r.ProductID, r.Quantity)
			}
			o.setError("Failed to reserve inventory for product: " + item.ProductID)
			o.UpdateStatus(StatusFailed)
			return false
		}
		reserved = append(reserved, item)
	}

	o.UpdateStatus(StatusConfirmed)
	return true
}

// Cancel moves the order to CANCELLED unless it has already shipped or been
// delivered. Cancellation never touches inventory; stock is only held by an
// order between a successful Process and nothing else.
func (o *Order) Cancel(reason string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusShipped || o.status == StatusDelivered {
		return false
	}

	o.status = StatusCancelled
	if reason != "" {
		o.notes = reason
	}
	return true
}

// UpdateStatus attempts a state-machine transition and reports whether it
// was legal. Transitions out of terminal states always fail.
func (o *Order) UpdateStatus(target Status) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.status.CanTransitionTo(target) {
		return false
	}

	o.status = target
	if target == StatusConfirmed || target == StatusFailed {
		o.processedDate = time.Now()
	}
	return true
}

func (o *Order) setError(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errorMessage = message
}

// ProcessingDuration is the time from order creation to the end of
// processing; false if the order has not been processed.
func (o *Order) ProcessingDuration() (time.Duration, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.processedDate.IsZero() {
		return 0, false
	}
	return o.processedDate.Sub(o.orderDate), true
}

// Summary is a short human-readable description for display layers.
func (o *Order) Summary() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Order ID: %s\n", o.id)
	fmt.Fprintf(&b, "Customer: %s\n", o.customerID)
	fmt.Fprintf(&b, "Status: %s\n", o.status)
	fmt.Fprintf(&b, "Items: %d\n", len(o.items))
	fmt.Fprintf(&b, "Total: $%.2f", o.totalAmount)
	if o.errorMessage != "" {
		fmt.Fprintf(&b, "\nError: %s", o.errorMessage)
	}
	return b.String()
}

// DetailedInfo includes every order line.
func (o *Order) DetailedInfo() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Order ID: %s\n", o.id)
	fmt.Fprintf(&b, "Customer ID: %s\n", o.customerID)
	fmt.Fprintf(&b, "Status: %s\n", o.status)
	fmt.Fprintf(&b, "Order Date: %s\n", o.orderDate.Format("2006-01-02 15:04:05"))
	if !o.processedDate.IsZero() {
		fmt.Fprintf(&b, "Processed Date: %s\n", o.processedDate.Format("2006-01-02 15:04:05"))
	}
	if o.notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", o.notes)
	}
	for _, it := range o.items {
		fmt.Fprintf(&b, "- Product: %s, Qty: %d, Unit Price: $%.2f, Total: $%.2f\n",
			it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice())
	}
	fmt.Fprintf(&b, "Order Total: $%.2f", o.totalAmount)
	if o.errorMessage != "" {
		fmt.Fprintf(&b, "\nError: %s", o.errorMessage)
	}
	return b.String()
}
