package order

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quirkventory/internal/inventory"
)

func newTestStock(t *testing.T) *inventory.Inventory {
	t.Helper()

	inv := inventory.New(0)
	laptop, err := inventory.NewProduct("P1", "Laptop", "Electronics", 999.99, 10)
	require.NoError(t, err)
	mouse, err := inventory.NewProduct("P2", "Mouse", "Electronics", 29.99, 5)
	require.NoError(t, err)

	require.True(t, inv.AddProduct(laptop))
	require.True(t, inv.AddProduct(mouse))
	return inv
}

func newPendingOrder(t *testing.T) *Order {
	t.Helper()

	o, err := New("O1", "C1")
	require.NoError(t, err)
	return o
}

func TestNewOrderValidation(t *testing.T) {
	_, err := New("", "C1")
	require.Error(t, err)

	_, err = New("O1", "")
	require.Error(t, err)

	o, err := New("O1", "C1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, o.Status())
	require.False(t, o.IsProcessing())
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusConfirmed, false},
		{StatusProcessing, StatusConfirmed, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusShipped, false},
		{StatusConfirmed, StatusShipped, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusFailed, StatusProcessing, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	require.True(t, StatusDelivered.IsTerminal())
	require.True(t, StatusCancelled.IsTerminal())
	require.True(t, StatusFailed.IsTerminal())
	require.False(t, StatusPending.IsTerminal())
	require.False(t, StatusConfirmed.IsTerminal())
}

func TestAddItemMergesDuplicateLines(t *testing.T) {
	o := newPendingOrder(t)

	require.True(t, o.AddItem("P1", 2, 10.0))
	require.True(t, o.AddItem("P2", 1, 5.0))
	require.True(t, o.AddItem("P1", 3, 10.0))

	items := o.Items()
	require.Len(t, items, 2)
	require.Equal(t, "P1", items[0].ProductID)
	require.Equal(t, 5, items[0].Quantity)
	require.Equal(t, 55.0, o.TotalAmount())
}

func TestAddItemRejectsInvalidArguments(t *testing.T) {
	o := newPendingOrder(t)

	require.False(t, o.AddItem("", 1, 1.0))
	require.False(t, o.AddItem("P1", 0, 1.0))
	require.False(t, o.AddItem("P1", -1, 1.0))
	require.False(t, o.AddItem("P1", 1, -1.0))
	require.Empty(t, o.Items())
}

func TestModifyOnlyWhilePending(t *testing.T) {
	o := newPendingOrder(t)
	require.True(t, o.AddItem("P1", 1, 10.0))

	require.True(t, o.UpdateStatus(StatusProcessing))
	require.False(t, o.CanModify())
	require.False(t, o.AddItem("P2", 1, 5.0))
	require.False(t, o.RemoveItem("P1"))
	require.False(t, o.UpdateItemQuantity("P1", 3))
	require.Error(t, o.SetCustomerID("C2"))
}

func TestUpdateItemQuantityZeroRemovesLine(t *testing.T) {
	o := newPendingOrder(t)
	require.True(t, o.AddItem("P1", 2, 10.0))

	require.True(t, o.UpdateItemQuantity("P1", 0))
	require.Empty(t, o.Items())
	require.Equal(t, 0.0, o.TotalAmount())
}

func TestValidateFindings(t *testing.T) {
	stock := newTestStock(t)

	t.Run("empty order", func(t *testing.T) {
		o := newPendingOrder(t)
		errs := o.Validate(stock)
		require.Equal(t, []string{"Order contains no items"}, errs)
	})

	t.Run("unknown product", func(t *testing.T) {
		o := newPendingOrder(t)
		o.AddItem("missing", 1, 1.0)
		errs := o.Validate(stock)
		require.Len(t, errs, 1)
		require.Contains(t, errs[0], "Product not found: missing")
	})

	t.Run("insufficient quantity", func(t *testing.T) {
		o := newPendingOrder(t)
		o.AddItem("P2", 50, 29.99)
		errs := o.Validate(stock)
		require.Len(t, errs, 1)
		require.Contains(t, errs[0], "Insufficient quantity for product P2")
	})

	t.Run("expired product", func(t *testing.T) {
		expired, err := inventory.NewPerishableProduct("P3", "Old Milk", "Food", 4.99, 10,
			time.Now().Add(-time.Hour), "Refrigerated", 4.0)
		require.NoError(t, err)
		require.True(t, stock.AddProduct(expired))

		o := newPendingOrder(t)
		o.AddItem("P3", 1, 4.99)
		errs := o.Validate(stock)
		require.Len(t, errs, 1)
		require.Contains(t, errs[0], "Product is expired: P3")
	})

	t.Run("price outside tolerance", func(t *testing.T) {
		o := newPendingOrder(t)
		o.AddItem("P1", 1, 899.99) // 10% below current price
		errs := o.Validate(stock)
		require.Len(t, errs, 1)
		require.Contains(t, errs[0], "Price mismatch for product P1")
	})

	t.Run("price within tolerance", func(t *testing.T) {
		o := newPendingOrder(t)
		o.AddItem("P1", 1, 970.0) // ~3% below current price
		require.Empty(t, o.Validate(stock))
	})

	t.Run("custom tolerance", func(t *testing.T) {
		o := newPendingOrder(t)
		o.SetPriceTolerance(0.20)
		o.AddItem("P1", 1, 899.99)
		require.Empty(t, o.Validate(stock))
	})
}

func TestProcessSuccess(t *testing.T) {
	stock := newTestStock(t)
	o := newPendingOrder(t)
	o.AddItem("P1", 3, 999.99)

	require.True(t, o.Process(stock))
	require.Equal(t, StatusConfirmed, o.Status())
	require.Equal(t, 7, stock.AvailableQuantity("P1"))

	_, stamped := o.ProcessedDate()
	require.True(t, stamped)

	_, hasDuration := o.ProcessingDuration()
	require.True(t, hasDuration)
}

func TestProcessValidationFailureLeavesStockUntouched(t *testing.T) {
	stock := newTestStock(t)
	o := newPendingOrder(t)
	o.AddItem("P1", 2, 999.99)
	o.AddItem("P2", 50, 29.99)

	require.False(t, o.Process(stock))
	require.Equal(t, StatusFailed, o.Status())
	require.Contains(t, o.ErrorMessage(), "Validation failed")
	require.Equal(t, 10, stock.AvailableQuantity("P1"))
	require.Equal(t, 5, stock.AvailableQuantity("P2"))

	_, stamped := o.ProcessedDate()
	require.True(t, stamped)
}

func TestProcessFromNonPendingStatusFails(t *testing.T) {
	stock := newTestStock(t)
	o := newPendingOrder(t)
	o.AddItem("P1", 1, 999.99)
	require.True(t, o.Cancel(""))

	require.False(t, o.Process(stock))
	require.Equal(t, StatusCancelled, o.Status())
	require.Contains(t, o.ErrorMessage(), "Cannot process order in current status")
}

// failingStock passes validation but rejects the reservation of one product,
// to exercise the rollback path.
type failingStock struct {
	inner    *inventory.Inventory
	failID   string
	restored []string
}

func (f *failingStock) GetProduct(id string) (*inventory.Product, bool) {
	return f.inner.GetProduct(id)
}

func (f *failingStock) RemoveQuantity(id string, amount int) bool {
	if id == f.failID {
		return false
	}
	return f.inner.RemoveQuantity(id, amount)
}

func (f *failingStock) AddQuantity(id string, amount int) bool {
	f.restored = append(f.restored, id)
	return f.inner.AddQuantity(id, amount)
}

func TestProcessRollsBackReservedPrefix(t *testing.T) {
	stock := newTestStock(t)
	failing := &failingStock{inner: stock, failID: "P2"}

	o := newPendingOrder(t)
	o.AddItem("P1", 4, 999.99)
	o.AddItem("P2", 2, 29.99)

	require.False(t, o.Process(failing))
	require.Equal(t, StatusFailed, o.Status())
	require.Contains(t, o.ErrorMessage(), "Failed to reserve inventory for product: P2")

	// P1 was reserved then compensated.
	require.Equal(t, []string{"P1"}, failing.restored)
	require.Equal(t, 10, stock.AvailableQuantity("P1"))
	require.Equal(t, 5, stock.AvailableQuantity("P2"))
}

// slowStock delays reservation so a second Process call overlaps the first.
type slowStock struct {
	inner *inventory.Inventory
	delay time.Duration
}

func (s *slowStock) GetProduct(id string) (*inventory.Product, bool) {
	return s.inner.GetProduct(id)
}

func (s *slowStock) RemoveQuantity(id string, amount int) bool {
	time.Sleep(s.delay)
	return s.inner.RemoveQuantity(id, amount)
}

func (s *slowStock) AddQuantity(id string, amount int) bool {
	return s.inner.AddQuantity(id, amount)
}

func TestProcessAllowsOnlyOneConcurrentAttempt(t *testing.T) {
	stock := &slowStock{inner: newTestStock(t), delay: 50 * time.Millisecond}

	o := newPendingOrder(t)
	o.AddItem("P1", 1, 999.99)

	results := make(chan bool, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- o.Process(stock)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}

	require.Equal(t, 1, succeeded)
	require.Equal(t, StatusConfirmed, o.Status())
	require.Equal(t, 9, stock.inner.AvailableQuantity("P1"))
}

func TestProcessAsync(t *testing.T) {
	stock := newTestStock(t)
	o := newPendingOrder(t)
	o.AddItem("P1", 1, 999.99)

	select {
	case ok := <-o.ProcessAsync(stock):
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("ProcessAsync did not deliver a result")
	}
	require.Equal(t, StatusConfirmed, o.Status())
}

func TestCancel(t *testing.T) {
	o := newPendingOrder(t)
	require.True(t, o.Cancel("customer changed mind"))
	require.Equal(t, StatusCancelled, o.Status())
	require.Equal(t, "customer changed mind", o.Notes())

	shipped := newPendingOrder(t)
	require.True(t, shipped.UpdateStatus(StatusProcessing))
	require.True(t, shipped.UpdateStatus(StatusConfirmed))
	require.True(t, shipped.UpdateStatus(StatusShipped))
	require.False(t, shipped.Cancel("too late"))
	require.Equal(t, StatusShipped, shipped.Status())

	delivered := shipped
	require.True(t, delivered.UpdateStatus(StatusDelivered))
	require.False(t, delivered.Cancel("far too late"))
}

func TestSummaryAndDetailedInfo(t *testing.T) {
	o := newPendingOrder(t)
	o.AddItem("P1", 2, 10.0)

	summary := o.Summary()
	require.True(t, strings.Contains(summary, "Order ID: O1"))
	require.True(t, strings.Contains(summary, "Total: $20.00"))

	detail := o.DetailedInfo()
	require.True(t, strings.Contains(detail, "Product: P1"))
	require.True(t, strings.Contains(detail, "Qty: 2"))
}
