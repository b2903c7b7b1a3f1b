package order

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"quirkventory/internal/inventory"
)

func TestCreateOrderRejectsDuplicateID(t *testing.T) {
	m := NewManager()

	_, err := m.CreateOrder("O1", "C1")
	require.NoError(t, err)

	_, err = m.CreateOrder("O1", "C2")
	require.ErrorContains(t, err, "order ID already exists: O1")

	_, err = m.CreateOrder("", "C1")
	require.Error(t, err)

	require.Equal(t, 1, m.TotalOrderCount())
}

func TestOrderLookups(t *testing.T) {
	m := NewManager()

	o1, err := m.CreateOrder("O1", "C1")
	require.NoError(t, err)
	_, err = m.CreateOrder("O2", "C1")
	require.NoError(t, err)
	_, err = m.CreateOrder("O3", "C2")
	require.NoError(t, err)

	got, ok := m.Order("O1")
	require.True(t, ok)
	require.Same(t, o1, got)

	_, ok = m.Order("missing")
	require.False(t, ok)

	require.Len(t, m.AllOrders(), 3)
	require.Len(t, m.OrdersByCustomer("C1"), 2)
	require.Len(t, m.OrdersByStatus(StatusPending), 3)

	require.True(t, o1.Cancel(""))
	require.Len(t, m.OrdersByStatus(StatusPending), 2)
	require.Len(t, m.OrdersByStatus(StatusCancelled), 1)
}

func TestProcessOrderByID(t *testing.T) {
	m := NewManager()
	stock := newTestStock(t)

	o, err := m.CreateOrder("O1", "C1")
	require.NoError(t, err)
	o.AddItem("P1", 2, 999.99)

	ok, err := m.ProcessOrder("O1", stock)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 8, stock.AvailableQuantity("P1"))

	_, err = m.ProcessOrder("missing", stock)
	require.ErrorContains(t, err, "order not found: missing")
}

// Five orders each wanting 3 units of a 10-unit product: exactly three can
// succeed regardless of scheduling, leaving one unit behind.
func TestProcessAllPendingContention(t *testing.T) {
	m := NewManager()

	inv := inventory.New(0)
	p, err := inventory.NewProduct("P1", "Laptop", "Electronics", 100.0, 10)
	require.NoError(t, err)
	require.True(t, inv.AddProduct(p))

	for i := 1; i <= 5; i++ {
		o, err := m.CreateOrder(fmt.Sprintf("O%d", i), "C1")
		require.NoError(t, err)
		o.AddItem("P1", 3, 100.0)
	}

	successful := m.ProcessAllPending(inv, 2)

	require.Equal(t, 3, successful)
	require.Equal(t, 1, inv.AvailableQuantity("P1"))
	require.Len(t, m.OrdersByStatus(StatusConfirmed), 3)
	require.Len(t, m.OrdersByStatus(StatusFailed), 2)
	require.Empty(t, m.OrdersByStatus(StatusPending))
}

// Same contention with every order in one fully concurrent batch: racing
// orders may pass validation and lose only at reservation, but the atomic
// check-and-decrement still admits exactly three.
func TestProcessAllPendingSingleBatchRace(t *testing.T) {
	m := NewManager()

	inv := inventory.New(0)
	p, err := inventory.NewProduct("P1", "Laptop", "Electronics", 100.0, 10)
	require.NoError(t, err)
	require.True(t, inv.AddProduct(p))

	for i := 1; i <= 5; i++ {
		o, err := m.CreateOrder(fmt.Sprintf("O%d", i), "C1")
		require.NoError(t, err)
		o.AddItem("P1", 3, 100.0)
	}

	successful := m.ProcessAllPending(inv, 5)

	require.Equal(t, 3, successful)
	require.Equal(t, 1, inv.AvailableQuantity("P1"))
	require.Len(t, m.OrdersByStatus(StatusConfirmed), 3)
	require.Len(t, m.OrdersByStatus(StatusFailed), 2)
}

func TestProcessAllPendingClampsConcurrency(t *testing.T) {
	m := NewManager()
	stock := newTestStock(t)

	o, err := m.CreateOrder("O1", "C1")
	require.NoError(t, err)
	o.AddItem("P1", 1, 999.99)

	require.Equal(t, 1, m.ProcessAllPending(stock, 0))
}

func TestClearCompletedOrders(t *testing.T) {
	m := NewManager()

	delivered, _ := m.CreateOrder("O1", "C1")
	require.True(t, delivered.UpdateStatus(StatusProcessing))
	require.True(t, delivered.UpdateStatus(StatusConfirmed))
	require.True(t, delivered.UpdateStatus(StatusShipped))
	require.True(t, delivered.UpdateStatus(StatusDelivered))

	cancelled, _ := m.CreateOrder("O2", "C1")
	require.True(t, cancelled.Cancel(""))

	failed, _ := m.CreateOrder("O3", "C1")
	require.True(t, failed.UpdateStatus(StatusFailed))

	pending, _ := m.CreateOrder("O4", "C1")
	_ = pending

	require.Equal(t, 2, m.ClearCompletedOrders())
	require.Equal(t, 2, m.TotalOrderCount())

	_, ok := m.Order("O3")
	require.True(t, ok, "failed orders are retained for inspection")
	_, ok = m.Order("O4")
	require.True(t, ok)
}

func TestRemoveOrder(t *testing.T) {
	m := NewManager()
	_, err := m.CreateOrder("O1", "C1")
	require.NoError(t, err)

	require.True(t, m.RemoveOrder("O1"))
	require.False(t, m.RemoveOrder("O1"))
	require.Equal(t, 0, m.TotalOrderCount())
}

func TestStats(t *testing.T) {
	m := NewManager()
	stock := newTestStock(t)

	good, _ := m.CreateOrder("O1", "C1")
	good.AddItem("P1", 1, 999.99)

	bad, _ := m.CreateOrder("O2", "C1")
	bad.AddItem("P2", 50, 29.99)

	ok, err := m.ProcessOrder("O1", stock)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.ProcessOrder("O2", stock)
	require.NoError(t, err)
	require.False(t, ok)

	stats := m.Stats()
	require.Equal(t, 2, stats.TotalOrders)
	require.Equal(t, int64(2), stats.Processed)
	require.Equal(t, int64(1), stats.Succeeded)
	require.Equal(t, int64(1), stats.Failed)
	require.Equal(t, 50.0, stats.SuccessRate)
	require.Equal(t, 1, stats.ByStatus[StatusConfirmed])
	require.Equal(t, 1, stats.ByStatus[StatusFailed])
}

func TestStatsEmptyManager(t *testing.T) {
	m := NewManager()
	stats := m.Stats()
	require.Equal(t, 0, stats.TotalOrders)
	require.Equal(t, 0.0, stats.SuccessRate)
}
