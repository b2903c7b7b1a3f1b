package order

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Manager owns the order registry and drives batched concurrent processing.
// Structural changes to the registry take the manager lock; the running
// counters are plain atomics.
type Manager struct {
	mu     sync.Mutex
	orders map[string]*Order

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// Stats is a point-in-time snapshot of processing counters.
type Stats struct {
	TotalOrders int
	Processed   int64
	Succeeded   int64
	Failed      int64
	SuccessRate float64
	ByStatus    map[Status]int
}

func NewManager() *Manager {
	return &Manager{orders: make(map[string]*Order)}
}

// CreateOrder registers a new order. Duplicate IDs are rejected.
func (m *Manager) CreateOrder(orderID, customerID string) (*Order, error) {
	o, err := New(orderID, customerID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[orderID]; exists {
		return nil, fmt.Errorf("order ID already exists: %s", orderID)
	}
	m.orders[orderID] = o
	return o, nil
}

func (m *Manager) Order(orderID string) (*Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	return o, ok
}

func (m *Manager) AllOrders() []*Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		result = append(result, o)
	}
	return result
}

func (m *Manager) OrdersByStatus(status Status) []*Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*Order
	for _, o := range m.orders {
		if o.Status() == status {
			result = append(result, o)
		}
	}
	return result
}

func (m *Manager) OrdersByCustomer(customerID string) []*Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*Order
	for _, o := range m.orders {
		if o.CustomerID() == customerID {
			result = append(result, o)
		}
	}
	return result
}

// ProcessAllPending processes every PENDING order in batches of at most
// maxConcurrent. Orders within a batch run concurrently; the next batch does
// not start until the whole batch has finished. Returns the number of orders
// that processed successfully.
func (m *Manager) ProcessAllPending(stock Stock, maxConcurrent int) int {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	pending := m.OrdersByStatus(StatusPending)
	successful := 0

	for start := 0; start < len(pending); start += maxConcurrent {
		batch := pending[start:min(start+maxConcurrent, len(pending))]

		results := make(chan bool, len(batch))
		var wg sync.WaitGroup
		for _, o := range batch {
			o := o
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- o.Process(stock)
			}()
		}
		wg.Wait()
		close(results)

		for ok := range results {
			m.recordResult(ok)
			if ok {
				successful++
			}
		}
	}

	return successful
}

// ProcessOrder processes a single order by ID and records the result in the
// running counters.
func (m *Manager) ProcessOrder(orderID string, stock Stock) (bool, error) {
	o, ok := m.Order(orderID)
	if !ok {
		return false, fmt.Errorf("order not found: %s", orderID)
	}

	result := o.Process(stock)
	m.recordResult(result)
	return result, nil
}

func (m *Manager) recordResult(success bool) {
	m.processed.Add(1)
	if success {
		m.succeeded.Add(1)
	} else {
		m.failed.Add(1)
	}
}

func (m *Manager) RemoveOrder(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[orderID]; !exists {
		return false
	}
	delete(m.orders, orderID)
	return true
}

func (m *Manager) TotalOrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// ClearCompletedOrders removes DELIVERED and CANCELLED orders. FAILED orders
// are retained for inspection. Returns the number removed.
func (m *Manager) ClearCompletedOrders() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleared := 0
	for id, o := range m.orders {
		status := o.Status()
		if status == StatusDelivered || status == StatusCancelled {
			delete(m.orders, id)
			cleared++
		}
	}
	return cleared
}

func (m *Manager) Stats() Stats {
	byStatus := make(map[Status]int)
	all := m.AllOrders()
	for _, o := range all {
		byStatus[o.Status()]++
	}

	stats := Stats{
		TotalOrders: len(all),
		Processed:   m.processed.Load(),
		Succeeded:   m.succeeded.Load(),
		Failed:      m.failed.Load(),
		ByStatus:    byStatus,
	}
	if stats.Processed > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Processed) * 100.0
	}
	return stats
}
