// Package seed loads a small demonstration catalog and a few pending
// orders so a fresh server has data to work with.
package seed

import (
	"context"
	"fmt"
	"time"

	"quirkventory/internal/inventory"
	"quirkventory/internal/order"
)

func Load(ctx context.Context, inv *inventory.Instrumented, orders *order.InstrumentedManager) error {
	now := time.Now()

	products := []*inventory.Product{}

	laptop, err := inventory.NewProduct("ELEC-001", "Laptop", "Electronics", 999.99, 15)
	if err != nil {
		return err
	}
	products = append(products, laptop)

	mouse, err := inventory.NewProduct("ELEC-002", "Wireless Mouse", "Electronics", 29.99, 50)
	if err != nil {
		return err
	}
	products = append(products, mouse)

	keyboard, err := inventory.NewProduct("ELEC-003", "Mechanical Keyboard", "Electronics", 89.99, 8)
	if err != nil {
		return err
	}
	products = append(products, keyboard)

	milk, err := inventory.NewPerishableProduct("FOOD-001", "Organic Milk", "Food",
		4.99, 30, now.Add(7*24*time.Hour), "Refrigerated", 4.0)
	if err != nil {
		return err
	}
	products = append(products, milk)

	yogurt, err := inventory.NewPerishableProduct("FOOD-002", "Greek Yogurt", "Food",
		5.49, 20, now.Add(3*24*time.Hour), "Refrigerated", 4.0)
	if err != nil {
		return err
	}
	products = append(products, yogurt)

	// Expired on purpose, to exercise expiry reporting.
	bread, err := inventory.NewPerishableProduct("FOOD-003", "Sourdough Bread", "Food",
		3.99, 5, now.Add(-24*time.Hour), "Room temperature", 20.0)
	if err != nil {
		return err
	}
	products = append(products, bread)

	for _, p := range products {
		if !inv.AddProduct(ctx, p) {
			return fmt.Errorf("duplicate seed product: %s", p.ID())
		}
	}

	inv.SetCategoryThreshold("Food", 25)

	o1, err := orders.CreateOrder(ctx, "ORD-1001", "CUST-001")
	if err != nil {
		return err
	}
	o1.AddItem("ELEC-001", 1, 999.99)
	o1.AddItem("ELEC-002", 2, 29.99)

	o2, err := orders.CreateOrder(ctx, "ORD-1002", "CUST-002")
	if err != nil {
		return err
	}
	o2.AddItem("FOOD-001", 4, 4.99)
	o2.AddItem("FOOD-002", 2, 5.49)

	return nil
}
