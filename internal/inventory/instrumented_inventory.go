package inventory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"quirkventory/internal/telemetry"
)

// Instrumented wraps an Inventory with tracing and metrics for the
// operations the presentation layer and order processing drive.
type Instrumented struct {
	*Inventory
	telemetry *telemetry.Provider

	// Metrics
	reservationOps    metric.Int64Counter
	restockOps        metric.Int64Counter
	productGauge      metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
}

func NewInstrumented(inv *Inventory, tp *telemetry.Provider) (*Instrumented, error) {
	meter := tp.Meter()

	reservationOps, err := meter.Int64Counter("inventory_reservation_operations_total",
		metric.WithDescription("Total number of stock reservation operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	restockOps, err := meter.Int64Counter("inventory_restock_operations_total",
		metric.WithDescription("Total number of stock restock operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	productGauge, err := meter.Int64UpDownCounter("inventory_products",
		metric.WithDescription("Current number of distinct products in the store"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("inventory_operation_duration_seconds",
		metric.WithDescription("Duration of inventory operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Instrumented{
		Inventory:         inv,
		telemetry:         tp,
		reservationOps:    reservationOps,
		restockOps:        restockOps,
		productGauge:      productGauge,
		operationDuration: operationDuration,
	}, nil
}

func (ii *Instrumented) AddProduct(ctx context.Context, p *Product) bool {
	tracer := ii.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "inventory.add_product",
		trace.WithAttributes(
			attribute.String("product.id", p.ID()),
			attribute.String("product.category", p.Category()),
		))
	defer span.End()

	start := time.Now()

	ok := ii.Inventory.AddProduct(p)

	labels := []attribute.KeyValue{
		attribute.String("operation", "add_product"),
	}

	if ok {
		labels = append(labels, attribute.String("status", "success"))
		span.AddEvent("product_added")
		ii.productGauge.Add(ctx, 1)
	} else {
		labels = append(labels, attribute.String("status", "duplicate"))
		span.SetStatus(codes.Error, "product ID already exists")
	}

	ii.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return ok
}

func (ii *Instrumented) RemoveProduct(ctx context.Context, id string) bool {
	tracer := ii.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "inventory.remove_product",
		trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	ok := ii.Inventory.RemoveProduct(id)
	if ok {
		span.AddEvent("product_removed")
		ii.productGauge.Add(ctx, -1)
	} else {
		span.SetStatus(codes.Error, "product not found")
	}

	return ok
}

// RemoveQuantity reserves stock on behalf of an order item.
func (ii *Instrumented) RemoveQuantity(ctx context.Context, id string, amount int) bool {
	tracer := ii.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "inventory.remove_quantity",
		trace.WithAttributes(
			attribute.String("product.id", id),
			attribute.Int("amount", amount),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("reserving_stock")

	ok := ii.Inventory.RemoveQuantity(id, amount)

	labels := []attribute.KeyValue{
		attribute.String("operation", "remove_quantity"),
		attribute.String("product_id", id),
	}

	if ok {
		labels = append(labels, attribute.String("status", "success"))
		span.AddEvent("stock_reserved", trace.WithAttributes(
			attribute.Int("remaining", ii.Inventory.AvailableQuantity(id)),
		))
	} else {
		labels = append(labels, attribute.String("status", "failed"))
		span.SetStatus(codes.Error, "reservation failed")
	}

	ii.reservationOps.Add(ctx, 1, metric.WithAttributes(labels...))
	ii.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return ok
}

// AddQuantity restocks a product, or compensates a failed reservation.
func (ii *Instrumented) AddQuantity(ctx context.Context, id string, amount int) bool {
	tracer := ii.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "inventory.add_quantity",
		trace.WithAttributes(
			attribute.String("product.id", id),
			attribute.Int("amount", amount),
		))
	defer span.End()

	start := time.Now()

	ok := ii.Inventory.AddQuantity(id, amount)

	labels := []attribute.KeyValue{
		attribute.String("operation", "add_quantity"),
		attribute.String("product_id", id),
	}

	if ok {
		labels = append(labels, attribute.String("status", "success"))
		span.AddEvent("stock_added")
	} else {
		labels = append(labels, attribute.String("status", "failed"))
		span.SetStatus(codes.Error, "restock failed")
	}

	ii.restockOps.Add(ctx, 1, metric.WithAttributes(labels...))
	ii.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return ok
}
