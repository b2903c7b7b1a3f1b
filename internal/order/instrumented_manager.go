package order

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"quirkventory/internal/telemetry"
)

// InstrumentedManager wraps a Manager with tracing and metrics around order
// creation and processing.
type InstrumentedManager struct {
	*Manager
	telemetry *telemetry.Provider

	// Metrics
	createOperations  metric.Int64Counter
	processOperations metric.Int64Counter
	batchSize         metric.Int64Histogram
	operationDuration metric.Float64Histogram
}

func NewInstrumentedManager(m *Manager, tp *telemetry.Provider) (*InstrumentedManager, error) {
	meter := tp.Meter()

	createOperations, err := meter.Int64Counter("order_create_operations_total",
		metric.WithDescription("Total number of order creation operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	processOperations, err := meter.Int64Counter("order_process_operations_total",
		metric.WithDescription("Total number of order processing attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram("order_batch_size",
		metric.WithDescription("Number of pending orders handled per batch run"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("order_operation_duration_seconds",
		metric.WithDescription("Duration of order manager operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedManager{
		Manager:           m,
		telemetry:         tp,
		createOperations:  createOperations,
		processOperations: processOperations,
		batchSize:         batchSize,
		operationDuration: operationDuration,
	}, nil
}

func (im *InstrumentedManager) CreateOrder(ctx context.Context, orderID, customerID string) (*Order, error) {
	tracer := im.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "order_manager.create_order",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("order.customer_id", customerID),
		))
	defer span.End()

	o, err := im.Manager.CreateOrder(orderID, customerID)

	labels := []attribute.KeyValue{
		attribute.String("operation", "create_order"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.AddEvent("order_created")
	}

	im.createOperations.Add(ctx, 1, metric.WithAttributes(labels...))

	return o, err
}

func (im *InstrumentedManager) ProcessOrder(ctx context.Context, orderID string, stock Stock) (bool, error) {
	tracer := im.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "order_manager.process_order",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	start := time.Now()

	span.AddEvent("processing_order")

	result, err := im.Manager.ProcessOrder(orderID, stock)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "process_order"),
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "not_found"))
	case result:
		labels = append(labels, attribute.String("status", "success"))
		span.AddEvent("order_confirmed")
	default:
		labels = append(labels, attribute.String("status", "failed"))
		span.AddEvent("order_failed")
	}

	im.processOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	im.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return result, err
}

func (im *InstrumentedManager) ProcessAllPending(ctx context.Context, stock Stock, maxConcurrent int) int {
	tracer := im.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "order_manager.process_all_pending",
		trace.WithAttributes(attribute.Int("max_concurrent", maxConcurrent)))
	defer span.End()

	start := time.Now()

	pending := len(im.Manager.OrdersByStatus(StatusPending))
	span.SetAttributes(attribute.Int("pending_orders", pending))

	successful := im.Manager.ProcessAllPending(stock, maxConcurrent)

	duration := time.Since(start).Seconds()

	span.SetAttributes(
		attribute.Int("successful_orders", successful),
		attribute.Int("failed_orders", pending-successful),
	)
	span.AddEvent("batch_complete")

	labels := []attribute.KeyValue{
		attribute.String("operation", "process_all_pending"),
		attribute.String("status", "success"),
	}

	im.batchSize.Record(ctx, int64(pending), metric.WithAttributes(labels...))
	im.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return successful
}

func (im *InstrumentedManager) CancelOrder(ctx context.Context, orderID, reason string) (bool, error) {
	tracer := im.telemetry.Tracer()
	_, span := tracer.Start(ctx, "order_manager.cancel_order",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	o, ok := im.Manager.Order(orderID)
	if !ok {
		span.SetStatus(codes.Error, "order not found")
		return false, fmt.Errorf("order not found: %s", orderID)
	}

	cancelled := o.Cancel(reason)
	if cancelled {
		span.AddEvent("order_cancelled")
	} else {
		span.SetStatus(codes.Error, "order cannot be cancelled in current status")
	}
	return cancelled, nil
}
