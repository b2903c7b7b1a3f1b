package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"quirkventory/internal/inventory"
	"quirkventory/internal/order"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ProductRequest struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Category            string  `json:"category"`
	Price               float64 `json:"price"`
	Quantity            int     `json:"quantity"`
	ExpiryDate          string  `json:"expiry_date,omitempty"` // RFC 3339; presence makes the product perishable
	StorageRequirements string  `json:"storage_requirements,omitempty"`
	StorageTemperature  float64 `json:"storage_temperature,omitempty"`
}

type ProductResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	TotalValue float64 `json:"total_value"`
	Perishable bool    `json:"perishable"`
	Expired    bool    `json:"expired"`
	ExpiryInfo string  `json:"expiry_info"`
}

func toProductResponse(p *inventory.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID(),
		Name:       p.Name(),
		Category:   p.Category(),
		Price:      p.Price(),
		Quantity:   p.Quantity(),
		TotalValue: p.TotalValue(),
		Perishable: p.IsPerishable(),
		Expired:    p.IsExpired(),
		ExpiryInfo: p.ExpiryInfo(),
	}
}

type OrderItemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type OrderCreateRequest struct {
	OrderID    string             `json:"order_id,omitempty"` // generated when empty
	CustomerID string             `json:"customer_id"`
	Items      []OrderItemRequest `json:"items,omitempty"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

type ProcessAllRequest struct {
	MaxConcurrent int `json:"max_concurrent,omitempty"`
}

type OrderItemResponse struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customer_id"`
	Status        string              `json:"status"`
	TotalAmount   float64             `json:"total_amount"`
	Items         []OrderItemResponse `json:"items"`
	Notes         string              `json:"notes,omitempty"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	OrderDate     time.Time           `json:"order_date"`
	ProcessedDate *time.Time          `json:"processed_date,omitempty"`
	Processing    bool                `json:"processing"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	items := o.Items()
	resp := OrderResponse{
		ID:           o.ID(),
		CustomerID:   o.CustomerID(),
		Status:       o.Status().String(),
		TotalAmount:  o.TotalAmount(),
		Items:        make([]OrderItemResponse, 0, len(items)),
		Notes:        o.Notes(),
		ErrorMessage: o.ErrorMessage(),
		OrderDate:    o.OrderDate(),
		Processing:   o.IsProcessing(),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.TotalPrice(),
		})
	}
	if processed, ok := o.ProcessedDate(); ok {
		resp.ProcessedDate = &processed
	}
	return resp
}

type InventoryReportResponse struct {
	TotalProducts   int                `json:"total_products"`
	TotalQuantity   int                `json:"total_quantity"`
	TotalValue      float64            `json:"total_value"`
	ValueByCategory map[string]float64 `json:"value_by_category"`
	LowStockCount   int                `json:"low_stock_count"`
	ExpiredCount    int                `json:"expired_count"`
	ExpiringCount   int                `json:"expiring_soon_count"`
}

type StatsResponse struct {
	TotalOrders int            `json:"total_orders"`
	Processed   int64          `json:"processed"`
	Succeeded   int64          `json:"succeeded"`
	Failed      int64          `json:"failed"`
	SuccessRate float64        `json:"success_rate"`
	ByStatus    map[string]int `json:"by_status"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
