package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quirkventory/internal/inventory"
	"quirkventory/internal/logging"
	"quirkventory/internal/order"
)

type Handler struct {
	inv           *inventory.Instrumented
	orders        *order.InstrumentedManager
	maxConcurrent int
}

func NewHandler(inv *inventory.Instrumented, orders *order.InstrumentedManager, maxConcurrent int) *Handler {
	inv.RegisterAlertCallback(func(msg string) {
		stockAlertsTotal.Inc()
		logging.Logger().Warn().Str("alert", msg).Msg("inventory alert")
	})

	return &Handler{inv: inv, orders: orders, maxConcurrent: maxConcurrent}
}

// stock is the inventory surface handed to order processing.
func (h *Handler) stock() order.Stock {
	return h.inv.Inventory
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "quirkventory",
		"meta":    extractMeta(r.Context()),
	})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		p   *inventory.Product
		err error
	)
	if req.ExpiryDate != "" {
		expiry, parseErr := time.Parse(time.RFC3339, req.ExpiryDate)
		if parseErr != nil {
			WriteError(ctx, w, http.StatusBadRequest, "Invalid expiry_date, want RFC 3339")
			return
		}
		p, err = inventory.NewPerishableProduct(req.ID, req.Name, req.Category,
			req.Price, req.Quantity, expiry, req.StorageRequirements, req.StorageTemperature)
	} else {
		p, err = inventory.NewProduct(req.ID, req.Name, req.Category, req.Price, req.Quantity)
	}
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.inv.AddProduct(ctx, p) {
		WriteError(ctx, w, http.StatusConflict, "Product ID already exists")
		return
	}

	WriteSuccess(ctx, w, "Product added successfully", toProductResponse(p))
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var products []*inventory.Product
	switch {
	case r.URL.Query().Get("category") != "":
		products = h.inv.ProductsByCategory(r.URL.Query().Get("category"))
	case r.URL.Query().Get("search") != "":
		products = h.inv.SearchByName(r.URL.Query().Get("search"))
	default:
		products = h.inv.AllProducts()
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}

	WriteSuccess(ctx, w, "Products retrieved successfully", resp)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := h.inv.GetProduct(chi.URLParam(r, "id"))
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Product not found")
		return
	}

	WriteSuccess(ctx, w, "Product found", toProductResponse(p))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if !h.inv.RemoveProduct(ctx, id) {
		WriteError(ctx, w, http.StatusNotFound, "Product not found")
		return
	}

	WriteSuccess(ctx, w, "Product removed successfully", map[string]any{"id": id})
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products := h.inv.LowStockProducts()
	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}

	WriteSuccess(ctx, w, "Low stock products retrieved successfully", resp)
}

func (h *Handler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report := InventoryReportResponse{
		TotalProducts:   h.inv.TotalProductCount(),
		TotalQuantity:   h.inv.TotalQuantity(),
		TotalValue:      h.inv.TotalValue(),
		ValueByCategory: h.inv.ValueByCategory(),
		LowStockCount:   len(h.inv.LowStockProducts()),
		ExpiredCount:    len(h.inv.ExpiredProducts()),
		ExpiringCount:   len(h.inv.ExpiringSoonProducts(7)),
	}

	WriteSuccess(ctx, w, "Inventory report generated", report)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req OrderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			WriteError(ctx, w, http.StatusBadRequest, "Invalid order item: "+it.ProductID)
			return
		}
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = uuid.New().String()
	}

	o, err := h.orders.CreateOrder(ctx, orderID, req.CustomerID)
	if err != nil {
		WriteError(ctx, w, http.StatusConflict, err.Error())
		return
	}

	for _, it := range req.Items {
		o.AddItem(it.ProductID, it.Quantity, it.UnitPrice)
	}

	WriteSuccess(ctx, w, "Order created successfully", toOrderResponse(o))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var orders []*order.Order
	switch {
	case r.URL.Query().Get("status") != "":
		orders = h.orders.OrdersByStatus(order.Status(r.URL.Query().Get("status")))
	case r.URL.Query().Get("customer") != "":
		orders = h.orders.OrdersByCustomer(r.URL.Query().Get("customer"))
	default:
		orders = h.orders.AllOrders()
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}

	WriteSuccess(ctx, w, "Orders retrieved successfully", resp)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	o, ok := h.orders.Order(chi.URLParam(r, "id"))
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Order not found")
		return
	}

	WriteSuccess(ctx, w, "Order found", toOrderResponse(o))
}

func (h *Handler) AddOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	o, ok := h.orders.Order(chi.URLParam(r, "id"))
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Order not found")
		return
	}

	var req OrderItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !o.AddItem(req.ProductID, req.Quantity, req.UnitPrice) {
		WriteError(ctx, w, http.StatusConflict, "Order can no longer be modified")
		return
	}

	WriteSuccess(ctx, w, "Item added successfully", toOrderResponse(o))
}

func (h *Handler) ProcessOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := chi.URLParam(r, "id")
	result, err := h.orders.ProcessOrder(ctx, orderID, h.stock())
	if err != nil {
		WriteError(ctx, w, http.StatusNotFound, err.Error())
		return
	}

	o, _ := h.orders.Order(orderID)

	if !result {
		ordersProcessedTotal.WithLabelValues("failed").Inc()
		WriteJSON(w, http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   o.ErrorMessage(),
			Data:    toOrderResponse(o),
			Meta:    extractMeta(ctx),
		})
		return
	}

	ordersProcessedTotal.WithLabelValues("success").Inc()
	WriteSuccess(ctx, w, "Order processed successfully", toOrderResponse(o))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CancelOrderRequest
	if r.Body != nil {
		// Body is optional for cancellation.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	cancelled, err := h.orders.CancelOrder(ctx, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		WriteError(ctx, w, http.StatusNotFound, err.Error())
		return
	}
	if !cancelled {
		WriteError(ctx, w, http.StatusConflict, "Order cannot be cancelled in its current status")
		return
	}

	o, _ := h.orders.Order(chi.URLParam(r, "id"))
	WriteSuccess(ctx, w, "Order cancelled", toOrderResponse(o))
}

func (h *Handler) ProcessAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProcessAllRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	maxConcurrent := req.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = h.maxConcurrent
	}

	pending := len(h.orders.OrdersByStatus(order.StatusPending))
	successful := h.orders.ProcessAllPending(ctx, h.stock(), maxConcurrent)

	ordersProcessedTotal.WithLabelValues("success").Add(float64(successful))
	ordersProcessedTotal.WithLabelValues("failed").Add(float64(pending - successful))

	WriteSuccess(ctx, w, "Pending orders processed", map[string]any{
		"pending":    pending,
		"successful": successful,
		"failed":     pending - successful,
	})
}

func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats := h.orders.Stats()
	resp := StatsResponse{
		TotalOrders: stats.TotalOrders,
		Processed:   stats.Processed,
		Succeeded:   stats.Succeeded,
		Failed:      stats.Failed,
		SuccessRate: stats.SuccessRate,
		ByStatus:    make(map[string]int, len(stats.ByStatus)),
	}
	for status, count := range stats.ByStatus {
		resp.ByStatus[status.String()] = count
	}

	WriteSuccess(ctx, w, "Order statistics retrieved successfully", resp)
}
