package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quirkventory/internal/user"
)

type Server struct {
	httpServer *http.Server
	router     *chi.Mux
}

func NewServer(port string, handler *Handler) *Server {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.With(RequirePermission(user.PermAddProducts)).Post("/", handler.CreateProduct)
			r.With(RequirePermission(user.PermViewProducts)).Get("/", handler.ListProducts)
			r.With(RequirePermission(user.PermViewProducts)).Get("/{id}", handler.GetProduct)
			r.With(RequirePermission(user.PermDeleteProducts)).Delete("/{id}", handler.DeleteProduct)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.With(RequirePermission(user.PermViewReports)).Get("/report", handler.InventoryReport)
			r.With(RequirePermission(user.PermViewInventory)).Get("/low-stock", handler.LowStock)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(RequirePermission(user.PermCreateOrders)).Post("/", handler.CreateOrder)
			r.With(RequirePermission(user.PermViewOrders)).Get("/", handler.ListOrders)
			r.With(RequirePermission(user.PermViewOrders)).Get("/stats", handler.OrderStats)
			r.With(RequirePermission(user.PermModifyOrders)).Post("/process-all", handler.ProcessAllOrders)
			r.With(RequirePermission(user.PermViewOrders)).Get("/{id}", handler.GetOrder)
			r.With(RequirePermission(user.PermModifyOrders)).Post("/{id}/items", handler.AddOrderItem)
			r.With(RequirePermission(user.PermModifyOrders)).Post("/{id}/process", handler.ProcessOrder)
			r.With(RequirePermission(user.PermCancelOrders)).Post("/{id}/cancel", handler.CancelOrder)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: r,
	}
}

// Router exposes the chi mux, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
