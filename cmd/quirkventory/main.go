package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quirkventory/internal/config"
	"quirkventory/internal/inventory"
	"quirkventory/internal/logging"
	"quirkventory/internal/order"
	"quirkventory/internal/seed"
	"quirkventory/internal/server"
	"quirkventory/internal/telemetry"
)

var (
	mode     = flag.String("mode", "serve", "Mode to run: serve or demo")
	seedData = flag.Bool("seed", true, "Load demonstration catalog and orders on startup")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	logging.Init(cfg.IsDevelopment())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := telemetry.NewProvider(cfg.OTelServiceName, cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	inv, err := inventory.NewInstrumented(inventory.New(cfg.LowStockThreshold), telemetryProvider)
	if err != nil {
		log.Fatalf("Failed to initialize inventory: %v", err)
	}

	orders, err := order.NewInstrumentedManager(order.NewManager(), telemetryProvider)
	if err != nil {
		log.Fatalf("Failed to initialize order manager: %v", err)
	}

	if *seedData {
		if err := seed.Load(ctx, inv, orders); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch *mode {
	case "serve":
		runServer(cancel, cfg, telemetryProvider, inv, orders, sigChan)
	case "demo":
		runDemo(ctx, cfg, telemetryProvider, inv, orders)
	default:
		log.Fatalf("Invalid mode: %s. Must be serve or demo", *mode)
	}
}

func runServer(cancel context.CancelFunc, cfg *config.Config, telemetryProvider *telemetry.Provider,
	inv *inventory.Instrumented, orders *order.InstrumentedManager, sigChan chan os.Signal) {

	handler := server.NewHandler(inv, orders, cfg.MaxConcurrentOrders)
	srv := server.NewServer(cfg.Port, handler)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("Starting server on port %s", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Server error: %v", err)
	}

	shutdownTelemetry(telemetryProvider)
}

// runDemo drives a processing round against the seeded data and logs the
// resulting inventory and order state, then exits.
func runDemo(ctx context.Context, cfg *config.Config, telemetryProvider *telemetry.Provider,
	inv *inventory.Instrumented, orders *order.InstrumentedManager) {

	inv.RegisterAlertCallback(func(msg string) {
		logging.Warn(ctx).Str("alert", msg).Msg("inventory alert")
	})

	pending := len(orders.OrdersByStatus(order.StatusPending))
	successful := orders.ProcessAllPending(ctx, inv.Inventory, cfg.MaxConcurrentOrders)

	logging.Info(ctx).
		Int("pending", pending).
		Int("successful", successful).
		Int("failed", pending-successful).
		Msg("processing round complete")

	for _, o := range orders.AllOrders() {
		logging.Info(ctx).
			Str("order", o.ID()).
			Str("status", o.Status().String()).
			Float64("total", o.TotalAmount()).
			Str("error", o.ErrorMessage()).
			Msg("order result")
	}

	logging.Info(ctx).
		Int("products", inv.TotalProductCount()).
		Int("quantity", inv.TotalQuantity()).
		Float64("value", inv.TotalValue()).
		Int("low_stock", len(inv.LowStockProducts())).
		Int("expired", len(inv.ExpiredProducts())).
		Msg("inventory report")

	shutdownTelemetry(telemetryProvider)
}

func shutdownTelemetry(telemetryProvider *telemetry.Provider) {
	log.Println("Shutting down telemetry...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
