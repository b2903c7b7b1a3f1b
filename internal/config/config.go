package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                string
	Environment         string
	OTelServiceName     string
	OTelEndpoint        string
	LowStockThreshold   int
	PriceTolerance      float64
	MaxConcurrentOrders int
}

func Load() *Config {
	return &Config{
		Port:                envOr("APP_PORT", "8080"),
		Environment:         envOr("APP_ENVIRONMENT", "development"),
		OTelServiceName:     envOr("OTEL_SERVICE_NAME", "quirkventory"),
		OTelEndpoint:        envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		LowStockThreshold:   envOrInt("LOW_STOCK_THRESHOLD", 10),
		PriceTolerance:      envOrFloat("PRICE_TOLERANCE", 0.05),
		MaxConcurrentOrders: envOrInt("MAX_CONCURRENT_ORDERS", 4),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
