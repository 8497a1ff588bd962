package main

import (
	"context"
	"log"
	"net/http"

	webAdapter "smart-inventory/internal/adapters/web"
	"smart-inventory/internal/app"
	"smart-inventory/internal/blob"
	"smart-inventory/internal/config"
	"smart-inventory/internal/core"
	"smart-inventory/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is not set; sessions will not survive validation")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		log.Fatalf("blob storage: %v", err)
	}

	productService := core.NewProductService(pool, blobs, cfg.QRSize)
	stockService := core.NewStockService(pool, productService)
	locationService := core.NewLocationService(pool)
	auditService := core.NewAuditService(pool, locationService)
	userService := core.NewUserService(pool)

	svc := app.NewAppService(pool, stockService, productService, locationService, auditService, userService)

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		SessionTTL:     cfg.SessionTTL,
		DefaultTenant:  cfg.DefaultTenantID,
	})

	log.Printf("server starting on %s (blob driver %s)", cfg.Addr, blobs.Driver())
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
