package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/registerd/internal/application/service"
	"github.com/sangkips/registerd/internal/cache"
	"github.com/sangkips/registerd/internal/config"
	"github.com/sangkips/registerd/internal/domain/entity"
	"github.com/sangkips/registerd/internal/domain/enum"
	"github.com/sangkips/registerd/internal/infrastructure/database"
	"github.com/sangkips/registerd/internal/infrastructure/repository"
	"github.com/sangkips/registerd/internal/presentation/http/handler"
	"github.com/sangkips/registerd/internal/presentation/http/routes"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed demo data when configured
	if err := database.SeedDemoData(db); err != nil {
		log.Printf("Warning: Failed to seed demo data: %v", err)
	}

	// Initialize the settings cache: Redis when configured, no-op otherwise
	var settingsCache cache.SettingsCache = cache.NoopSettingsCache{}
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisSettingsCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisCache.Ping(context.Background()); err != nil {
			log.Printf("Warning: Redis unreachable, settings cache disabled: %v", err)
		} else {
			settingsCache = redisCache
			defer redisCache.Close()
		}
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db, settingsDefaults(&cfg.Financial))

	// Initialize services
	lookupService := service.NewLookupService(itemRepo, customerRepo, settingsRepo, settingsCache, cfg.Financial.SettingsCacheTTL)
	sessionService := service.NewSessionService(itemRepo, customerRepo, invoiceRepo, lookupService)

	// Initialize handlers
	handlers := &routes.Handlers{
		Session: handler.NewSessionHandler(sessionService),
		Lookup:  handler.NewLookupHandler(lookupService),
	}

	// Setup routes
	router := routes.Setup(handlers, cfg)

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
	log.Printf("Environment: %s", cfg.App.Env)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

// settingsDefaults maps the configured financial defaults onto the settings
// row seeded on first start.
func settingsDefaults(cfg *config.FinancialConfig) entity.FinancialSettings {
	taxPolicy := enum.TaxPolicyExclusive
	if cfg.TaxInclusive {
		taxPolicy = enum.TaxPolicyInclusive
	}
	creditPolicy := enum.CreditPolicyBlock
	if cfg.CreditRequireApproval {
		creditPolicy = enum.CreditPolicyRequireApproval
	}

	return entity.FinancialSettings{
		SellerName:            cfg.SellerName,
		VATNumber:             cfg.VATNumber,
		VATEnabled:            cfg.VATEnabled,
		VATRatePercent:        cfg.VATRatePercent,
		DefaultTaxPolicy:      taxPolicy,
		CreditLimitPolicy:     creditPolicy,
		AllowNegativeStock:    cfg.AllowNegativeStock,
		AllowSellingBelowCost: cfg.AllowSellingBelowCost,
		CashSafeID:            cfg.CashSafeID,
		BankAccountID:         cfg.BankAccountID,
	}
}
