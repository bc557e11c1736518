package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"partshub-api/internal/cache"
	"partshub-api/internal/config"
	"partshub-api/internal/handler"
	"partshub-api/internal/keystone"
	"partshub-api/internal/middleware"
	"partshub-api/internal/repository"
	"partshub-api/internal/router"
	"partshub-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting PartsHub API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize inventory cache store based on config
	var inventoryRepo repository.InventoryRepository
	var ledgerRepo repository.LedgerRepository
	var err error

	switch cfg.CacheDB.Type {
	case "postgres", "postgresql":
		pgRepo, pgErr := repository.NewPostgresInventoryRepository(cfg.CacheDB.PostgresDSN())
		if pgErr != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", pgErr)
		}
		defer pgRepo.Close()
		inventoryRepo = pgRepo
		ledgerRepo, err = repository.NewPostgresLedgerRepository(pgRepo.DB())
		log.Println("PostgreSQL cache store initialized")
	case "mysql":
		myRepo, myErr := repository.NewMySQLInventoryRepository(cfg.CacheDB.MySQLDSN())
		if myErr != nil {
			log.Fatalf("Failed to initialize MySQL: %v", myErr)
		}
		defer myRepo.Close()
		inventoryRepo = myRepo
		ledgerRepo, err = repository.NewMySQLLedgerRepository(myRepo.DB())
		log.Println("MySQL cache store initialized")
	default: // sqlite
		if dir := filepath.Dir(cfg.CacheDB.Path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				log.Fatalf("Failed to create data directory: %v", mkErr)
			}
		}
		sqliteRepo, sqErr := repository.NewSQLiteInventoryRepository(cfg.CacheDB.Path)
		if sqErr != nil {
			log.Fatalf("Failed to initialize SQLite: %v", sqErr)
		}
		defer sqliteRepo.Close()
		inventoryRepo = sqliteRepo
		ledgerRepo, err = repository.NewSQLiteLedgerRepository(sqliteRepo.DB())
		log.Println("SQLite cache store initialized")
	}
	if err != nil {
		log.Fatalf("Failed to initialize ledger tables: %v", err)
	}

	// Initialize the durable key-value store for rate-limit state and
	// check/order history. Redis when reachable, in-memory otherwise.
	var kvStore cache.Cache
	redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Printf("Warning: Redis connection failed, using in-memory store: %v", err)
		kvStore = cache.NewMemoryCache()
	} else {
		defer redisCache.Close()
		kvStore = redisCache
		log.Println("Redis store initialized")
	}

	// Initialize the Keystone catalog source
	source, err := keystone.NewSource(keystone.Config{
		ProxyURL:   cfg.Keystone.ProxyURL,
		Token:      cfg.Keystone.Token(cfg.App.IsProduction()),
		Production: cfg.App.IsProduction(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize Keystone source: %v", err)
	}
	if _, simulated := source.(*keystone.Simulator); simulated {
		log.Println("Keystone credentials not configured, using simulated catalog data")
	}

	// Initialize services
	processor := service.NewBatchProcessor(inventoryRepo, cfg.Sync.BatchSize, cfg.Sync.BatchDelay)
	orchestrator := service.NewOrchestrator(source, inventoryRepo, ledgerRepo, processor, service.OrchestratorConfig{
		MaxItems:            cfg.Keystone.MaxBulkItems,
		IncrementalLimit:    cfg.Sync.IncrementalLimit,
		MaxRetries:          cfg.Sync.MaxRetries,
		IncrementalInterval: cfg.Sync.IncrementalInterval,
		FullInterval:        cfg.Sync.FullInterval,
	}, nil)
	priceCheckService := service.NewPriceCheckService(source, kvStore, nil)
	dropshipService := service.NewDropshipService(source, kvStore, nil)
	importer := service.NewImporter(inventoryRepo, ledgerRepo, cfg.Import.ChunkSize, cfg.Import.ChunkDelay)

	scheduler := service.NewSyncScheduler(orchestrator, cfg.Sync.SchedulerTick)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	inventoryHandler := handler.NewInventoryHandler(inventoryRepo)
	syncHandler := handler.NewSyncHandler(orchestrator, ledgerRepo)
	priceCheckHandler := handler.NewPriceCheckHandler(priceCheckService)
	dropshipHandler := handler.NewDropshipHandler(dropshipService)
	importHandler := handler.NewImportHandler(importer, ledgerRepo)
	adminHandler := handler.NewAdminHandler(inventoryRepo, orchestrator, cfg.CacheDB.Type)

	// Create auth middleware with injected dependencies (NO GLOBALS!)
	if cfg.App.APIKey == "" && cfg.App.IsProduction() {
		log.Fatal("API_KEY must be set in production")
	}
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		APIKey: cfg.App.APIKey,
	})

	// Create router
	r := router.New(router.Config{
		Handler:           healthHandler,
		InventoryHandler:  inventoryHandler,
		SyncHandler:       syncHandler,
		PriceCheckHandler: priceCheckHandler,
		DropshipHandler:   dropshipHandler,
		ImportHandler:     importHandler,
		AdminHandler:      adminHandler,
		AuthMiddleware:    authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the scheduler and any in-flight sync before closing stores.
	scheduler.Stop()
	orchestrator.CancelSync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
