package router

import (
	"net/http"

	"partshub-api/internal/handler"
	"partshub-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler           *handler.Handler
	InventoryHandler  *handler.InventoryHandler
	SyncHandler       *handler.SyncHandler
	PriceCheckHandler *handler.PriceCheckHandler
	DropshipHandler   *handler.DropshipHandler
	ImportHandler     *handler.ImportHandler
	AdminHandler      *handler.AdminHandler
	AuthMiddleware    func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		// API v1 routes
		r.Route("/api/v1", func(r chi.Router) {
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
			}

			// Inventory cache endpoints
			if cfg.InventoryHandler != nil {
				r.Route("/inventory", func(r chi.Router) {
					r.Get("/", cfg.InventoryHandler.List)
					r.Get("/stats", cfg.InventoryHandler.Stats)
					r.Get("/{vcpn}", cfg.InventoryHandler.Get)
					r.Delete("/{vcpn}", cfg.InventoryHandler.Delete)
				})
			}

			// Sync endpoints
			if cfg.SyncHandler != nil {
				r.Route("/sync", func(r chi.Router) {
					r.Post("/full", cfg.SyncHandler.StartFull)
					r.Post("/incremental", cfg.SyncHandler.StartIncremental)
					r.Get("/status", cfg.SyncHandler.GetStatus)
					r.Post("/cancel", cfg.SyncHandler.Cancel)
					r.Post("/request-update", cfg.SyncHandler.RequestUpdate)
					r.Get("/logs", cfg.SyncHandler.ListLogs)
				})
			}

			// Pricing endpoints
			if cfg.PriceCheckHandler != nil {
				r.Route("/pricing", func(r chi.Router) {
					r.Post("/check", cfg.PriceCheckHandler.Check)
					r.Get("/history", cfg.PriceCheckHandler.History)
				})
			}

			// Dropship order endpoint
			if cfg.DropshipHandler != nil {
				r.Post("/orders/dropship", cfg.DropshipHandler.PlaceOrder)
			}

			// CSV import endpoints
			if cfg.ImportHandler != nil {
				r.Route("/imports", func(r chi.Router) {
					r.Post("/", cfg.ImportHandler.Upload)
					r.Get("/{id}", cfg.ImportHandler.GetBatch)
				})
			}

			// Admin endpoints
			if cfg.AdminHandler != nil {
				r.Get("/admin/stats", cfg.AdminHandler.Stats)
			}
		})
	})

	return r
}
