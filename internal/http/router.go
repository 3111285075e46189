package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Catalog        Catalog
	Carts          Carts
	DataDir        string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	catalogHandler := NewCatalogHandler(cfg.Catalog, log)
	cartHandler := NewCartHandler(cfg.Carts, cfg.Catalog, log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.DataDir != "" {
		r.Handle("/data/*", http.StripPrefix("/data/", http.FileServer(http.Dir(cfg.DataDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)

		// the event stream stays open, so it is outside the timeout group
		r.Get("/cart/events", cartHandler.Events)

		r.Group(func(r chi.Router) {
			if cfg.RequestTimeout > 0 {
				r.Use(middleware.Timeout(cfg.RequestTimeout))
			}
			r.Use(middleware.Compress(5))

			r.Get("/storefront", catalogHandler.Storefront)
			r.Get("/categories", catalogHandler.Categories)
			r.Get("/testimonials", catalogHandler.Testimonials)
			r.Get("/products", catalogHandler.Products)
			r.Get("/products/{id}", catalogHandler.Product)

			r.Get("/cart", cartHandler.GetCart)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/cart/items/{product_id}", cartHandler.RemoveItem)
			r.Post("/checkout", cartHandler.Checkout)
		})
	})

	return r
}
