package http

import (
	"context"
	"net/http"

	"github.com/MohitNegi1997/MoltenMotion/internal/catalog"
	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Catalog is the read side of the storefront data.
type Catalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Testimonials(ctx context.Context) ([]domain.Testimonial, error)
	Storefront(ctx context.Context) (catalog.Storefront, error)
}

type CatalogHandler struct {
	catalog Catalog
	log     *zap.Logger
}

func NewCatalogHandler(c Catalog, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, log: log}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type CategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

type TestimonialsResponse struct {
	Testimonials []domain.Testimonial `json:"testimonials"`
}

func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		handleCatalogError(w, h.log, err)
		return
	}

	filtered := catalog.ProductsByCategory(r.URL.Query().Get("category"), products)
	if filtered == nil {
		filtered = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, ProductsResponse{Products: filtered})
}

func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		handleCatalogError(w, h.log, err)
		return
	}

	product, ok := catalog.ProductByID(chi.URLParam(r, "id"), products)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		handleCatalogError(w, h.log, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	respondJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}

func (h *CatalogHandler) Testimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.catalog.Testimonials(r.Context())
	if err != nil {
		handleCatalogError(w, h.log, err)
		return
	}
	if testimonials == nil {
		testimonials = []domain.Testimonial{}
	}
	respondJSON(w, http.StatusOK, TestimonialsResponse{Testimonials: testimonials})
}

func (h *CatalogHandler) Storefront(w http.ResponseWriter, r *http.Request) {
	sf, err := h.catalog.Storefront(r.Context())
	if err != nil {
		handleCatalogError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sf)
}
