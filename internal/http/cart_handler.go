package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/MohitNegi1997/MoltenMotion/internal/cart"
	"github.com/MohitNegi1997/MoltenMotion/internal/catalog"
	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxQuantity = 99

// Carts resolves the cart of a session. Get registers the session for
// mutations and subscriptions; Peek serves reads without registering it.
type Carts interface {
	Get(sessionID string) *cart.Store
	Peek(sessionID string) *cart.Store
}

type CartHandler struct {
	carts   Carts
	catalog Catalog
	log     *zap.Logger
}

func NewCartHandler(carts Carts, c Catalog, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: c, log: log}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type CartResponse struct {
	Items []domain.LineItem `json:"items"`
	Count int               `json:"count"`
	Total float64           `json:"total"`
}

func newCartResponse(items []domain.LineItem) CartResponse {
	resp := CartResponse{Items: items}
	if resp.Items == nil {
		resp.Items = []domain.LineItem{}
	}
	for _, item := range resp.Items {
		resp.Count += item.Quantity
		resp.Total += item.Subtotal()
	}
	return resp
}

func (h *CartHandler) store(r *http.Request) *cart.Store {
	return h.carts.Get(getSessionID(r.Context()))
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Peek(getSessionID(r.Context()))
	respondJSON(w, http.StatusOK, newCartResponse(store.Cart(r.Context())))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 || quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	products, err := h.catalog.Products(r.Context())
	if err != nil {
		handleCatalogError(w, h.log, err)
		return
	}
	product, ok := catalog.ProductByID(req.ProductID, products)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	store := h.store(r)
	store.Add(r.Context(), product, quantity)
	respondJSON(w, http.StatusCreated, newCartResponse(store.Cart(r.Context())))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 || *req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	store := h.store(r)
	store.SetQuantity(r.Context(), chi.URLParam(r, "product_id"), *req.Quantity)
	respondJSON(w, http.StatusOK, newCartResponse(store.Cart(r.Context())))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	store.Remove(r.Context(), chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, newCartResponse(store.Cart(r.Context())))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	store.Clear(r.Context())
	respondJSON(w, http.StatusOK, newCartResponse(store.Cart(r.Context())))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.store(r).Checkout(r.Context())
	if errors.Is(err, cart.ErrEmptyCart) {
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
		return
	}
	if err != nil {
		h.log.Error("checkout failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// Events streams the cart as server-sent events: one "cart" event right away
// and one after every change. Bursts are coalesced, the client always ends
// up with the latest state.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var (
		mu     sync.Mutex
		latest CartResponse
	)
	signal := make(chan struct{}, 1)

	unsubscribe := h.store(r).Subscribe(r.Context(), func(_ int, items []domain.LineItem) {
		mu.Lock()
		latest = newCartResponse(items)
		mu.Unlock()
		select {
		case signal <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-signal:
			mu.Lock()
			payload, err := json.Marshal(latest)
			mu.Unlock()
			if err != nil {
				h.log.Error("failed to marshal cart event", zap.Error(err))
				return
			}
			if _, err := w.Write([]byte("event: cart\ndata: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
