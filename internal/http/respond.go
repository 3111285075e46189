package http

import (
	"encoding/json"
	"net/http"

	"github.com/MohitNegi1997/MoltenMotion/internal/catalog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleCatalogError maps a failed catalog load to 502; the storefront can
// show its fallback message.
func handleCatalogError(w http.ResponseWriter, log *zap.Logger, err error) {
	var loadErr *catalog.LoadError
	if errors.As(err, &loadErr) {
		log.Warn("catalog load failed", zap.String("resource", loadErr.Resource), zap.Error(err))
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "failed to load catalog",
			Code:    "catalog_unavailable",
			Details: loadErr.Resource,
		})
		return
	}
	log.Error("catalog request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
