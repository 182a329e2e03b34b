package products

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/freelancerking/net32-admin/models"
	"github.com/freelancerking/net32-admin/net32"
)

func fetchCodeFromRequest(r *http.Request) (string, error) {
	if isJSONRequest(r) {
		m, err := decodeJSONBody(r)
		if err != nil {
			return "", err
		}
		if code := fieldString(m, "sku"); code != "" {
			return code, nil
		}
		return fieldString(m, "vpCode"), nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	if code := r.PostFormValue("sku"); code != "" {
		return code, nil
	}
	return r.PostFormValue("vpCode"), nil
}

// HandleFetchProduct looks up canonical metadata for a product code on
// the marketplace. Access-denied responses are surfaced distinctly so
// the operator knows to check the API credentials rather than suspect
// the database.
func (h *ProductsHandler) HandleFetchProduct(w http.ResponseWriter, r *http.Request) {
	code, err := fetchCodeFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "sku is required"})
		return
	}

	maxTiers := models.DefaultMaxPriceBreaks
	if settings, err := h.settings.Get(); err != nil {
		h.logger.Warn("settings lookup failed, using default price break cap", zap.Error(err))
	} else if settings != nil && settings.MaxPriceBreaks > 0 {
		maxTiers = settings.MaxPriceBreaks
	}

	info, err := h.api.FetchProduct(r.Context(), code, maxTiers)
	if err != nil {
		switch {
		case errors.Is(err, net32.ErrAccessDenied):
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "access denied - check your API credentials"})
		case errors.Is(err, net32.ErrNoResult):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "product not found on marketplace"})
		default:
			h.logger.Error("product fetch failed", zap.String("code", code), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "marketplace request failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, info)
}
