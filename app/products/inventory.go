package products

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/freelancerking/net32-admin/models"
	"github.com/freelancerking/net32-admin/net32"
)

type updateInventoryRequest struct {
	sku       string
	id        string
	inventory string
}

func inventoryRequestFromRequest(r *http.Request) (*updateInventoryRequest, error) {
	if isJSONRequest(r) {
		m, err := decodeJSONBody(r)
		if err != nil {
			return nil, err
		}
		return &updateInventoryRequest{
			sku:       fieldString(m, "sku"),
			id:        fieldString(m, "id"),
			inventory: fieldString(m, "inventory"),
		}, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &updateInventoryRequest{
		sku:       r.PostFormValue("sku"),
		id:        r.PostFormValue("id"),
		inventory: r.PostFormValue("inventory"),
	}, nil
}

// HandleUpdateInventory pushes a new stock level to the marketplace and
// commits it locally only after the marketplace acknowledges. The local
// record therefore never claims an inventory level the marketplace has
// not accepted; the inverse drift (accepted remotely, local write
// failed) is logged for manual reconciliation.
func (h *ProductsHandler) HandleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	req, err := inventoryRequestFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	if req.sku == "" && req.id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "sku or id is required"})
		return
	}
	if req.inventory == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "inventory is required"})
		return
	}
	inventory, ok := toFloat(req.inventory)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "inventory must be a number"})
		return
	}

	var product *models.Product
	if req.sku != "" {
		product, err = h.repo.GetBySKU(req.sku)
	} else {
		id, parseErr := strconv.ParseUint(req.id, 10, 64)
		if parseErr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid id"})
			return
		}
		product, err = h.repo.GetByID(uint(id))
	}
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "product not found"})
			return
		}
		h.logger.Error("inventory lookup failed", zap.String("sku", req.sku), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "database error"})
		return
	}

	if err := h.api.PushInventory(r.Context(), product.SKU, product.MPID, int(inventory)); err != nil {
		switch {
		case errors.Is(err, net32.ErrMalformedResponse):
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "malformed marketplace response"})
		case errors.Is(err, net32.ErrUnexpectedResponse):
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "marketplace did not accept the inventory update"})
		default:
			h.logger.Error("inventory push failed", zap.String("sku", product.SKU), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "marketplace request failed"})
		}
		return
	}

	if err := h.repo.UpdateInventory(product.ID, int(inventory)); err != nil {
		h.logger.Error("inventory accepted by marketplace but local update failed",
			zap.String("sku", product.SKU),
			zap.Int("inventory", int(inventory)),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "inventory updated on marketplace but not locally"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sku":       product.SKU,
		"inventory": int(inventory),
	})
}
