package products

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freelancerking/net32-admin/models"
	"github.com/freelancerking/net32-admin/net32"
)

// defaultInventory is assigned when the add form leaves inventory
// blank, non-positive or unparseable.
const defaultInventory = 9999

type priceBreakInput struct {
	qty      string
	min      string
	interval string
	activeCd string
}

type addRequest struct {
	sku       string
	mpid      string
	name      string
	url       string
	inventory string
	breaks    []priceBreakInput
}

func addRequestFromRequest(r *http.Request) (*addRequest, error) {
	req := &addRequest{}
	if isJSONRequest(r) {
		m, err := decodeJSONBody(r)
		if err != nil {
			return nil, err
		}
		req.sku = fieldString(m, "sku")
		req.mpid = fieldString(m, "mpid")
		req.name = fieldString(m, "product_name")
		req.url = fieldString(m, "product_url")
		req.inventory = fieldString(m, "inventory")
		if items, ok := m["price_breaks"].([]any); ok {
			for _, item := range items {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				req.breaks = append(req.breaks, priceBreakInput{
					qty:      fieldString(entry, "qty"),
					min:      fieldString(entry, "min"),
					interval: fieldString(entry, "interval"),
					activeCd: fieldString(entry, "activeCd"),
				})
			}
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	req.sku = r.PostFormValue("sku")
	req.mpid = r.PostFormValue("mpid")
	req.name = r.PostFormValue("product_name")
	req.url = r.PostFormValue("product_url")
	req.inventory = r.PostFormValue("inventory")

	qtys := r.PostForm["qty"]
	mins := r.PostForm["min"]
	intervals := r.PostForm["interval"]
	actives := r.PostForm["activeCd"]
	for i := range qtys {
		req.breaks = append(req.breaks, priceBreakInput{
			qty:      at(qtys, i),
			min:      at(mins, i),
			interval: at(intervals, i),
			activeCd: at(actives, i),
		})
	}
	return req, nil
}

// HandleAdd inserts one row per supplied price break, all sharing the
// product's identity fields. The whole add is all-or-nothing: any
// (sku, qty) collision with an existing row aborts before a single
// insert happens, and the inserts themselves run in one transaction.
func (h *ProductsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	req, err := addRequestFromRequest(r)
	if err != nil {
		h.failAdd(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.sku == "" || req.mpid == "" || req.name == "" || req.url == "" || len(req.breaks) == 0 {
		h.failAdd(w, r, http.StatusBadRequest, "sku, mpid, product_name, product_url and at least one price break are required")
		return
	}

	inventory := defaultInventory
	if f, ok := toFloat(req.inventory); ok && f > 0 {
		inventory = int(f)
	}

	now := time.Now()
	rows := make([]models.Product, 0, len(req.breaks))
	for _, b := range req.breaks {
		row := models.Product{
			SKU:            req.sku,
			MPID:           req.mpid,
			ProductName:    req.name,
			ProductURL:     req.url,
			Inventory:      inventory,
			UpdateInterval: net32.DefaultUpdateInterval,
			MinimumPrice:   decimal.Zero,
			UpdatedAt:      now,
		}
		if b.qty != "" {
			f, ok := toFloat(b.qty)
			if !ok {
				h.failAdd(w, r, http.StatusBadRequest, "invalid price break quantity")
				return
			}
			row.Qty = int(f)
		}
		if b.min != "" {
			min, err := parseDecimal(b.min)
			if err != nil {
				h.failAdd(w, r, http.StatusBadRequest, "invalid price break minimum price")
				return
			}
			row.MinimumPrice = min
		}
		if b.interval != "" {
			f, ok := toFloat(b.interval)
			if !ok {
				h.failAdd(w, r, http.StatusBadRequest, "invalid price break interval")
				return
			}
			row.UpdateInterval = int(f)
		}
		if f, ok := toFloat(b.activeCd); ok {
			row.Active = int(f)
		}
		rows = append(rows, row)
	}

	// Every tier is pre-checked so a collision aborts with zero rows
	// written.
	for _, row := range rows {
		exists, err := h.repo.ExistsSKUQty(row.SKU, row.Qty)
		if err != nil {
			h.logger.Error("duplicate check failed", zap.String("sku", row.SKU), zap.Error(err))
			h.failAdd(w, r, http.StatusInternalServerError, "database error")
			return
		}
		if exists {
			h.failDuplicate(w, r)
			return
		}
	}

	if err := h.repo.CreateAll(rows); err != nil {
		if errors.Is(err, models.ErrDuplicateProduct) {
			h.failDuplicate(w, r)
			return
		}
		h.logger.Error("product insert failed", zap.String("sku", req.sku), zap.Error(err))
		h.failAdd(w, r, http.StatusInternalServerError, "database error")
		return
	}

	if isJSONRequest(r) {
		writeJSON(w, http.StatusCreated, map[string]any{"created": len(rows)})
		return
	}
	http.Redirect(w, r, "/products?status=success", http.StatusSeeOther)
}

func (h *ProductsHandler) failAdd(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isJSONRequest(r) {
		writeJSON(w, status, map[string]any{"error": message})
		return
	}
	http.Redirect(w, r, "/products?status=error", http.StatusSeeOther)
}

func (h *ProductsHandler) failDuplicate(w http.ResponseWriter, r *http.Request) {
	if isJSONRequest(r) {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "SKU already exists at this quantity tier"})
		return
	}
	http.Redirect(w, r, "/products?status=duplicate", http.StatusSeeOther)
}
