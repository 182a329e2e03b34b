package products

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freelancerking/net32-admin/models"
	"github.com/freelancerking/net32-admin/net32"
)

// searchLimit caps the ajax search result count.
const searchLimit = 20

type ProductProvider interface {
	List(search string, page int) ([]models.Product, int64, error)
	Search(term string, limit int) ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	GetBySKU(sku string) (*models.Product, error)
	UpdateFields(id uint, qty int, minimumPrice decimal.Decimal, updateInterval int) error
	UpdateActive(id uint, active int) error
	UpdateInventory(id uint, inventory int) error
	Delete(id uint) error
	ExistsSKUQty(sku string, qty int) (bool, error)
	CreateAll(products []models.Product) error
}

// MarketplaceAPI is the slice of the external pricing API this handler
// needs.
type MarketplaceAPI interface {
	FetchProduct(ctx context.Context, code string, maxTiers int) (*net32.ProductInfo, error)
	PushInventory(ctx context.Context, sku, mpid string, inventory int) error
}

type SettingsProvider interface {
	Get() (*models.Settings, error)
}

type ProductsHandler struct {
	repo     ProductProvider
	api      MarketplaceAPI
	settings SettingsProvider
	logger   *zap.Logger
}

func NewProductsHandler(repo ProductProvider, api MarketplaceAPI, settings SettingsProvider, logger *zap.Logger) *ProductsHandler {
	return &ProductsHandler{
		repo:     repo,
		api:      api,
		settings: settings,
		logger:   logger,
	}
}

type productView struct {
	ID             uint    `json:"id"`
	SKU            string  `json:"sku"`
	MPID           string  `json:"mpid"`
	ProductName    string  `json:"product_name"`
	ProductURL     string  `json:"product_url"`
	Price          float64 `json:"price"`
	MinimumPrice   float64 `json:"minimum_price"`
	Qty            int     `json:"qty"`
	UpdateInterval int     `json:"update_interval"`
	Inventory      int     `json:"inventory"`
	Active         int     `json:"active"`
}

func toView(p models.Product) productView {
	return productView{
		ID:             p.ID,
		SKU:            p.SKU,
		MPID:           p.MPID,
		ProductName:    p.ProductName,
		ProductURL:     p.ProductURL,
		Price:          p.Price.InexactFloat64(),
		MinimumPrice:   p.MinimumPrice.InexactFloat64(),
		Qty:            p.Qty,
		UpdateInterval: p.UpdateInterval,
		Inventory:      p.Inventory,
		Active:         p.Active,
	}
}

type listResponse struct {
	Products    []productView `json:"products"`
	Total       int64         `json:"total"`
	CurrentPage int           `json:"current_page"`
	TotalPages  int           `json:"total_pages"`
	Search      string        `json:"search"`
}

// HandleList serves the paginated, filtered product list.
func (h *ProductsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	page := 1
	if pStr := r.URL.Query().Get("page"); pStr != "" {
		if p, err := strconv.Atoi(pStr); err == nil && p >= 1 {
			page = p
		}
	}

	results, total, err := h.repo.List(search, page)
	if err != nil {
		h.logger.Error("product list query failed", zap.String("search", search), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "database error"})
		return
	}

	totalPages := int((total + models.ProductPageSize - 1) / models.ProductPageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	products := make([]productView, len(results))
	for i, p := range results {
		products[i] = toView(p)
	}

	writeJSON(w, http.StatusOK, listResponse{
		Products:    products,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
		Search:      search,
	})
}

// HandleSearchAjax serves the capped structured search used by the
// product table's live filter.
func (h *ProductsHandler) HandleSearchAjax(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	results, err := h.repo.Search(term, searchLimit)
	if err != nil {
		h.logger.Error("product search query failed", zap.String("q", term), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "DB Error"})
		return
	}

	products := make([]productView, len(results))
	for i, p := range results {
		products[i] = toView(p)
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleUpdate writes the editable fields of a single row. Validation
// failures and store errors never partially apply: either all three
// fields are written together or nothing is.
func (h *ProductsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.respondResult(w, r, false, http.StatusBadRequest)
		return
	}

	in, err := singleUpdateFromRequest(r)
	if err != nil {
		h.respondResult(w, r, false, http.StatusBadRequest)
		return
	}

	qty, qtyOK := toFloat(in.qty)
	min, minErr := parseDecimal(in.minimumPrice)
	interval, intervalOK := toFloat(in.updateInterval)
	if !qtyOK || minErr != nil || in.updateInterval == "" || !intervalOK {
		h.respondResult(w, r, false, http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateFields(id, int(qty), min, int(interval)); err != nil {
		h.logger.Error("single update failed", zap.Uint("id", id), zap.Error(err))
		h.respondResult(w, r, false, http.StatusInternalServerError)
		return
	}
	h.respondResult(w, r, true, http.StatusOK)
}

// HandleUpdateActive toggles the active flag for one row.
func (h *ProductsHandler) HandleUpdateActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.respondResult(w, r, false, http.StatusBadRequest)
		return
	}

	in, err := activeFromRequest(r)
	if err != nil {
		h.respondResult(w, r, false, http.StatusBadRequest)
		return
	}
	active, activeOK := toFloat(in)
	if !activeOK {
		h.respondResult(w, r, false, http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateActive(id, int(active)); err != nil {
		h.logger.Error("active toggle failed", zap.Uint("id", id), zap.Error(err))
		h.respondResult(w, r, false, http.StatusInternalServerError)
		return
	}
	h.respondResult(w, r, true, http.StatusOK)
}

// HandleDelete removes a row by id.
func (h *ProductsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.respondResult(w, r, false, http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(id); err != nil {
		h.logger.Error("delete failed", zap.Uint("id", id), zap.Error(err))
		h.respondResult(w, r, false, http.StatusInternalServerError)
		return
	}
	h.respondResult(w, r, true, http.StatusOK)
}

// respondResult answers the two caller classes: bare true/false for
// AJAX, redirect with a status flag for forms.
func (h *ProductsHandler) respondResult(w http.ResponseWriter, r *http.Request, ok bool, status int) {
	if isJSONRequest(r) {
		writeJSON(w, status, ok)
		return
	}
	if ok {
		http.Redirect(w, r, "/products?status=success", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/products?status=error", http.StatusSeeOther)
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
