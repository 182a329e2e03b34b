package settings

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/freelancerking/net32-admin/models"
)

type SettingsProvider interface {
	Get() (*models.Settings, error)
	Save(settings *models.Settings) error
}

type SettingsHandler struct {
	repo   SettingsProvider
	logger *zap.Logger
}

func NewSettingsHandler(repo SettingsProvider, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		repo:   repo,
		logger: logger,
	}
}

type settingsView struct {
	Net32Username  string `json:"net32_username"`
	Net32Password  string `json:"net32_password"`
	MaxPriceBreaks int    `json:"max_price_breaks"`
}

// HandleGet returns the singleton settings row, falling back to
// defaults when none has been saved or the store is unreachable.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view := settingsView{MaxPriceBreaks: models.DefaultMaxPriceBreaks}
	status := ""

	row, err := h.repo.Get()
	if err != nil {
		h.logger.Error("settings load failed", zap.Error(err))
		status = "error"
	} else if row != nil {
		view = settingsView{
			Net32Username:  row.Net32Username,
			Net32Password:  row.Net32Password,
			MaxPriceBreaks: row.MaxPriceBreaks,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"settings": view,
		"status":   status,
	})
}

// HandleSave upserts the singleton row.
func (h *SettingsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	username, password, maxBreaksStr, err := settingsFromRequest(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if username == "" || password == "" {
		h.fail(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	maxBreaks := models.DefaultMaxPriceBreaks
	if v, err := strconv.Atoi(strings.TrimSpace(maxBreaksStr)); err == nil && v > 0 {
		maxBreaks = v
	}

	if err := h.repo.Save(&models.Settings{
		Net32Username:  username,
		Net32Password:  password,
		MaxPriceBreaks: maxBreaks,
	}); err != nil {
		h.logger.Error("settings save failed", zap.Error(err))
		h.fail(w, r, http.StatusInternalServerError, "database error")
		return
	}

	if isJSONRequest(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	http.Redirect(w, r, "/settings?status=success", http.StatusSeeOther)
}

func settingsFromRequest(r *http.Request) (username, password, maxBreaks string, err error) {
	if isJSONRequest(r) {
		var body struct {
			Net32Username  string      `json:"net32_username"`
			Net32Password  string      `json:"net32_password"`
			MaxPriceBreaks json.Number `json:"max_price_breaks"`
		}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return "", "", "", err
		}
		return body.Net32Username, body.Net32Password, body.MaxPriceBreaks.String(), nil
	}
	if err := r.ParseForm(); err != nil {
		return "", "", "", err
	}
	return r.PostFormValue("net32_username"),
		r.PostFormValue("net32_password"),
		r.PostFormValue("max_price_breaks"),
		nil
}

func (h *SettingsHandler) fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isJSONRequest(r) {
		writeJSON(w, status, map[string]any{"error": message})
		return
	}
	http.Redirect(w, r, "/settings?status=error", http.StatusSeeOther)
}

func isJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
