package products

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// batchUpdateRequest is the normalized multi-row form. The two interval
// variants the console posts are kept apart: Interval carries the
// combined update_interval column, and when SplitInterval is set the
// Hours/Minutes arrays are used instead.
type batchUpdateRequest struct {
	IDs           []string
	Selected      []string
	Qty           []string
	MinimumPrice  []string
	Interval      []string
	Hours         []string
	Minutes       []string
	SplitInterval bool
}

func batchRequestFromRequest(r *http.Request) (*batchUpdateRequest, error) {
	req := &batchUpdateRequest{}
	if isJSONRequest(r) {
		m, err := decodeJSONBody(r)
		if err != nil {
			return nil, err
		}
		req.IDs = fieldStrings(m, "id")
		req.Selected = fieldStrings(m, "selected")
		req.Qty = fieldStrings(m, "qty")
		req.MinimumPrice = fieldStrings(m, "minimum_price")
		req.Interval = fieldStrings(m, "update_interval")
		req.Hours = fieldStrings(m, "update_hours")
		req.Minutes = fieldStrings(m, "update_minutes")
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		req.IDs = r.PostForm["id"]
		req.Selected = r.PostForm["selected"]
		req.Qty = r.PostForm["qty"]
		req.MinimumPrice = r.PostForm["minimum_price"]
		req.Interval = r.PostForm["update_interval"]
		req.Hours = r.PostForm["update_hours"]
		req.Minutes = r.PostForm["update_minutes"]
	}
	req.SplitInterval = len(req.Interval) == 0 && (len(req.Hours) > 0 || len(req.Minutes) > 0)
	return req, nil
}

type batchRow struct {
	id       uint
	qty      int
	min      decimal.Decimal
	interval int
}

// HandleBatchUpdate applies the checkbox-driven multi-row edit. Only
// rows whose id is in the selected set are written; rows with
// unparseable fields are skipped rather than failing the batch. Each
// surviving row is an independent store write and the reply waits for
// every write to resolve.
func (h *ProductsHandler) HandleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := batchRequestFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	if len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no product ids received"})
		return
	}

	selected := make(map[string]struct{}, len(req.Selected))
	for _, id := range req.Selected {
		if id != "" {
			selected[id] = struct{}{}
		}
	}
	if len(selected) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no rows selected"})
		return
	}

	var rows []batchRow
	for i, idStr := range req.IDs {
		if _, ok := selected[idStr]; !ok {
			continue
		}
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			continue
		}

		qty, qtyOK := toFloat(at(req.Qty, i))
		min, minErr := parseDecimal(at(req.MinimumPrice, i))

		var interval int
		intervalOK := false
		if req.SplitInterval {
			hours, hOK := toFloat(at(req.Hours, i))
			minutes, mOK := toFloat(at(req.Minutes, i))
			if hOK && mOK {
				interval = int(hours)*60 + int(minutes)
				intervalOK = true
			}
		} else if v, ok := toFloat(at(req.Interval, i)); ok {
			interval = int(v)
			intervalOK = true
		}

		if !qtyOK || minErr != nil || !intervalOK {
			h.logger.Debug("skipping invalid batch row",
				zap.String("id", idStr),
				zap.String("qty", at(req.Qty, i)),
				zap.String("minimum_price", at(req.MinimumPrice, i)))
			continue
		}

		rows = append(rows, batchRow{id: uint(id), qty: int(qty), min: min, interval: interval})
	}

	if len(rows) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no valid rows to update"})
		return
	}

	// Independent writes, join semantics: the response is not sent
	// until every issued write has resolved. Applied rows are not
	// rolled back when a later one fails.
	var wg sync.WaitGroup
	errs := make(chan error, len(rows))
	for _, row := range rows {
		wg.Add(1)
		go func(row batchRow) {
			defer wg.Done()
			if err := h.repo.UpdateFields(row.id, row.qty, row.min, row.interval); err != nil {
				h.logger.Error("batch row update failed", zap.Uint("id", row.id), zap.Error(err))
				errs <- err
			}
		}(row)
	}
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "batch update failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "batch update completed",
		"updated": len(rows),
	})
}
