package products

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The console's forms post urlencoded bodies while its scripts post
// JSON; every operation therefore normalizes both shapes into one
// explicit input type before any validation or I/O.

func isJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func decodeJSONBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

func fieldString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "1"
		}
		return "0"
	}
	return ""
}

func fieldStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			switch t := item.(type) {
			case string:
				out[i] = t
			case json.Number:
				out[i] = t.String()
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case json.Number:
		return []string{v.String()}
	}
	return nil
}

// toFloat parses a finite number; empty or malformed input fails.
func toFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// at indexes a parallel form array, tolerating ragged lengths.
func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

type singleUpdateInput struct {
	qty            string
	minimumPrice   string
	updateInterval string
}

func singleUpdateFromRequest(r *http.Request) (singleUpdateInput, error) {
	if isJSONRequest(r) {
		m, err := decodeJSONBody(r)
		if err != nil {
			return singleUpdateInput{}, err
		}
		return singleUpdateInput{
			qty:            fieldString(m, "qty"),
			minimumPrice:   fieldString(m, "minimum_price"),
			updateInterval: fieldString(m, "update_interval"),
		}, nil
	}
	if err := r.ParseForm(); err != nil {
		return singleUpdateInput{}, err
	}
	return singleUpdateInput{
		qty:            r.PostFormValue("qty"),
		minimumPrice:   r.PostFormValue("minimum_price"),
		updateInterval: r.PostFormValue("update_interval"),
	}, nil
}

func activeFromRequest(r *http.Request) (string, error) {
	if isJSONRequest(r) {
		m, err := decodeJSONBody(r)
		if err != nil {
			return "", err
		}
		return fieldString(m, "active"), nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostFormValue("active"), nil
}
