package net32

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAccessDenied means the marketplace rejected our subscription
	// key; the operator should check the API credentials.
	ErrAccessDenied = errors.New("net32: access denied")

	// ErrNoResult means the fetch succeeded but returned no product
	// record for the requested code.
	ErrNoResult = errors.New("net32: no result for product code")

	// ErrMalformedResponse means no parseable JSON could be found in
	// the response body.
	ErrMalformedResponse = errors.New("net32: malformed response body")

	// ErrUnexpectedResponse means the response parsed but did not
	// report success.
	ErrUnexpectedResponse = errors.New("net32: unexpected response")
)

// DefaultUpdateInterval is the refresh interval, in minutes, assigned
// to price tiers when none is supplied. The marketplace feed itself
// carries no interval.
const DefaultUpdateInterval = 720

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL                  string
	InventoryURL             string
	SubscriptionKey          string
	InventorySubscriptionKey string
	Timeout                  time.Duration
}

// Client talks to the Net32 marketplace pricing API. All calls use a
// bounded timeout so a stalled endpoint cannot hold a request forever.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// PriceTier is one normalized price-break entry from the feed.
type PriceTier struct {
	Qty      int     `json:"qty"`
	MinPrice float64 `json:"min_price"`
	Interval int     `json:"interval"`
}

// ProductInfo is the canonical metadata for a product code.
type ProductInfo struct {
	MPID        string      `json:"mpid"`
	Description string      `json:"description"`
	Active      bool        `json:"active"`
	Tiers       []PriceTier `json:"price_breaks"`
}

type fetchRequest struct {
	VPCode      string `json:"vpCode"`
	MPID        string `json:"mpid"`
	Status      string `json:"status"`
	Limit       int    `json:"limit"`
	AfterVPCode string `json:"after_vpCode"`
}

type fetchResponse struct {
	Payload struct {
		Result []struct {
			MPID        string `json:"mpid"`
			Description string `json:"description"`
			PriceList   []struct {
				MinQty   int     `json:"minQty"`
				Price    float64 `json:"price"`
				ActiveCd int     `json:"activeCd"`
			} `json:"priceList"`
		} `json:"result"`
	} `json:"payload"`
}

// FetchProduct looks up canonical metadata for a product code and maps
// up to maxTiers of its price list into normalized tiers. The derived
// active flag is true iff any tier reports activeCd 1.
func (c *Client) FetchProduct(ctx context.Context, code string, maxTiers int) (*ProductInfo, error) {
	if maxTiers <= 0 {
		maxTiers = 5
	}

	url := fmt.Sprintf("%s/%s.json", strings.TrimRight(c.cfg.BaseURL, "/"), code)
	body, err := json.Marshal(fetchRequest{
		VPCode: code,
		Status: "all",
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, url, body, c.cfg.SubscriptionKey)
	if err != nil {
		return nil, fmt.Errorf("net32: fetch %s: %w", code, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrAccessDenied
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("product fetch failed",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", snippet(string(raw))))
		return nil, fmt.Errorf("net32: fetch %s: status %d", code, resp.StatusCode)
	}

	var parsed fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parsed.Payload.Result) == 0 {
		return nil, ErrNoResult
	}

	record := parsed.Payload.Result[0]
	info := &ProductInfo{
		MPID:        record.MPID,
		Description: record.Description,
	}
	for i, tier := range record.PriceList {
		if i >= maxTiers {
			break
		}
		info.Tiers = append(info.Tiers, PriceTier{
			Qty:      tier.MinQty,
			MinPrice: tier.Price,
			Interval: DefaultUpdateInterval,
		})
		if tier.ActiveCd == 1 {
			info.Active = true
		}
	}
	return info, nil
}

type inventoryRequest struct {
	VPCode            string `json:"vpCode"`
	MPID              string `json:"mpid"`
	PriceList         []any  `json:"priceList"`
	FulfillmentPolicy string `json:"fulfillmentPolicy"`
	PHT               int    `json:"pht"`
	Inventory         int    `json:"inventory"`
}

type inventoryResult struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// PushInventory reports a new stock level to the marketplace. The
// response body is loosely formatted text; the last embedded JSON
// object decides success, falling back to a whole-body parse when no
// object is found.
func (c *Client) PushInventory(ctx context.Context, sku, mpid string, inventory int) error {
	body, err := json.Marshal(inventoryRequest{
		VPCode:            sku,
		MPID:              mpid,
		PriceList:         []any{},
		FulfillmentPolicy: "stock",
		PHT:               1,
		Inventory:         inventory,
	})
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, c.cfg.InventoryURL, body, c.cfg.InventorySubscriptionKey)
	if err != nil {
		return fmt.Errorf("net32: inventory push for %s: %w", sku, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("net32: inventory push for %s: %w", sku, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("inventory push failed",
			zap.String("sku", sku),
			zap.Int("status", resp.StatusCode),
			zap.String("body", snippet(string(raw))))
		return fmt.Errorf("net32: inventory push for %s: status %d", sku, resp.StatusCode)
	}

	var result inventoryResult
	if obj, ok := ExtractLastJSONObject(string(raw)); ok {
		if err := json.Unmarshal([]byte(obj), &result); err != nil {
			return fmt.Errorf("%w: %s", ErrMalformedResponse, snippet(string(raw)))
		}
	} else if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedResponse, snippet(string(raw)))
	}

	if result.StatusCode == http.StatusOK || result.Success {
		return nil
	}

	c.logger.Error("inventory push rejected",
		zap.String("sku", sku),
		zap.Int("statusCode", result.StatusCode),
		zap.String("message", result.Message),
		zap.String("body", snippet(string(raw))))
	return fmt.Errorf("%w: %s", ErrUnexpectedResponse, snippet(string(raw)))
}

func (c *Client) post(ctx context.Context, url string, body []byte, subscriptionKey string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Subscription-Key", subscriptionKey)
	return c.httpClient.Do(req)
}

func snippet(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
