package supabase

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paper-trader/internal/config"
	"paper-trader/internal/models"
	"paper-trader/internal/store"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const restPath = "/rest/v1"

// Client talks to the Supabase PostgREST API.
// It implements store.Store.
type Client struct {
	client     *resty.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
	maxRetries int
	retryWait  time.Duration
}

// ensure Client implements the interface
var _ store.Store = (*Client)(nil)

// NewClient creates a new Supabase REST client.
func NewClient(cfg *config.Store, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+restPath).
		SetHeader("apikey", cfg.Key).
		SetAuthToken(cfg.Key).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &Client{
		client:     client,
		logger:     logger.Named("supabase"),
		limiter:    rate.NewLimiter(limit, max(cfg.RateLimitBurst, 1)),
		maxRetries: maxRetries,
		retryWait:  cfg.RetryWait,
	}
}

// doRequest executes req with rate limiting, retrying throttled, server-side
// and network failures with exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	req.SetContext(ctx)

	for i := 0; i < c.maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == http.StatusTeapot {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
			err = fmt.Errorf("status %s: %s", resp.Status(), resp.String())
		} else {
			// Network or other client-side errors.
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with %w", err)
		}
		if i == c.maxRetries-1 {
			break
		}

		if retryAfter == 0 {
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.retryWait
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, err)
}

type priceRow struct {
	ClosePrice decimal.Decimal `json:"close_price"`
}

// LatestPrice returns the close price of the newest daily_prices row for symbol.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var rows []priceRow
	req := c.client.R().
		SetQueryParams(map[string]string{
			"select": "close_price",
			"symbol": "eq." + symbol,
			"order":  "date.desc",
			"limit":  "1",
		}).
		ForceContentType("application/json").
		SetResult(&rows)

	if _, err := c.doRequest(ctx, http.MethodGet, "/daily_prices", req); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get latest price for %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return decimal.Zero, store.ErrNotFound
	}
	return rows[0].ClosePrice, nil
}

// LoadHoldings returns every row of the holdings table.
func (c *Client) LoadHoldings(ctx context.Context) ([]models.Holding, error) {
	var rows []models.Holding
	req := c.client.R().
		SetQueryParams(map[string]string{
			"select": "symbol,quantity,avg_price",
			"order":  "symbol.asc",
		}).
		ForceContentType("application/json").
		SetResult(&rows)

	if _, err := c.doRequest(ctx, http.MethodGet, "/holdings", req); err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return rows, nil
}

// upsert posts body to table, merging on the conflict column.
func (c *Client) upsert(ctx context.Context, table, onConflict string, body any) error {
	req := c.client.R().
		SetQueryParam("on_conflict", onConflict).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(body)

	_, err := c.doRequest(ctx, http.MethodPost, "/"+table, req)
	return err
}

// SaveHolding upserts h on symbol.
func (c *Client) SaveHolding(ctx context.Context, h models.Holding) error {
	if err := c.upsert(ctx, "holdings", "symbol", h); err != nil {
		return fmt.Errorf("failed to save holding %s: %w", h.Symbol, err)
	}
	return nil
}

// DeleteHolding removes the holdings row for symbol.
func (c *Client) DeleteHolding(ctx context.Context, symbol string) error {
	req := c.client.R().SetQueryParam("symbol", "eq."+symbol)
	if _, err := c.doRequest(ctx, http.MethodDelete, "/holdings", req); err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", symbol, err)
	}
	return nil
}

// UpsertPnL writes rec to the pnl table, replacing the row for its date.
func (c *Client) UpsertPnL(ctx context.Context, rec models.PnLRecord) error {
	if err := c.upsert(ctx, "pnl", "date", rec); err != nil {
		return fmt.Errorf("failed to save pnl for %s: %w", rec.Date, err)
	}
	return nil
}

// LatestPnL returns the newest pnl row.
func (c *Client) LatestPnL(ctx context.Context) (models.PnLRecord, error) {
	recs, err := c.PnLHistory(ctx, 1)
	if err != nil {
		return models.PnLRecord{}, err
	}
	if len(recs) == 0 {
		return models.PnLRecord{}, store.ErrNotFound
	}
	return recs[0], nil
}

// RecentPrices returns up to limit daily_prices rows, newest date first.
func (c *Client) RecentPrices(ctx context.Context, limit int) ([]models.DailyPrice, error) {
	var rows []models.DailyPrice
	req := c.client.R().
		SetQueryParams(map[string]string{
			"select": "symbol,date,close_price",
			"order":  "date.desc,symbol.asc",
			"limit":  strconv.Itoa(limit),
		}).
		ForceContentType("application/json").
		SetResult(&rows)

	if _, err := c.doRequest(ctx, http.MethodGet, "/daily_prices", req); err != nil {
		return nil, fmt.Errorf("failed to get recent prices: %w", err)
	}
	return rows, nil
}

// PnLHistory returns up to limit pnl rows, newest first.
func (c *Client) PnLHistory(ctx context.Context, limit int) ([]models.PnLRecord, error) {
	var rows []models.PnLRecord
	req := c.client.R().
		SetQueryParams(map[string]string{
			"select": "date,cash,unrealized_pnl,total",
			"order":  "date.desc",
			"limit":  strconv.Itoa(limit),
		}).
		ForceContentType("application/json").
		SetResult(&rows)

	if _, err := c.doRequest(ctx, http.MethodGet, "/pnl", req); err != nil {
		return nil, fmt.Errorf("failed to get pnl history: %w", err)
	}
	return rows, nil
}

// RecordTrade inserts t into the trades table.
func (c *Client) RecordTrade(ctx context.Context, t models.Trade) error {
	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal").
		SetBody(t)

	if _, err := c.doRequest(ctx, http.MethodPost, "/trades", req); err != nil {
		return fmt.Errorf("failed to record trade %s: %w", t.ID, err)
	}
	return nil
}

// ListTrades returns up to limit trades, newest first.
func (c *Client) ListTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	var rows []models.Trade
	req := c.client.R().
		SetQueryParams(map[string]string{
			"select": "*",
			"order":  "id.desc",
			"limit":  strconv.Itoa(limit),
		}).
		ForceContentType("application/json").
		SetResult(&rows)

	if _, err := c.doRequest(ctx, http.MethodGet, "/trades", req); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return rows, nil
}

// Ping checks that the API answers, using the cheapest table read.
func (c *Client) Ping(ctx context.Context) error {
	req := c.client.R().SetQueryParams(map[string]string{"select": "date", "limit": "1"})
	if _, err := c.doRequest(ctx, http.MethodGet, "/pnl", req); err != nil {
		return fmt.Errorf("failed to reach supabase: %w", err)
	}
	return nil
}

// Close is a no-op; resty holds no resources that need releasing.
func (c *Client) Close() error {
	return nil
}
