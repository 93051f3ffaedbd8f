package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"paper-trader/internal/models"
	"paper-trader/internal/portfolio"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

// Portfolio is the accounting service behind the handlers.
type Portfolio interface {
	Buy(ctx context.Context, symbol string, quantity int64) (portfolio.Summary, error)
	Sell(ctx context.Context, symbol string, quantity int64) (portfolio.Summary, error)
	Summary(ctx context.Context) (portfolio.Summary, error)
	UpdateDailyPnL(ctx context.Context) (portfolio.Summary, error)
	State() portfolio.State
}

// History is the read side of the journal and snapshot tables.
type History interface {
	PnLHistory(ctx context.Context, limit int) ([]models.PnLRecord, error)
	ListTrades(ctx context.Context, limit int) ([]models.Trade, error)
	LoadHoldings(ctx context.Context) ([]models.Holding, error)
	RecentPrices(ctx context.Context, limit int) ([]models.DailyPrice, error)
}

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log       *zap.Logger
	portfolio Portfolio
	history   History
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, p Portfolio, h History) *APIHandler {
	return &APIHandler{log: log, portfolio: p, history: h}
}

// Routes registers every endpoint on a new mux.
func (h *APIHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /buy", h.BuyHandler)
	mux.HandleFunc("POST /sell", h.SellHandler)
	mux.HandleFunc("POST /update", h.UpdateHandler)
	mux.HandleFunc("GET /portfolio", h.PortfolioHandler)
	mux.HandleFunc("GET /summary", h.SummaryHandler)
	mux.HandleFunc("GET /pnl", h.PnLHandler)
	mux.HandleFunc("GET /trades", h.TradesHandler)
	mux.HandleFunc("GET /debug", h.DebugHandler)
	mux.HandleFunc("GET /health", h.HealthHandler)
	return mux
}

// orderRequest is accepted as query parameters or as a JSON body.
type orderRequest struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func parseOrder(r *http.Request) (orderRequest, error) {
	var req orderRequest
	q := r.URL.Query()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
	} else {
		req.Symbol = q.Get("symbol")
		if raw := q.Get("quantity"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return req, fmt.Errorf("quantity must be an integer, got %q", raw)
			}
			req.Quantity = n
		}
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	return req, nil
}

// BuyHandler buys shares and returns the resulting summary.
func (h *APIHandler) BuyHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseOrder(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	summary, err := h.portfolio.Buy(r.Context(), req.Symbol, req.Quantity)
	if err != nil {
		h.writeError(w, "buy", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// SellHandler sells shares and returns the resulting summary.
func (h *APIHandler) SellHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseOrder(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	summary, err := h.portfolio.Sell(r.Context(), req.Symbol, req.Quantity)
	if err != nil {
		h.writeError(w, "sell", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// UpdateHandler writes today's P&L snapshot.
func (h *APIHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.portfolio.UpdateDailyPnL(r.Context()); err != nil {
		h.writeError(w, "update", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// PortfolioHandler returns cash and holdings without touching the store.
func (h *APIHandler) PortfolioHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.portfolio.State())
}

// SummaryHandler values the portfolio at the latest prices.
func (h *APIHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolio.Summary(r.Context())
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// PnLHandler returns recent daily snapshots, newest first.
func (h *APIHandler) PnLHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	recs, err := h.history.PnLHistory(r.Context(), limit)
	if err != nil {
		h.writeError(w, "pnl history", err)
		return
	}
	if recs == nil {
		recs = []models.PnLRecord{}
	}
	h.writeJSON(w, http.StatusOK, recs)
}

// TradesHandler returns recent trades, newest first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	trades, err := h.history.ListTrades(r.Context(), limit)
	if err != nil {
		h.writeError(w, "trades", err)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// DebugResponse compares the in-memory state with the store.
type DebugResponse struct {
	AppState       portfolio.State     `json:"app_state"`
	Summary        *portfolio.Summary  `json:"summary,omitempty"`
	SummaryError   string              `json:"summary_error,omitempty"`
	StoredHoldings []models.Holding    `json:"stored_holdings"`
	RecentPrices   []models.DailyPrice `json:"recent_prices"`
	RecentPnL      []models.PnLRecord  `json:"recent_pnl"`
	InSync         bool                `json:"in_sync"`
}

// DebugHandler reports the in-memory state and its valuation next to the
// stored holdings, prices and snapshots. A valuation failure is reported in
// the body rather than failing the request.
func (h *APIHandler) DebugHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := h.portfolio.State()

	stored, err := h.history.LoadHoldings(ctx)
	if err != nil {
		h.writeError(w, "debug holdings", err)
		return
	}
	prices, err := h.history.RecentPrices(ctx, 10)
	if err != nil {
		h.writeError(w, "debug prices", err)
		return
	}
	recent, err := h.history.PnLHistory(ctx, 5)
	if err != nil {
		h.writeError(w, "debug pnl", err)
		return
	}

	inSync := len(stored) == len(state.Holdings)
	for _, row := range stored {
		pos, ok := state.Holdings[row.Symbol]
		if !ok || pos.Quantity != row.Quantity || !pos.AvgPrice.Equal(row.AvgPrice) {
			inSync = false
			break
		}
	}

	resp := DebugResponse{
		AppState:       state,
		StoredHoldings: stored,
		RecentPrices:   prices,
		RecentPnL:      recent,
		InSync:         inSync,
	}
	if summary, err := h.portfolio.Summary(ctx); err != nil {
		resp.SummaryError = err.Error()
	} else {
		resp.Summary = &summary
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HealthHandler reports that the server is up.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxHistoryLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxHistoryLimit)
	}
	return n, nil
}

// writeError maps validation failures to 400 with their message and
// everything else to 500.
func (h *APIHandler) writeError(w http.ResponseWriter, op string, err error) {
	var verr *portfolio.Error
	if errors.As(err, &verr) {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Kind: verr.Kind.String()})
		return
	}

	h.log.Error("Request failed", zap.String("op", op), zap.Error(err))
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}
