// Package handler serves the dashboard reads over the ledger: transactions,
// summaries, CSV export and category suggestions.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/insights"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/budget-dashboard/pkg/httpx"
)

// Ledger is the read and edit surface the dashboard needs.
type Ledger interface {
	Transactions() []ledger.Transaction
	Categories() []categorization.Category
	Rules() []categorization.KeywordRule
	Classifier() *categorization.Classifier
	Recategorize(ctx context.Context, id, categoryID string) (ledger.Transaction, error)
	SetNote(ctx context.Context, id, note string) (ledger.Transaction, error)
	AddRule(ctx context.Context, keyword, categoryID string) (categorization.KeywordRule, error)
}

// InsightsHandler serves the dashboard endpoints.
type InsightsHandler struct {
	ledger   Ledger
	search   *categorization.SearchIndex
	currency string
	logger   *slog.Logger
}

// NewInsightsHandler constructs a new handler. search may be nil, which
// disables suggestions.
func NewInsightsHandler(l Ledger, search *categorization.SearchIndex, currency string, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{ledger: l, search: search, currency: currency, logger: logger}
}

// Routes mounts the dashboard endpoints on r.
func (h *InsightsHandler) Routes(r chi.Router) {
	r.Get("/transactions", h.ListTransactions)
	r.Get("/transactions/export", h.ExportTransactions)
	r.Patch("/transactions/{id}", h.UpdateTransaction)
	r.Get("/summary", h.GetSummary)
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/suggest", h.SuggestCategories)
	r.Post("/rules", h.CreateRule)
}

// ListTransactions returns the ledger newest batch first. An optional
// category query parameter filters by category id.
func (h *InsightsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.ledger.Transactions()
	if cat := r.URL.Query().Get("category"); cat != "" {
		filtered := txs[:0]
		for _, tx := range txs {
			if tx.CategoryID == cat {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txs, "count": len(txs)})
}

// ExportTransactions streams the ledger as a CSV download.
func (h *InsightsHandler) ExportTransactions(w http.ResponseWriter, _ *http.Request) {
	names := make(map[string]string)
	for _, c := range h.ledger.Categories() {
		names[c.ID] = c.Name
	}

	filename := fmt.Sprintf("transactions-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := ledger.WriteCSV(w, h.ledger.Transactions(), names); err != nil {
		h.logger.Error("failed to export transactions", slog.Any("error", err))
	}
}

type updateTransactionRequest struct {
	CategoryID *string `json:"categoryId,omitempty"`
	Note       *string `json:"note,omitempty"`
}

// UpdateTransaction changes the category and/or note of one transaction.
func (h *InsightsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateTransactionRequest
	if err := httpx.Decode(r.Body, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CategoryID == nil && req.Note == nil {
		httpx.Error(w, http.StatusBadRequest, "categoryId or note is required")
		return
	}

	var (
		tx  ledger.Transaction
		err error
	)
	if req.CategoryID != nil {
		tx, err = h.ledger.Recategorize(r.Context(), id, *req.CategoryID)
	}
	if err == nil && req.Note != nil {
		tx, err = h.ledger.SetNote(r.Context(), id, *req.Note)
	}
	if err != nil {
		h.writeLedgerError(w, err, slog.String("transaction_id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

// GetSummary returns totals, budgets and the monthly trend.
func (h *InsightsHandler) GetSummary(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, insights.Summarize(h.ledger.Transactions(), h.ledger.Categories(), h.currency))
}

// ListCategories returns the category catalog.
func (h *InsightsHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, h.ledger.Categories())
}

type suggestResponse struct {
	Description string                      `json:"description"`
	Match       string                      `json:"match,omitempty"` // category a keyword rule assigns today
	Suggestions []categorization.Suggestion `json:"suggestions"`
}

// SuggestCategories answers "which category is this?" for a description.
func (h *InsightsHandler) SuggestCategories(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httpx.Error(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 5
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			httpx.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	resp := suggestResponse{Description: q, Suggestions: []categorization.Suggestion{}}
	if rule, ok := h.ledger.Classifier().Explain(q); ok {
		resp.Match = rule.CategoryID
	}

	if h.search != nil {
		suggestions, err := h.search.Suggest(q, limit)
		if err != nil {
			h.logger.Error("category suggestion failed", slog.String("query", q), slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "suggestions unavailable")
			return
		}
		if suggestions != nil {
			resp.Suggestions = suggestions
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// CreateRule adds a user keyword rule. User rules win over built-in ones.
func (h *InsightsHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword    string `json:"keyword"`
		CategoryID string `json:"categoryId"`
	}
	if err := httpx.Decode(r.Body, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := h.ledger.AddRule(r.Context(), req.Keyword, req.CategoryID)
	if err != nil {
		h.writeLedgerError(w, err, slog.String("keyword", req.Keyword))
		return
	}

	if h.search != nil {
		if err := h.search.IndexCatalog(h.ledger.Categories(), h.ledger.Rules()); err != nil {
			h.logger.Warn("failed to refresh suggestion index", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, rule)
}

func (h *InsightsHandler) writeLedgerError(w http.ResponseWriter, err error, attrs ...any) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrUnknownCategory), errors.Is(err, ledger.ErrInvalidRule):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("ledger update failed", append(attrs, slog.Any("error", err))...)
		httpx.Error(w, http.StatusInternalServerError, "failed to update ledger")
	}
}
