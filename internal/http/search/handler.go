package search

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jpereiran/txlink/internal/embedding"
	"github.com/jpereiran/txlink/internal/semantic"
)

type Handler struct {
	svc *semantic.Service
}

func NewHandler(svc *semantic.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/semantic_search/{query}", h.search)
}

type transactionResult struct {
	ID          string  `json:"id"`
	Embedding   float64 `json:"embedding"`
	Description string  `json:"description,omitempty"`
	Amount      int64   `json:"amount,omitempty"`
}

type searchResponse struct {
	Transactions            []transactionResult `json:"transactions"`
	TotalNumberOfTokensUsed int                 `json:"total_number_of_tokens_used"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	if query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	opts, err := searchOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.Search(r.Context(), query, opts)
	if err != nil {
		switch {
		case errors.Is(err, semantic.ErrInvalidThreshold), errors.Is(err, semantic.ErrInvalidLimit):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, embedding.ErrModelUnavailable):
			http.Error(w, "embedding model unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

		return
	}

	txs := make([]transactionResult, 0, len(res.Results))

	for _, item := range res.Results {
		txs = append(txs, transactionResult{
			ID:          item.TransactionID,
			Embedding:   item.Similarity,
			Description: item.Description,
			Amount:      item.Amount,
		})
	}

	writeJSON(w, searchResponse{
		Transactions:            txs,
		TotalNumberOfTokensUsed: res.TokensUsed,
	})
}

func searchOptions(r *http.Request) (semantic.Options, error) {
	opts := semantic.DefaultOptions()
	q := r.URL.Query()

	if raw := q.Get("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.New("threshold must be a number")
		}

		opts.Threshold = threshold
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return opts, errors.New("limit must be an integer")
		}

		opts.Limit = limit
	}

	if raw := q.Get("preprocess"); raw != "" {
		preprocess, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.New("preprocess must be a boolean")
		}

		opts.Preprocess = preprocess
	}

	if raw := q.Get("include_description"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.New("include_description must be a boolean")
		}

		opts.IncludeDescription = include
	}

	return opts, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
