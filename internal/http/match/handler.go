package match

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jpereiran/txlink/internal/dataset"
	"github.com/jpereiran/txlink/internal/match"
)

type Handler struct {
	svc *match.Service
}

func NewHandler(svc *match.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/{id}", h.matchTransaction)
	r.Get("/transactions_with_users", h.transactionsWithUsers)
}

type userMatch struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MatchMetric int    `json:"match_metric"`
}

type matchResponse struct {
	Users                []userMatch `json:"users"`
	TotalNumberOfMatches int         `json:"total_number_of_matches"`
}

func (h *Handler) matchTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	threshold, err := thresholdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.svc.MatchTransaction(r.Context(), id, threshold)
	if err != nil {
		switch {
		case errors.Is(err, dataset.ErrNotFound):
			http.Error(w, "transaction not found", http.StatusNotFound)
		case errors.Is(err, match.ErrInvalidThreshold):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, matchResponse{
		Users:                toUserMatches(results),
		TotalNumberOfMatches: len(results),
	})
}

type transactionWithUsers struct {
	TransactionID string      `json:"transaction_id"`
	Description   string      `json:"description"`
	Amount        int64       `json:"amount"`
	PossibleUsers []userMatch `json:"possible_users"`
	TotalMatches  int         `json:"total_matches"`
}

// transactionsWithUsers responds with a bare list, one entry per transaction
// with a non-empty description.
func (h *Handler) transactionsWithUsers(w http.ResponseWriter, r *http.Request) {
	threshold, err := thresholdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	all, err := h.svc.MatchAll(r.Context(), threshold)
	if err != nil {
		if errors.Is(err, match.ErrInvalidThreshold) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	txs := make([]transactionWithUsers, 0, len(all))

	for _, tm := range all {
		txs = append(txs, transactionWithUsers{
			TransactionID: tm.TransactionID,
			Description:   tm.Description,
			Amount:        tm.Amount,
			PossibleUsers: toUserMatches(tm.Results),
			TotalMatches:  len(tm.Results),
		})
	}

	writeJSON(w, txs)
}

func toUserMatches(results []match.Result) []userMatch {
	users := make([]userMatch, 0, len(results))

	for _, res := range results {
		users = append(users, userMatch{
			ID:          res.UserID,
			Name:        res.Name,
			MatchMetric: res.Score,
		})
	}

	return users
}

func thresholdParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		return match.DefaultThreshold, nil
	}

	threshold, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("threshold must be an integer")
	}

	return threshold, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
