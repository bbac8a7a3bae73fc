package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpereiran/txlink/internal/dataset"
	"github.com/jpereiran/txlink/internal/embedding"
	txhttp "github.com/jpereiran/txlink/internal/http"
	matchhttp "github.com/jpereiran/txlink/internal/http/match"
	searchhttp "github.com/jpereiran/txlink/internal/http/search"
	"github.com/jpereiran/txlink/internal/match"
	"github.com/jpereiran/txlink/internal/semantic"
)

func newTestServer(t *testing.T, embedder embedding.Embedder) *httptest.Server {
	t.Helper()

	repo := dataset.NewSet(
		[]*dataset.Transaction{
			{ID: "tx1", Description: "Transfer from Maria Garcia for Deel", Amount: 125000, Date: "2024-01-17"},
			{ID: "tx2", Description: "Monthly payroll deposit", Amount: 250000, Date: "2024-01-31"},
			{ID: "tx3", Description: "office supplies invoice #4471", Amount: 8340, Date: "2024-02-02"},
		},
		[]*dataset.User{
			{ID: "u1", First: "Maria", Last: "Garcia"},
			{ID: "u2", First: "Carlos", Last: "Ruiz"},
		},
	)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := txhttp.New(
		matchhttp.NewHandler(match.NewService(repo)),
		searchhttp.NewHandler(semantic.NewService(repo, embedder, log)),
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}

type matchResponse struct {
	Users []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		MatchMetric int    `json:"match_metric"`
	} `json:"users"`
	TotalNumberOfMatches int `json:"total_number_of_matches"`
}

func TestMatchTransactionEndpoint(t *testing.T) {
	srv := newTestServer(t, embedding.NewCache(embedding.NewLocal()))

	resp, err := http.Post(srv.URL+"/api/v1/transactions/tx1", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body matchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Equal(t, 1, body.TotalNumberOfMatches)
	assert.Equal(t, "u1", body.Users[0].ID)
	assert.Equal(t, "Maria Garcia", body.Users[0].Name)
	assert.GreaterOrEqual(t, body.Users[0].MatchMetric, match.DefaultThreshold)
}

func TestMatchTransactionEndpoint_Errors(t *testing.T) {
	srv := newTestServer(t, embedding.NewCache(embedding.NewLocal()))

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"unknown id", "/api/v1/transactions/nope", http.StatusNotFound},
		{"threshold not a number", "/api/v1/transactions/tx1?threshold=abc", http.StatusBadRequest},
		{"threshold out of range", "/api/v1/transactions/tx1?threshold=150", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+tt.url, "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestTransactionsWithUsersEndpoint(t *testing.T) {
	srv := newTestServer(t, embedding.NewCache(embedding.NewLocal()))

	resp, err := http.Get(srv.URL + "/api/v1/transactions/transactions_with_users")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []struct {
		TransactionID string `json:"transaction_id"`
		Description   string `json:"description"`
		PossibleUsers []struct {
			ID string `json:"id"`
		} `json:"possible_users"`
		TotalMatches int `json:"total_matches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body, 3)
	assert.Equal(t, "tx1", body[0].TransactionID)
	assert.Equal(t, "Transfer from Maria Garcia for Deel", body[0].Description)
	require.NotEmpty(t, body[0].PossibleUsers)
	assert.Equal(t, "u1", body[0].PossibleUsers[0].ID)
	assert.Equal(t, len(body[0].PossibleUsers), body[0].TotalMatches)
}

type searchResponse struct {
	Transactions []struct {
		ID          string  `json:"id"`
		Embedding   float64 `json:"embedding"`
		Description string  `json:"description"`
		Amount      int64   `json:"amount"`
	} `json:"transactions"`
	TotalNumberOfTokensUsed int `json:"total_number_of_tokens_used"`
}

func TestSemanticSearchEndpoint(t *testing.T) {
	srv := newTestServer(t, embedding.NewCache(embedding.NewLocal()))

	// A query identical to a description embeds to the same vector, so that
	// transaction comes back with similarity 1 regardless of the model.
	// Description and amount are part of the default response.
	resp, err := http.Post(
		srv.URL+"/api/v1/transactions/semantic_search/Monthly%20payroll%20deposit",
		"application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body searchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.NotEmpty(t, body.Transactions)
	assert.Equal(t, "tx2", body.Transactions[0].ID)
	assert.InDelta(t, 1.0, body.Transactions[0].Embedding, 1e-9)
	assert.Equal(t, "Monthly payroll deposit", body.Transactions[0].Description)
	assert.Equal(t, int64(250000), body.Transactions[0].Amount)
	assert.Positive(t, body.TotalNumberOfTokensUsed)
}

func TestSemanticSearchEndpoint_ExcludeDescription(t *testing.T) {
	srv := newTestServer(t, embedding.NewCache(embedding.NewLocal()))

	resp, err := http.Post(
		srv.URL+"/api/v1/transactions/semantic_search/Monthly%20payroll%20deposit?include_description=false",
		"application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body searchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.NotEmpty(t, body.Transactions)
	assert.Empty(t, body.Transactions[0].Description)
	assert.Zero(t, body.Transactions[0].Amount)
}

func TestSemanticSearchEndpoint_Errors(t *testing.T) {
	srv := newTestServer(t, embedding.NewCache(embedding.NewLocal()))

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"bad threshold", "/api/v1/transactions/semantic_search/rent?threshold=2", http.StatusBadRequest},
		{"bad limit", "/api/v1/transactions/semantic_search/rent?limit=0", http.StatusBadRequest},
		{"limit not a number", "/api/v1/transactions/semantic_search/rent?limit=abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+tt.url, "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSemanticSearchEndpoint_ModelUnavailable(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/v1/transactions/semantic_search/rent", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
