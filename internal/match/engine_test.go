package match_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpereiran/txlink/internal/dataset"
	"github.com/jpereiran/txlink/internal/match"
)

func testUsers() []*dataset.User {
	return []*dataset.User{
		{ID: "user1", First: "Maria", Last: "Garcia"},
		{ID: "user2", First: "Carlos", Last: "Ruiz"},
		{ID: "user3", Name: "Emma Brown"},
		{ID: "user4", Name: ""},
	}
}

func testSet() *dataset.Set {
	return dataset.NewSet([]*dataset.Transaction{
		{ID: "tx1", Description: "Transfer from Maria Garcia for Deel", Amount: 125000},
		{ID: "tx2", Description: "Payment from Emma Brown, ref 99881"},
		{ID: "tx3", Description: "4471 2209 1100 EUR ref 884"},
		{ID: "tx4", Description: ""},
	}, testUsers())
}

func TestService_MatchTransaction(t *testing.T) {
	type args struct {
		id        string
		threshold int
	}

	type testCase struct {
		name      string
		args      args
		wantIDs   []string
		wantErr   error
		wantEmpty bool
	}

	tests := []testCase{
		{
			name:    "MatchAboveThreshold",
			args:    args{id: "tx1", threshold: match.DefaultThreshold},
			wantIDs: []string{"user1"},
		},
		{
			name:      "NoCandidateInDescription",
			args:      args{id: "tx3", threshold: match.DefaultThreshold},
			wantEmpty: true,
		},
		{
			name:    "UnknownTransaction",
			args:    args{id: "missing", threshold: match.DefaultThreshold},
			wantErr: dataset.ErrNotFound,
		},
		{
			name:    "ThresholdTooHigh",
			args:    args{id: "tx1", threshold: 101},
			wantErr: match.ErrInvalidThreshold,
		},
		{
			name:    "ThresholdNegative",
			args:    args{id: "tx1", threshold: -1},
			wantErr: match.ErrInvalidThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := match.NewService(testSet())

			got, err := svc.MatchTransaction(context.Background(), tt.args.id, tt.args.threshold)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))

				return
			}

			require.NoError(t, err)

			if tt.wantEmpty {
				assert.Empty(t, got)
				return
			}

			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.UserID
			}

			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

// The concrete scenario from the scoring design: "Transfer from Maria Garcia
// for Deel" must clear the default threshold for Maria Garcia and stay far
// below it for Carlos Ruiz.
func TestMatchDescription_ConcreteScenario(t *testing.T) {
	users := testUsers()

	results := match.MatchDescription("Transfer from Maria Garcia for Deel", users, 0)
	require.NotEmpty(t, results)

	byUser := make(map[string]int, len(results))
	for _, r := range results {
		byUser[r.UserID] = r.Score
	}

	assert.GreaterOrEqual(t, byUser["user1"], match.DefaultThreshold)

	carlos, matched := byUser["user2"]
	if matched {
		assert.Less(t, carlos, 20)
	}
}

func TestMatchDescription_ThresholdMonotonic(t *testing.T) {
	users := testUsers()
	description := "Transfer from Maria Garcia for Deel"

	var prev []match.Result

	for _, threshold := range []int{0, 20, 40, 60, 80, 100} {
		got := match.MatchDescription(description, users, threshold)

		if prev != nil {
			// Raising the threshold may only shrink the result set.
			assert.LessOrEqual(t, len(got), len(prev))

			seen := make(map[string]struct{}, len(prev))
			for _, r := range prev {
				seen[r.UserID] = struct{}{}
			}

			for _, r := range got {
				_, ok := seen[r.UserID]
				assert.True(t, ok, "user %s appeared only at the higher threshold", r.UserID)
			}
		}

		prev = got
	}
}

func TestMatchDescription_Deterministic(t *testing.T) {
	users := testUsers()
	description := "Payment from Emma Brown, ref 99881"

	first := match.MatchDescription(description, users, 0)

	for range 5 {
		assert.Equal(t, first, match.MatchDescription(description, users, 0))
	}
}

func TestMatchDescription_OrderingStable(t *testing.T) {
	users := []*dataset.User{
		{ID: "b", Name: "Maria Garcia"},
		{ID: "a", Name: "Maria Garcia"},
		{ID: "c", Name: "Maria Garcia"},
	}

	results := match.MatchDescription("From Maria Garcia for Deel", users, 0)
	require.Len(t, results, 3)

	// Equal scores fall back to ascending user id.
	assert.Equal(t, "a", results[0].UserID)
	assert.Equal(t, "b", results[1].UserID)
	assert.Equal(t, "c", results[2].UserID)
}

func TestService_MatchAll(t *testing.T) {
	svc := match.NewService(testSet())

	got, err := svc.MatchAll(context.Background(), match.DefaultThreshold)
	require.NoError(t, err)

	// tx4 has an empty description and is skipped entirely.
	require.Len(t, got, 3)

	byTx := make(map[string][]match.Result, len(got))
	for _, tm := range got {
		byTx[tm.TransactionID] = tm.Results
	}

	require.NotEmpty(t, byTx["tx1"])
	assert.Equal(t, "user1", byTx["tx1"][0].UserID)
	assert.Equal(t, "Maria Garcia", byTx["tx1"][0].Name)

	require.NotEmpty(t, byTx["tx2"])
	assert.Equal(t, "user3", byTx["tx2"][0].UserID)

	assert.Empty(t, byTx["tx3"])
}

func TestService_MatchAll_InvalidThreshold(t *testing.T) {
	svc := match.NewService(testSet())

	_, err := svc.MatchAll(context.Background(), 150)
	assert.ErrorIs(t, err, match.ErrInvalidThreshold)
}
