package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps Local and counts provider calls so tests can assert
// how many computations actually reached the model.
type countingEmbedder struct {
	inner *Local

	embeds  atomic.Int64
	batches atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, int, error) {
	c.embeds.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, []int, error) {
	c.batches.Add(1)
	return c.inner.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Dimensions() int { return c.inner.Dimensions() }

func (c *countingEmbedder) Model() string { return c.inner.Model() }

func TestCache_IdenticalTextIdenticalVector(t *testing.T) {
	counter := &countingEmbedder{inner: NewLocal()}
	cache := NewCache(counter)
	ctx := context.Background()

	first, tokens, err := cache.Embed(ctx, "Salary from Acme Corp")
	require.NoError(t, err)

	second, tokens2, err := cache.Embed(ctx, "Salary from Acme Corp")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, tokens, tokens2)
	assert.Equal(t, int64(1), counter.embeds.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestCache_ReturnedVectorIsACopy(t *testing.T) {
	cache := NewCache(NewLocal())
	ctx := context.Background()

	first, _, err := cache.Embed(ctx, "rent payment")
	require.NoError(t, err)

	first[0] = 42

	second, _, err := cache.Embed(ctx, "rent payment")
	require.NoError(t, err)

	assert.NotEqual(t, float32(42), second[0])
}

func TestCache_ConcurrentSingleComputation(t *testing.T) {
	counter := &countingEmbedder{inner: NewLocal()}
	cache := NewCache(counter)

	var wg sync.WaitGroup

	results := make([][]float32, 32)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			vec, _, err := cache.Embed(context.Background(), "grocery store purchase")
			require.NoError(t, err)

			results[i] = vec
		}(i)
	}

	wg.Wait()

	for _, vec := range results[1:] {
		assert.Equal(t, results[0], vec)
	}

	assert.Equal(t, int64(1), counter.embeds.Load())
}

func TestCache_BatchMixedHitsAndMisses(t *testing.T) {
	counter := &countingEmbedder{inner: NewLocal()}
	cache := NewCache(counter)
	ctx := context.Background()

	warm, _, err := cache.Embed(ctx, "utility bill")
	require.NoError(t, err)

	texts := []string{"utility bill", "car insurance", "utility bill", "car insurance"}

	vecs, tokens, err := cache.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vecs, 4)
	require.Len(t, tokens, 4)

	assert.Equal(t, warm, vecs[0])
	assert.Equal(t, vecs[0], vecs[2])
	assert.Equal(t, vecs[1], vecs[3])

	// One provider batch covering the single unique miss.
	assert.Equal(t, int64(1), counter.batches.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestCache_KeyIncludesModel(t *testing.T) {
	cache := NewCache(NewLocal())

	a := cache.key("payment")
	b := cache.key("payment ")

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}
