package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Entry is one cached embedding. Entries are immutable after insertion;
// callers always receive copies of the vector.
type Entry struct {
	Vector []float32
	Tokens int
}

// Cache is a content-addressed decorator around an Embedder. Keys are derived
// from the model identifier and the exact input bytes, so identical text
// always resolves to an identical vector no matter which caller computed it
// first. The cache is unbounded and lives for the process lifetime.
type Cache struct {
	inner Embedder

	mu      sync.RWMutex
	entries map[string]Entry
	group   singleflight.Group
}

func NewCache(inner Embedder) *Cache {
	return &Cache{
		inner:   inner,
		entries: make(map[string]Entry),
	}
}

func (c *Cache) Dimensions() int { return c.inner.Dimensions() }

func (c *Cache) Model() string { return c.inner.Model() }

// Len reports how many unique texts have been embedded so far.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Embed returns the cached vector for text, computing it at most once per
// unique key even under concurrent callers: racing requests for the same key
// share one in-flight computation.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, int, error) {
	key := c.key(text)

	if entry, ok := c.lookup(key); ok {
		return cloneVector(entry.Vector), entry.Tokens, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if entry, ok := c.lookup(key); ok {
			return entry, nil
		}

		vec, tokens, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}

		entry := Entry{Vector: vec, Tokens: tokens}
		c.store(key, entry)

		return entry, nil
	})
	if err != nil {
		return nil, 0, err
	}

	entry := v.(Entry)

	return cloneVector(entry.Vector), entry.Tokens, nil
}

// EmbedBatch resolves cache hits first and embeds the remaining unique texts
// in one provider call. Concurrent batches may race on the same key; both
// compute the same deterministic vector, so the last write is idempotent.
func (c *Cache) EmbedBatch(ctx context.Context, texts []string) ([][]float32, []int, error) {
	vecs := make([][]float32, len(texts))
	tokens := make([]int, len(texts))

	var (
		missing    []string
		missingIdx = make(map[string][]int)
	)

	for i, text := range texts {
		key := c.key(text)

		if entry, ok := c.lookup(key); ok {
			vecs[i] = cloneVector(entry.Vector)
			tokens[i] = entry.Tokens

			continue
		}

		if _, seen := missingIdx[key]; !seen {
			missing = append(missing, text)
		}

		missingIdx[key] = append(missingIdx[key], i)
	}

	if len(missing) == 0 {
		return vecs, tokens, nil
	}

	computed, counts, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, nil, err
	}

	for j, text := range missing {
		key := c.key(text)
		entry := Entry{Vector: computed[j], Tokens: counts[j]}

		c.store(key, entry)

		for _, i := range missingIdx[key] {
			vecs[i] = cloneVector(entry.Vector)
			tokens[i] = entry.Tokens
		}
	}

	return vecs, tokens, nil
}

func (c *Cache) key(text string) string {
	h := sha256.New()
	_, _ = h.Write([]byte(c.inner.Model()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(text))

	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) lookup(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]

	return entry, ok
}

func (c *Cache) store(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)

	return out
}
