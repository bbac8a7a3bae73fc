package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama embeds text through an Ollama-compatible HTTP endpoint. The /api/embed
// route accepts a batch of inputs in one call, so callers embedding many
// transactions pay one round trip instead of one per item.
type Ollama struct {
	endpoint string
	model    string
	dims     int
	client   *http.Client
}

// NewOllama builds the provider and probes the endpoint once. A failed probe
// returns ErrModelUnavailable so the caller can disable the semantic path
// while lexical matching keeps running.
func NewOllama(ctx context.Context, endpoint, model string, dims int) (*Ollama, error) {
	o := &Ollama{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		dims:     dims,
		client:   &http.Client{Timeout: 60 * time.Second},
	}

	if _, _, err := o.Embed(ctx, "ping"); err != nil {
		return nil, fmt.Errorf("probe %s: %w", o.endpoint, err)
	}

	return o, nil
}

func (o *Ollama) Dimensions() int { return o.dims }

func (o *Ollama) Model() string { return o.model }

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, int, error) {
	vecs, tokens, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, 0, err
	}

	return vecs[0], tokens[0], nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings      [][]float32 `json:"embeddings"`
	PromptEvalCount int         `json:"prompt_eval_count"`
}

func (o *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, []int, error) {
	body, err := json.Marshal(embedRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("build embed request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("%w: status %d: %s", ErrModelUnavailable, resp.StatusCode, msg)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("decode embed response: %w", err)
	}

	if len(parsed.Embeddings) != len(texts) {
		return nil, nil, fmt.Errorf("embed response has %d vectors for %d inputs", len(parsed.Embeddings), len(texts))
	}

	return parsed.Embeddings, apportionTokens(parsed.PromptEvalCount, texts), nil
}

// apportionTokens spreads the endpoint's aggregate token count over the batch
// proportionally to text length. Ollama only reports a total, and the count is
// diagnostic, so an approximation per item is acceptable.
func apportionTokens(total int, texts []string) []int {
	counts := make([]int, len(texts))

	if total <= 0 || len(texts) == 0 {
		return counts
	}

	if len(texts) == 1 {
		counts[0] = total
		return counts
	}

	var chars int

	for _, t := range texts {
		chars += len(t)
	}

	if chars == 0 {
		counts[0] = total
		return counts
	}

	assigned := 0

	for i, t := range texts {
		counts[i] = total * len(t) / chars
		assigned += counts[i]
	}

	counts[0] += total - assigned

	return counts
}
