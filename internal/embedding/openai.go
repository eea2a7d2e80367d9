package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel and DefaultDimensions must match between ingestion and query.
const (
	DefaultModel      = string(openai.LargeEmbedding3)
	DefaultDimensions = 1536
)

// ErrDimensionMismatch is returned when a vector has the wrong length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
	Dimensions() int
}

// OpenAIClient embeds text with the OpenAI embeddings API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIClient creates a client. An empty baseURL uses the public API.
func NewOpenAIClient(apiKey, baseURL, model string, dims int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultModel
	}
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
	}
}

// Embed returns the embedding for text. There is no retry; callers decide
// how to handle a failed call.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("cannot embed empty text")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(c.model),
		Input:      []string{text},
		Dimensions: c.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embeddings: empty response")
	}

	vec := resp.Data[0].Embedding
	if err := CheckDimensions(vec, c.dims); err != nil {
		return nil, err
	}
	return vec, nil
}

func (c *OpenAIClient) Model() string   { return c.model }
func (c *OpenAIClient) Dimensions() int { return c.dims }

// CheckDimensions reports ErrDimensionMismatch unless len(vec) == want.
func CheckDimensions(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, want, len(vec))
	}
	return nil
}
