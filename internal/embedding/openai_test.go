package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

func newEmbeddingsServer(t *testing.T, vectorLen int, got *embeddingsRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		vec := make([]float32, vectorLen)
		for i := range vec {
			vec[i] = 0.5
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  got.Model,
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
			"usage": map[string]int{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
}

func TestOpenAIClient_EmbedSendsModelAndDimensions(t *testing.T) {
	var req embeddingsRequest
	srv := newEmbeddingsServer(t, 8, &req)
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL+"/v1", "", 8)
	vec, err := c.Embed(context.Background(), "capacity to make a will")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 8 {
		t.Fatalf("expected 8 dims, got %d", len(vec))
	}
	if req.Model != DefaultModel {
		t.Errorf("expected model %q, got %q", DefaultModel, req.Model)
	}
	if req.Dimensions != 8 {
		t.Errorf("expected dimensions 8, got %d", req.Dimensions)
	}
	if len(req.Input) != 1 || req.Input[0] != "capacity to make a will" {
		t.Errorf("unexpected input %q", req.Input)
	}
}

func TestOpenAIClient_DimensionMismatchIsHardError(t *testing.T) {
	var req embeddingsRequest
	srv := newEmbeddingsServer(t, 4, &req)
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL+"/v1", "", 8)
	_, err := c.Embed(context.Background(), "text")
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestOpenAIClient_EmptyText(t *testing.T) {
	c := NewOpenAIClient("sk-test", "http://127.0.0.1:0", "", 8)
	if _, err := c.Embed(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestOpenAIClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL+"/v1", "", 8)
	if _, err := c.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestNewOpenAIClient_Defaults(t *testing.T) {
	c := NewOpenAIClient("k", "", "", 0)
	if c.Model() != "text-embedding-3-large" {
		t.Errorf("expected default model, got %q", c.Model())
	}
	if c.Dimensions() != 1536 {
		t.Errorf("expected 1536 dims, got %d", c.Dimensions())
	}
}
