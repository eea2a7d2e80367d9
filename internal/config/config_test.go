package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.EmbeddingModel != "text-embedding-3-large" || cfg.EmbeddingDimensions != 1536 {
		t.Errorf("embedding = %s/%d", cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	}
	if cfg.DocSlug != "meyerowitz" || cfg.ChapterNumber != 5 || cfg.MaxChars != 1500 {
		t.Errorf("chunking = %s/%d/%d", cfg.DocSlug, cfg.ChapterNumber, cfg.MaxChars)
	}
	if cfg.Jurisdiction != "South Africa" {
		t.Errorf("Jurisdiction = %q", cfg.Jurisdiction)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("MAX_CHARS", "800")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("STORE_BACKEND", "BOLT")

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxChars != 800 {
		t.Errorf("MaxChars = %d", cfg.MaxChars)
	}
	if strings.Join(cfg.AllowedOrigins, "|") != "https://a.example|https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("JobTTL = %v", cfg.JobTTL)
	}
	if cfg.StoreBackend != "bolt" {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("MAX_CHARS", "-1")
	t.Setenv("EMBEDDING_DIMENSIONS", "0")
	t.Setenv("MAX_QUEUE_SIZE", "0")

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxChars != 1500 || cfg.EmbeddingDimensions != 1536 || cfg.MaxQueueSize != 10 {
		t.Errorf("clamped = %d/%d/%d", cfg.MaxChars, cfg.EmbeddingDimensions, cfg.MaxQueueSize)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fennec.yaml")
	body := "doc_slug: gold\nchapter_number: 7\njurisdiction: Namibia\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JURISDICTION", "Botswana")

	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DocSlug != "gold" || cfg.ChapterNumber != 7 {
		t.Errorf("file values not applied: %s/%d", cfg.DocSlug, cfg.ChapterNumber)
	}
	if cfg.Jurisdiction != "Botswana" {
		t.Errorf("env should win over file, got %q", cfg.Jurisdiction)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(nil, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{StoreBackend: "postgres", DatabaseURL: "postgres://x", ParagraphMode: "joined"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		mode    Mode
		wantErr string
	}{
		{"ingest ok", func(c *Config) { c.OpenAIAPIKey = "k" }, ModeIngest, ""},
		{"ingest missing key", func(c *Config) {}, ModeIngest, "OPENAI_API_KEY is required"},
		{"missing database", func(c *Config) { c.DatabaseURL = ""; c.OpenAIAPIKey = "k" }, ModeQuery, "DATABASE_URL is required"},
		{"bolt needs no database", func(c *Config) {
			c.StoreBackend, c.DatabaseURL, c.BoltPath, c.OpenAIAPIKey = "bolt", "", "f.db", "k"
		}, ModeQuery, ""},
		{"unknown backend", func(c *Config) { c.StoreBackend = "mongo" }, ModeToken, "STORE_BACKEND"},
		{"bad paragraph mode", func(c *Config) { c.ParagraphMode = "x"; c.SecretKey = "s" }, ModeToken, "PARAGRAPH_MODE"},
		{"serve missing secrets", func(c *Config) { c.OpenAIAPIKey = "k" }, ModeServe, "SECRET_KEY is required"},
		{"token ok without database", func(c *Config) { c.DatabaseURL = ""; c.SecretKey = "s" }, ModeToken, ""},
		{"enrich", func(c *Config) {}, ModeEnrich, "ANTHROPIC_API_KEY is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{SecretKey: "s3cret", OpenAIAPIKey: "sk-1", Port: "8000"}
	r := cfg.Redacted()
	if r.SecretKey != "****" || r.OpenAIAPIKey != "****" {
		t.Errorf("secrets not masked: %+v", r)
	}
	if r.AnthropicAPIKey != "" {
		t.Errorf("empty secret should stay empty")
	}
	if r.Port != "8000" || cfg.SecretKey != "s3cret" {
		t.Error("redaction must not touch other fields or the original")
	}
}
