package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port       string `yaml:"port"`
	LogLevel   string `yaml:"log_level"`
	AppVersion string `yaml:"app_version"`

	// Storage
	StoreBackend string `yaml:"store_backend"`
	DatabaseURL  string `yaml:"database_url"`
	BoltPath     string `yaml:"bolt_path"`
	AutoMigrate  bool   `yaml:"auto_migrate"`

	// Embeddings. Model and dimensions must match between ingestion and query.
	OpenAIAPIKey        string `yaml:"openai_api_key"`
	OpenAIBaseURL       string `yaml:"openai_base_url"`
	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions"`

	// Chunking
	DocSlug       string `yaml:"doc_slug"`
	ChapterNumber int    `yaml:"chapter_number"`
	MaxChars      int    `yaml:"max_chars"`
	ParagraphMode string `yaml:"paragraph_mode"`

	// Bibliographic constants stamped on every ingested record
	ChapterTitle  string `yaml:"chapter_title"`
	ManualSource  string `yaml:"manual_source"`
	ManualEdition string `yaml:"manual_edition"`
	DocType       string `yaml:"doc_type"`
	Jurisdiction  string `yaml:"jurisdiction"`

	SearchK int `yaml:"search_k"`

	// Auth
	SecretKey        string        `yaml:"secret_key"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`
	FennecAPIKey     string        `yaml:"fennec_api_key"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	ClerkSecretKey   string        `yaml:"clerk_secret_key"`
	ClerkAPIBaseURL  string        `yaml:"clerk_api_base_url"`
	IdentityTimeout  time.Duration `yaml:"identity_timeout"`
	MaxWillBodyBytes int64         `yaml:"max_will_body_bytes"`

	// Enrichment
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	// Async ingest jobs
	MaxQueueSize   int           `yaml:"max_queue_size"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	JobTTL         time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

var defaults = map[string]any{
	"port":        "8000",
	"log_level":   "info",
	"app_version": "1.0.0",

	"store_backend": "postgres",
	"bolt_path":     "fennec.db",
	"auto_migrate":  false,

	"embedding_model":      "text-embedding-3-large",
	"embedding_dimensions": 1536,

	"doc_slug":       "meyerowitz",
	"chapter_number": 5,
	"max_chars":      1500,
	"paragraph_mode": "joined",

	"chapter_title":  "The Drafting of Wills",
	"manual_source":  "Meyerowitz on Administration of Estates and their Taxation",
	"manual_edition": "2022",
	"doc_type":       "manual_passage",
	"jurisdiction":   "South Africa",

	"search_k": 5,

	"access_token_ttl":    "30m",
	"allowed_origins":     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
	"clerk_api_base_url":  "https://api.clerk.com/v1",
	"identity_timeout":    "30s",
	"max_will_body_bytes": 1 << 20,

	"anthropic_model": "claude-sonnet-4-5-20250929",

	"max_queue_size":   10,
	"max_upload_bytes": 52428800, // 50MB
	"job_ttl":          "1h",

	"pdf_fallback_pdftotext": true,
}

// Load builds the configuration from defaults, an optional config file and
// the environment, in increasing precedence. Flags bound to v by the caller
// take precedence over all of them. A nil v gets a fresh instance.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		Port:       v.GetString("port"),
		LogLevel:   v.GetString("log_level"),
		AppVersion: v.GetString("app_version"),

		StoreBackend: strings.ToLower(v.GetString("store_backend")),
		DatabaseURL:  v.GetString("database_url"),
		BoltPath:     v.GetString("bolt_path"),
		AutoMigrate:  v.GetBool("auto_migrate"),

		OpenAIAPIKey:        v.GetString("openai_api_key"),
		OpenAIBaseURL:       v.GetString("openai_base_url"),
		EmbeddingModel:      v.GetString("embedding_model"),
		EmbeddingDimensions: v.GetInt("embedding_dimensions"),

		DocSlug:       v.GetString("doc_slug"),
		ChapterNumber: v.GetInt("chapter_number"),
		MaxChars:      v.GetInt("max_chars"),
		ParagraphMode: strings.ToLower(v.GetString("paragraph_mode")),

		ChapterTitle:  v.GetString("chapter_title"),
		ManualSource:  v.GetString("manual_source"),
		ManualEdition: v.GetString("manual_edition"),
		DocType:       v.GetString("doc_type"),
		Jurisdiction:  v.GetString("jurisdiction"),

		SearchK: v.GetInt("search_k"),

		SecretKey:        v.GetString("secret_key"),
		AccessTokenTTL:   v.GetDuration("access_token_ttl"),
		FennecAPIKey:     v.GetString("fennec_api_key"),
		AllowedOrigins:   splitList(v.GetStringSlice("allowed_origins")),
		ClerkSecretKey:   v.GetString("clerk_secret_key"),
		ClerkAPIBaseURL:  v.GetString("clerk_api_base_url"),
		IdentityTimeout:  v.GetDuration("identity_timeout"),
		MaxWillBodyBytes: v.GetInt64("max_will_body_bytes"),

		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		AnthropicModel:  v.GetString("anthropic_model"),

		MaxQueueSize:   v.GetInt("max_queue_size"),
		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
		JobTTL:         v.GetDuration("job_ttl"),

		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),
	}

	if cfg.EmbeddingDimensions <= 0 {
		cfg.EmbeddingDimensions = 1536
	}
	if cfg.ChapterNumber <= 0 {
		cfg.ChapterNumber = 5
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 1500
	}
	if cfg.SearchK <= 0 {
		cfg.SearchK = 5
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 30 * time.Minute
	}
	if cfg.IdentityTimeout <= 0 {
		cfg.IdentityTimeout = 30 * time.Second
	}
	if cfg.MaxWillBodyBytes <= 0 {
		cfg.MaxWillBodyBytes = 1 << 20
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg, nil
}

// Mode names the entry point a configuration is validated for.
type Mode string

const (
	ModeServe  Mode = "serve"
	ModeIngest Mode = "ingest"
	ModeQuery  Mode = "query"
	ModeEnrich Mode = "enrich"
	ModeToken  Mode = "token"
)

// Validate checks the settings the given mode cannot run without.
func (c Config) Validate(mode Mode) error {
	var errs []error
	require := func(ok bool, name string) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	switch c.StoreBackend {
	case "postgres":
		if mode != ModeToken {
			require(c.DatabaseURL != "", "DATABASE_URL")
		}
	case "bolt":
		require(c.BoltPath != "", "BOLT_PATH")
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be postgres or bolt, got %q", c.StoreBackend))
	}
	switch c.ParagraphMode {
	case "joined", "preserve":
	default:
		errs = append(errs, fmt.Errorf("PARAGRAPH_MODE must be joined or preserve, got %q", c.ParagraphMode))
	}

	switch mode {
	case ModeServe:
		require(c.OpenAIAPIKey != "", "OPENAI_API_KEY")
		require(c.SecretKey != "", "SECRET_KEY")
		require(c.ClerkSecretKey != "", "CLERK_SECRET_KEY")
		require(c.FennecAPIKey != "", "FENNEC_API_KEY")
	case ModeIngest, ModeQuery:
		require(c.OpenAIAPIKey != "", "OPENAI_API_KEY")
	case ModeEnrich:
		require(c.AnthropicAPIKey != "", "ANTHROPIC_API_KEY")
	case ModeToken:
		require(c.SecretKey != "", "SECRET_KEY")
	}
	return errors.Join(errs...)
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	c.DatabaseURL = mask(c.DatabaseURL)
	c.OpenAIAPIKey = mask(c.OpenAIAPIKey)
	c.SecretKey = mask(c.SecretKey)
	c.FennecAPIKey = mask(c.FennecAPIKey)
	c.ClerkSecretKey = mask(c.ClerkSecretKey)
	c.AnthropicAPIKey = mask(c.AnthropicAPIKey)
	return c
}

// splitList accepts both list values and comma-separated strings.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
