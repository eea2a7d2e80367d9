package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when an update targets a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
)

// ManualRecord is the persisted form of a manual chunk.
type ManualRecord struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Edition       string    `json:"edition"`
	ChapterNumber int       `json:"chapter_number"`
	ChapterTitle  string    `json:"chapter_title"`
	SectionNumber string    `json:"section_number"`
	SectionTitle  string    `json:"section_title"`
	PageStart     *int      `json:"page_start"`
	PageEnd       *int      `json:"page_end"`
	DocType       string    `json:"doc_type"`
	Jurisdiction  string    `json:"jurisdiction"`
	Text          string    `json:"text"`
	Tags          []string  `json:"tags"`
	ContentType   *string   `json:"content_type"`
	Complexity    *string   `json:"complexity"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// SearchResult is one ranked row of a nearest-neighbour query.
type SearchResult struct {
	ID            string  `json:"id"`
	ChapterNumber int     `json:"chapter_number"`
	ChapterTitle  string  `json:"chapter_title"`
	SectionNumber string  `json:"section_number"`
	SectionTitle  string  `json:"section_title"`
	PageStart     *int    `json:"page_start"`
	PageEnd       *int    `json:"page_end"`
	Text          string  `json:"text"`
	Similarity    float64 `json:"similarity"`
}

// Classification holds the enrichment fields of a record.
type Classification struct {
	Tags        []string `json:"tags"`
	ContentType *string  `json:"content_type"`
	Complexity  *string  `json:"complexity"`
}

// ListFilter narrows ListChunks.
type ListFilter struct {
	Unclassified bool // only records with no content_type yet
	Limit        int  // 0 means no limit
}

// User mirrors a user of the identity authority.
type User struct {
	ID        string    `json:"id"`
	ClerkID   string    `json:"clerkId"`
	Email     string    `json:"email"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WillStatus is the lifecycle state of a stored will.
type WillStatus string

const (
	WillDraft    WillStatus = "DRAFT"
	WillFinal    WillStatus = "FINAL"
	WillArchived WillStatus = "ARCHIVED"
)

// Will is a stored will document owned by a user.
type Will struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Title         string          `json:"title"`
	Content       json.RawMessage `json:"content"`
	EditorContent json.RawMessage `json:"editorContent"`
	Status        WillStatus      `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ManualStore persists manual chunks and serves similarity search.
type ManualStore interface {
	// UpsertChunk inserts rec, or on id conflict overwrites only text,
	// embedding, tags, content_type and complexity.
	UpsertChunk(ctx context.Context, rec ManualRecord) error
	// SearchChunks returns the k nearest records by cosine distance whose
	// jurisdiction equals jurisdiction exactly.
	SearchChunks(ctx context.Context, vec []float32, jurisdiction string, k int) ([]SearchResult, error)
	CountChunks(ctx context.Context) (int, error)
	ListChunks(ctx context.Context, f ListFilter) ([]ManualRecord, error)
	UpdateClassification(ctx context.Context, id string, c Classification) error
}

// AccountStore persists users and their wills. Lookups return nil, nil when
// nothing matches.
type AccountStore interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u User) error
	CreateWill(ctx context.Context, w Will) error
	GetWill(ctx context.Context, id string) (*Will, error)
}

// Store is a full backend.
type Store interface {
	ManualStore
	AccountStore
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // "postgres" or "bolt"
	DatabaseURL string
	BoltPath    string
	Dimensions  int
	AutoMigrate bool
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "postgres", "":
		pg, err := NewPostgres(ctx, opts.DatabaseURL, opts.Dimensions)
		if err != nil {
			return nil, err
		}
		if opts.AutoMigrate {
			if err := pg.EnsureSchema(ctx); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return pg, nil
	case "bolt":
		return OpenBolt(opts.BoltPath, opts.Dimensions)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
