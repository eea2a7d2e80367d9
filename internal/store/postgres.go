package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/fennec/internal/embedding"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Postgres stores records in PostgreSQL with the pgvector extension. Table
// and column names match the schema shared with the web application.
type Postgres struct {
	pool *pgxpool.Pool
	dims int
}

// NewPostgres opens a connection pool and verifies connectivity.
func NewPostgres(ctx context.Context, dsn string, dims int) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Postgres{pool: pool, dims: dims}, nil
}

// EnsureSchema creates the extension and tables when they are missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS manual_chunks (
			id             text PRIMARY KEY,
			source         text NOT NULL,
			edition        text,
			chapter_number integer NOT NULL,
			chapter_title  text NOT NULL,
			section_number text NOT NULL,
			section_title  text NOT NULL,
			page_start     integer,
			page_end       integer,
			doc_type       text NOT NULL,
			jurisdiction   text NOT NULL,
			text           text NOT NULL,
			tags           text[] NOT NULL DEFAULT '{}',
			content_type   text,
			complexity     text,
			embedding      vector(%d) NOT NULL
		)`, p.dims),
		`CREATE INDEX IF NOT EXISTS manual_chunks_jurisdiction_idx ON manual_chunks (jurisdiction)`,
		`CREATE TABLE IF NOT EXISTS "User" (
			id          text PRIMARY KEY,
			"clerkId"   text NOT NULL UNIQUE,
			email       text NOT NULL UNIQUE,
			"firstName" text,
			"lastName"  text,
			"createdAt" timestamp(3) NOT NULL DEFAULT CURRENT_TIMESTAMP,
			"updatedAt" timestamp(3) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS "Will" (
			id              text PRIMARY KEY,
			"userId"        text NOT NULL REFERENCES "User"(id) ON DELETE CASCADE,
			title           text NOT NULL,
			content         jsonb NOT NULL,
			"editorContent" jsonb,
			status          text NOT NULL DEFAULT 'DRAFT',
			"createdAt"     timestamp(3) NOT NULL DEFAULT CURRENT_TIMESTAMP,
			"updatedAt"     timestamp(3) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

const upsertChunkSQL = `
INSERT INTO manual_chunks (
	id, source, edition, chapter_number, chapter_title,
	section_number, section_title, page_start, page_end,
	doc_type, jurisdiction, text, tags, content_type,
	complexity, embedding
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::vector)
ON CONFLICT (id) DO UPDATE
SET text = EXCLUDED.text,
    embedding = EXCLUDED.embedding,
    tags = EXCLUDED.tags,
    content_type = EXCLUDED.content_type,
    complexity = EXCLUDED.complexity`

func (p *Postgres) UpsertChunk(ctx context.Context, rec ManualRecord) error {
	if err := embedding.CheckDimensions(rec.Embedding, p.dims); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := p.pool.Exec(ctx, upsertChunkSQL,
		rec.ID, rec.Source, rec.Edition, rec.ChapterNumber, rec.ChapterTitle,
		rec.SectionNumber, rec.SectionTitle, rec.PageStart, rec.PageEnd,
		rec.DocType, rec.Jurisdiction, rec.Text, tags, rec.ContentType,
		rec.Complexity, pgvector.NewVector(rec.Embedding),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return nil
}

const searchChunksSQL = `
SELECT id, chapter_number, chapter_title, section_number, section_title,
       page_start, page_end, text,
       1 - (embedding <=> $1::vector) AS similarity
FROM manual_chunks
WHERE jurisdiction = $2
ORDER BY embedding <=> $1::vector
LIMIT $3`

func (p *Postgres) SearchChunks(ctx context.Context, vec []float32, jurisdiction string, k int) ([]SearchResult, error) {
	if err := embedding.CheckDimensions(vec, p.dims); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if k <= 0 {
		return []SearchResult{}, nil
	}

	rows, err := p.pool.Query(ctx, searchChunksSQL, pgvector.NewVector(vec), jurisdiction, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.ChapterNumber, &r.ChapterTitle, &r.SectionNumber, &r.SectionTitle,
			&r.PageStart, &r.PageEnd, &r.Text, &r.Similarity); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

func (p *Postgres) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM manual_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (p *Postgres) ListChunks(ctx context.Context, f ListFilter) ([]ManualRecord, error) {
	q := `SELECT id, source, edition, chapter_number, chapter_title, section_number, section_title,
	             page_start, page_end, doc_type, jurisdiction, text, tags, content_type, complexity
	      FROM manual_chunks`
	if f.Unclassified {
		q += ` WHERE content_type IS NULL`
	}
	q += ` ORDER BY id`
	args := []any{}
	if f.Limit > 0 {
		q += ` LIMIT $1`
		args = append(args, f.Limit)
	}

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var out []ManualRecord
	for rows.Next() {
		var r ManualRecord
		var edition *string
		if err := rows.Scan(&r.ID, &r.Source, &edition, &r.ChapterNumber, &r.ChapterTitle,
			&r.SectionNumber, &r.SectionTitle, &r.PageStart, &r.PageEnd, &r.DocType,
			&r.Jurisdiction, &r.Text, &r.Tags, &r.ContentType, &r.Complexity); err != nil {
			return nil, fmt.Errorf("list chunks: scan: %w", err)
		}
		if edition != nil {
			r.Edition = *edition
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateClassification(ctx context.Context, id string, c Classification) error {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE manual_chunks SET tags = $2, content_type = $3, complexity = $4 WHERE id = $1`,
		id, tags, c.ContentType, c.Complexity)
	if err != nil {
		return fmt.Errorf("classify %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("classify %s: %w", id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := p.pool.QueryRow(ctx,
		`SELECT id, "clerkId", email, "firstName", "lastName", "createdAt", "updatedAt"
		 FROM "User" WHERE email = $1`, email,
	).Scan(&u.ID, &u.ClerkID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, u User) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO "User" (id, "clerkId", email, "firstName", "lastName", "createdAt", "updatedAt")
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.ClerkID, u.Email, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", translateErr(err))
	}
	return nil
}

func (p *Postgres) CreateWill(ctx context.Context, w Will) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO "Will" (id, "userId", title, content, "editorContent", status, "createdAt", "updatedAt")
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.UserID, w.Title, []byte(w.Content), nullableJSON(w.EditorContent), string(w.Status), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create will: %w", translateErr(err))
	}
	return nil
}

func (p *Postgres) GetWill(ctx context.Context, id string) (*Will, error) {
	var w Will
	var content, editor []byte
	var status string
	err := p.pool.QueryRow(ctx,
		`SELECT id, "userId", title, content, "editorContent", status::text, "createdAt", "updatedAt"
		 FROM "Will" WHERE id = $1`, id,
	).Scan(&w.ID, &w.UserID, &w.Title, &content, &editor, &status, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get will: %w", err)
	}
	w.Content = content
	w.EditorContent = editor
	w.Status = WillStatus(status)
	return &w, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// translateErr maps unique violations to ErrConflict.
func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}
