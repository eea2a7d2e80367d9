package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/dgallion1/fennec/internal/embedding"
	"go.etcd.io/bbolt"
)

var (
	bucketChunks       = []byte("manual_chunks")
	bucketUsers        = []byte("users")
	bucketUsersByEmail = []byte("users_by_email")
	bucketWills        = []byte("wills")
)

// Bolt is a single-file backend for local development and tests. Search is
// brute force over every stored vector.
type Bolt struct {
	db   *bbolt.DB
	dims int
}

// OpenBolt opens or creates the database file at path.
func OpenBolt(path string, dims int) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt: path is required")
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketUsers, bucketUsersByEmail, bucketWills} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db, dims: dims}, nil
}

func (s *Bolt) UpsertChunk(_ context.Context, rec ManualRecord) error {
	if err := embedding.CheckDimensions(rec.Embedding, s.dims); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if existing := b.Get([]byte(rec.ID)); existing != nil {
			var old ManualRecord
			if err := json.Unmarshal(existing, &old); err != nil {
				return fmt.Errorf("upsert %s: decode existing: %w", rec.ID, err)
			}
			old.Text = rec.Text
			old.Embedding = rec.Embedding
			old.Tags = rec.Tags
			old.ContentType = rec.ContentType
			old.Complexity = rec.Complexity
			rec = old
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		return putJSON(b, rec.ID, rec)
	})
}

func (s *Bolt) SearchChunks(_ context.Context, vec []float32, jurisdiction string, k int) ([]SearchResult, error) {
	if err := embedding.CheckDimensions(vec, s.dims); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	results := []SearchResult{}
	if k <= 0 {
		return results, nil
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).ForEach(func(_, v []byte) error {
			var rec ManualRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if err := embedding.CheckDimensions(rec.Embedding, s.dims); err != nil {
				return fmt.Errorf("stored chunk %s: %w", rec.ID, err)
			}
			if rec.Jurisdiction != jurisdiction {
				return nil
			}
			results = append(results, SearchResult{
				ID:            rec.ID,
				ChapterNumber: rec.ChapterNumber,
				ChapterTitle:  rec.ChapterTitle,
				SectionNumber: rec.SectionNumber,
				SectionTitle:  rec.SectionTitle,
				PageStart:     rec.PageStart,
				PageEnd:       rec.PageEnd,
				Text:          rec.Text,
				Similarity:    cosineSimilarity(vec, rec.Embedding),
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (s *Bolt) CountChunks(_ context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketChunks).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *Bolt) ListChunks(_ context.Context, f ListFilter) ([]ManualRecord, error) {
	var out []ManualRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketChunks).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if f.Limit > 0 && len(out) >= f.Limit {
				break
			}
			var rec ManualRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if f.Unclassified && rec.ContentType != nil {
				continue
			}
			rec.Embedding = nil
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	return out, nil
}

func (s *Bolt) UpdateClassification(_ context.Context, id string, c Classification) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("classify %s: %w", id, ErrNotFound)
		}
		var rec ManualRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		rec.Tags = c.Tags
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		rec.ContentType = c.ContentType
		rec.Complexity = c.Complexity
		return putJSON(b, id, rec)
	})
}

func (s *Bolt) FindUserByEmail(_ context.Context, email string) (*User, error) {
	var u *User
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketUsersByEmail).Get([]byte(email))
		if id == nil {
			return nil
		}
		data := tx.Bucket(bucketUsers).Get(id)
		if data == nil {
			return nil
		}
		u = &User{}
		return json.Unmarshal(data, u)
	})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *Bolt) CreateUser(_ context.Context, u User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		byEmail := tx.Bucket(bucketUsersByEmail)
		if users.Get([]byte(u.ID)) != nil {
			return fmt.Errorf("create user: %w: id %s", ErrConflict, u.ID)
		}
		if byEmail.Get([]byte(u.Email)) != nil {
			return fmt.Errorf("create user: %w: email %s", ErrConflict, u.Email)
		}
		if err := putJSON(users, u.ID, u); err != nil {
			return err
		}
		return byEmail.Put([]byte(u.Email), []byte(u.ID))
	})
}

func (s *Bolt) CreateWill(_ context.Context, w Will) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketUsers).Get([]byte(w.UserID)) == nil {
			return fmt.Errorf("create will: unknown user %s", w.UserID)
		}
		b := tx.Bucket(bucketWills)
		if b.Get([]byte(w.ID)) != nil {
			return fmt.Errorf("create will: %w: id %s", ErrConflict, w.ID)
		}
		return putJSON(b, w.ID, w)
	})
}

func (s *Bolt) GetWill(_ context.Context, id string) (*Will, error) {
	var w *Will
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketWills).Get([]byte(id))
		if data == nil {
			return nil
		}
		w = &Will{}
		return json.Unmarshal(data, w)
	})
	if err != nil {
		return nil, fmt.Errorf("get will: %w", err)
	}
	return w, nil
}

func (s *Bolt) Ping(_ context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func putJSON(b *bbolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

// cosineSimilarity returns 1 minus the cosine distance. A zero vector has
// similarity 0 with everything.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
