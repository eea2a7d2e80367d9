package account

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dgallion1/fennec/internal/identity"
	"github.com/dgallion1/fennec/internal/store"
	"github.com/dgallion1/fennec/internal/will"
)

type fakeAuthority struct {
	mu       sync.Mutex
	users    map[string]*identity.User
	created  int
	findErr  error
	raceOnce bool // CreateUser registers the user but reports 422
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{users: make(map[string]*identity.User)}
}

func (f *fakeAuthority) FindUserByEmail(_ context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.users[email], nil
}

func (f *fakeAuthority) CreateUser(_ context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return nil, identity.ErrUserExists
	}
	f.created++
	u := &identity.User{ID: "user_" + email}
	f.users[email] = u
	if f.raceOnce {
		f.raceOnce = false
		return nil, identity.ErrUserExists
	}
	return u, nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestService(t *testing.T) (*Service, *fakeAuthority, *store.Bolt) {
	t.Helper()
	db, err := store.OpenBolt(filepath.Join(t.TempDir(), "fennec.db"), 3)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	auth := newFakeAuthority()
	return NewService(auth, db, testLogger()), auth, db
}

func TestEnsureUser_CreatesBoth(t *testing.T) {
	svc, auth, db := newTestService(t)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if u.ClerkID != "user_a@example.com" || u.Email != "a@example.com" || u.ID == "" {
		t.Errorf("user = %+v", u)
	}
	if auth.created != 1 {
		t.Errorf("authority creates = %d", auth.created)
	}
	local, err := db.FindUserByEmail(ctx, "a@example.com")
	if err != nil || local == nil || local.ID != u.ID {
		t.Fatalf("local user = %+v, err %v", local, err)
	}

	// Re-running is a no-op.
	again, err := svc.EnsureUser(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("EnsureUser again: %v", err)
	}
	if again.ID != u.ID || auth.created != 1 {
		t.Errorf("second run changed state: %+v, creates %d", again, auth.created)
	}
}

func TestEnsureUser_RemoteOnly(t *testing.T) {
	svc, auth, _ := newTestService(t)
	first := "Ann"
	auth.users["b@example.com"] = &identity.User{ID: "user_existing", FirstName: &first}

	u, err := svc.EnsureUser(context.Background(), "b@example.com")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if u.ClerkID != "user_existing" || u.FirstName == nil || *u.FirstName != "Ann" {
		t.Errorf("user = %+v", u)
	}
	if auth.created != 0 {
		t.Errorf("authority creates = %d, want 0", auth.created)
	}
}

func TestEnsureUser_CreateRace(t *testing.T) {
	svc, auth, _ := newTestService(t)
	auth.raceOnce = true

	u, err := svc.EnsureUser(context.Background(), "c@example.com")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if u.ClerkID != "user_c@example.com" {
		t.Errorf("ClerkID = %q", u.ClerkID)
	}
}

func TestEnsureUser_AuthorityFailure(t *testing.T) {
	svc, auth, db := newTestService(t)
	auth.findErr = errors.New("connection refused")

	_, err := svc.EnsureUser(context.Background(), "d@example.com")
	if !errors.Is(err, ErrIdentity) {
		t.Fatalf("err = %v, want ErrIdentity", err)
	}
	local, _ := db.FindUserByEmail(context.Background(), "d@example.com")
	if local != nil {
		t.Error("local user created despite authority failure")
	}
}

// conflictStore inserts the user on behalf of a concurrent request and
// then reports a conflict.
type conflictStore struct {
	store.AccountStore
}

func (c conflictStore) CreateUser(ctx context.Context, u store.User) error {
	u.ID = "winner"
	if err := c.AccountStore.CreateUser(ctx, u); err != nil {
		return err
	}
	return store.ErrConflict
}

func TestEnsureUser_LocalConflict(t *testing.T) {
	_, auth, db := newTestService(t)
	svc := NewService(auth, conflictStore{db}, testLogger())

	u, err := svc.EnsureUser(context.Background(), "e@example.com")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if u.ID != "winner" {
		t.Errorf("ID = %q, want the concurrently inserted row", u.ID)
	}
}

func sampleWill(t *testing.T) *will.WillContent {
	t.Helper()
	first, last := "Jan", "Botha"
	return &will.WillContent{
		Testator: will.TestatorInfo{FirstName: &first, LastName: &last, DateOfBirth: "1970-01-01", IDNumber: "7001015009087"},
	}
}

func TestSubmitWill(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	w, err := svc.SubmitWill(ctx, "f@example.com", sampleWill(t))
	if err != nil {
		t.Fatalf("SubmitWill: %v", err)
	}
	if w.Title != "Will of Jan Botha" || w.Status != store.WillDraft {
		t.Errorf("will = %+v", w)
	}

	stored, err := db.GetWill(ctx, w.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetWill: %+v, %v", stored, err)
	}
	var content map[string]any
	if err := json.Unmarshal(stored.Content, &content); err != nil {
		t.Fatalf("content: %v", err)
	}
	if _, ok := content["specialInstructions"]; !ok {
		t.Error("null fields should be kept in stored content")
	}
	if string(stored.EditorContent) != "" && string(stored.EditorContent) != "null" {
		t.Errorf("editorContent = %s", stored.EditorContent)
	}
}

func TestGetWill_Ownership(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	w, err := svc.SubmitWill(ctx, "owner@example.com", sampleWill(t))
	if err != nil {
		t.Fatalf("SubmitWill: %v", err)
	}
	if _, err := svc.EnsureUser(ctx, "other@example.com"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	tests := []struct {
		name  string
		email string
		id    string
		found bool
	}{
		{"owner", "owner@example.com", w.ID, true},
		{"other user", "other@example.com", w.ID, false},
		{"unknown user", "nobody@example.com", w.ID, false},
		{"unknown will", "owner@example.com", "missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetWill(ctx, tt.email, tt.id)
			if err != nil {
				t.Fatalf("GetWill: %v", err)
			}
			if (got != nil) != tt.found {
				t.Errorf("found = %v, want %v", got != nil, tt.found)
			}
		})
	}
}
