// Package account reconciles users between the identity authority and the
// local store, and records submitted wills against them.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/fennec/internal/identity"
	"github.com/dgallion1/fennec/internal/store"
	"github.com/dgallion1/fennec/internal/will"
	"github.com/google/uuid"
)

// ErrIdentity wraps failures talking to the identity authority so callers
// can tell them apart from local store failures.
var ErrIdentity = errors.New("identity authority")

// Authority is the subset of the identity client the service needs.
type Authority interface {
	FindUserByEmail(ctx context.Context, email string) (*identity.User, error)
	CreateUser(ctx context.Context, email string) (*identity.User, error)
}

// Service owns the user/will workflow. The authority decides whether a user
// exists; the local User row is synchronized from it and every step can be
// re-run safely.
type Service struct {
	authority Authority
	store     store.AccountStore
	log       *slog.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(a Authority, s store.AccountStore, log *slog.Logger) *Service {
	return &Service{
		authority: a,
		store:     s,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// EnsureUser returns the local user for email, creating the authority
// account and the local row as needed.
func (s *Service) EnsureUser(ctx context.Context, email string) (*store.User, error) {
	remote, err := s.ensureRemote(ctx, email)
	if err != nil {
		return nil, err
	}

	local, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find local user: %w", err)
	}
	if local != nil {
		return local, nil
	}

	now := s.now().UTC()
	u := store.User{
		ID:        s.newID(),
		ClerkID:   remote.ID,
		Email:     email,
		FirstName: remote.FirstName,
		LastName:  remote.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.CreateUser(ctx, u)
	if errors.Is(err, store.ErrConflict) {
		// Another request inserted the row first.
		local, err = s.store.FindUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("find local user: %w", err)
		}
		if local == nil {
			return nil, fmt.Errorf("local user %s conflicted but is missing", email)
		}
		return local, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create local user: %w", err)
	}
	s.log.Info("local user created", "user_id", u.ID, "clerk_id", u.ClerkID)
	return &u, nil
}

func (s *Service) ensureRemote(ctx context.Context, email string) (*identity.User, error) {
	remote, err := s.authority.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentity, err)
	}
	if remote != nil {
		return remote, nil
	}

	remote, err = s.authority.CreateUser(ctx, email)
	if errors.Is(err, identity.ErrUserExists) {
		remote, err = s.authority.FindUserByEmail(ctx, email)
		if err == nil && remote == nil {
			err = fmt.Errorf("user %s reported as existing but not found", email)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentity, err)
	}
	s.log.Info("identity user created", "clerk_id", remote.ID)
	return remote, nil
}

// CreateWill stores content as a new draft will owned by user.
func (s *Service) CreateWill(ctx context.Context, user *store.User, content *will.WillContent) (*store.Will, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal will content: %w", err)
	}
	now := s.now().UTC()
	w := store.Will{
		ID:        s.newID(),
		UserID:    user.ID,
		Title:     content.Title(),
		Content:   data,
		Status:    store.WillDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateWill(ctx, w); err != nil {
		return nil, fmt.Errorf("create will: %w", err)
	}
	s.log.Info("will created", "will_id", w.ID, "user_id", user.ID)
	return &w, nil
}

// SubmitWill ensures the user exists and stores the will for them.
func (s *Service) SubmitWill(ctx context.Context, email string, content *will.WillContent) (*store.Will, error) {
	user, err := s.EnsureUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.CreateWill(ctx, user, content)
}

// GetWill returns the will with id if user owns it, otherwise nil, nil.
func (s *Service) GetWill(ctx context.Context, email, id string) (*store.Will, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find local user: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	w, err := s.store.GetWill(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get will: %w", err)
	}
	if w == nil || w.UserID != user.ID {
		return nil, nil
	}
	return w, nil
}
