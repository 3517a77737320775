package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/google/uuid"
)

// UserRepository keeps users in process memory. It is used for local
// development and tests; every operation holds the mutex, which gives the
// same per-record atomicity the database stores provide.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *UserRepository) Ping(context.Context) error { return nil }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return nil, domain.ErrEmailTaken
	}

	stored := cloneUser(user)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := r.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return cloneUser(stored), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// Save replaces the profile fields. Password hash and reset state are kept.
func (r *UserRepository) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if user.Email != existing.Email {
		if _, taken := r.byEmail[user.Email]; taken {
			return domain.ErrEmailTaken
		}
		delete(r.byEmail, existing.Email)
		r.byEmail[user.Email] = user.ID
	}

	existing.Name = user.Name
	existing.Email = user.Email
	existing.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) Touch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetToken = &domain.ResetTokenState{TokenHash: tokenHash, ExpiresAt: expiresAt}
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.ResetToken != nil && u.ResetToken.TokenHash == tokenHash && u.ResetToken.ExpiresAt.After(now) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrResetTokenInvalid
}

func (r *UserRepository) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.ResetToken == nil || u.ResetToken.TokenHash != tokenHash {
			continue
		}
		if !u.ResetToken.ExpiresAt.After(now) {
			return nil, domain.ErrResetTokenInvalid
		}
		u.PasswordHash = passwordHash
		u.ResetToken = nil
		u.UpdatedAt = r.now().UTC()
		return cloneUser(u), nil
	}
	return nil, domain.ErrResetTokenInvalid
}

func (r *UserRepository) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for _, u := range r.byID {
		if u.ResetToken != nil && !u.ResetToken.ExpiresAt.After(now) {
			u.ResetToken = nil
			cleared++
		}
	}
	return cleared, nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.ResetToken != nil {
		rt := *u.ResetToken
		c.ResetToken = &rt
	}
	return &c
}
