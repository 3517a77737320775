package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/ErlanBelekov/userauth-api/internal/clock"
	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/ErlanBelekov/userauth-api/internal/password"
	"github.com/ErlanBelekov/userauth-api/internal/repository"
)

const (
	DefaultResetTokenTTL = time.Hour
	resetTokenBytes      = 32
)

// ResetTokenManager issues single-use password reset tokens. Only the
// SHA-256 of a token is stored; the raw value exists in the email link only.
type ResetTokenManager struct {
	users  repository.UserRepository
	hasher password.Hasher
	clock  clock.Clock
	random io.Reader
	ttl    time.Duration
}

type ResetTokenManagerOption func(*ResetTokenManager)

func WithRandom(r io.Reader) ResetTokenManagerOption {
	return func(m *ResetTokenManager) { m.random = r }
}

func WithResetTokenTTL(ttl time.Duration) ResetTokenManagerOption {
	return func(m *ResetTokenManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func NewResetTokenManager(users repository.UserRepository, hasher password.Hasher, clk clock.Clock, opts ...ResetTokenManagerOption) *ResetTokenManager {
	m := &ResetTokenManager{
		users:  users,
		hasher: hasher,
		clock:  clk,
		random: rand.Reader,
		ttl:    DefaultResetTokenTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue generates a fresh token for user and replaces any token issued before.
func (m *ResetTokenManager) Issue(ctx context.Context, user *domain.User) (string, error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := io.ReadFull(m.random, raw); err != nil {
		return "", fmt.Errorf("generate reset token: %v: %w", err, domain.ErrInternal)
	}
	rawToken := hex.EncodeToString(raw)

	expiresAt := m.clock.Now().Add(m.ttl)
	if err := m.users.SetResetToken(ctx, user.ID, hashToken(rawToken), expiresAt); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return rawToken, nil
}

// ValidateAndConsume sets newPassword on the user holding rawToken, provided
// the token has not expired, and clears the token in the same store update.
// An unknown token is reported before the new password is checked.
func (m *ResetTokenManager) ValidateAndConsume(ctx context.Context, rawToken, newPassword string) (*domain.User, error) {
	tokenHash := hashToken(rawToken)
	if _, err := m.users.FindByResetToken(ctx, tokenHash, m.clock.Now()); err != nil {
		return nil, fmt.Errorf("find reset token: %w", err)
	}

	digest, err := m.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// The lookup above is advisory; the conditional update decides.
	user, err := m.users.ConsumeResetToken(ctx, tokenHash, m.clock.Now(), digest)
	if err != nil {
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return user, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
