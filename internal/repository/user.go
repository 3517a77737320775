package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/userauth-api/internal/domain"
)

// UserRepository is the credential store. Implementations must enforce email
// uniqueness themselves and report a violation as domain.ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// Save writes the profile fields (name, email). The password hash is only
	// changed through ConsumeResetToken.
	Save(ctx context.Context, user *domain.User) error

	// Touch bumps updated_at and nothing else.
	Touch(ctx context.Context, id string) error

	// SetResetToken overwrites any previous reset token of the user.
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// FindByResetToken returns the user holding tokenHash with an expiry after
	// now, or domain.ErrResetTokenInvalid. It changes nothing.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)

	// ConsumeResetToken finds the user holding tokenHash with an expiry after
	// now, replaces its password hash and clears the token in one update.
	// Returns domain.ErrResetTokenInvalid when nothing matches.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error)

	// ClearExpiredResetTokens drops reset state whose expiry is not after now.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
