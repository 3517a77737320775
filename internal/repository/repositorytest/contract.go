// Package repositorytest holds the behaviour every UserRepository backend
// must share. Backends call Run from their own tests.
package repositorytest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/ErlanBelekov/userauth-api/internal/repository"
)

// Run executes the contract against repositories built by newRepo. Each
// subtest gets a fresh repository.
func Run(t *testing.T, newRepo func(t *testing.T) repository.UserRepository) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("create then find", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		created, err := repo.Create(ctx, newUser("ada@example.com"))
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		byEmail, err := repo.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", byID.Email)
	})

	t.Run("unknown user", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		_, err = repo.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("concurrent duplicate create", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = repo.Create(ctx, newUser("race@example.com"))
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrEmailTaken)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("save keeps reset state", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		user, err := repo.Create(ctx, newUser("ada@example.com"))
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, "digest", now.Add(time.Hour)))

		user.Name = "Ada L."
		require.NoError(t, repo.Save(ctx, user))

		got, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", got.Name)
		require.NotNil(t, got.ResetToken)
		assert.Equal(t, "digest", got.ResetToken.TokenHash)
	})

	t.Run("stale save and touch keep a completed reset", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		user, err := repo.Create(ctx, newUser("ada@example.com"))
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, "digest", now.Add(time.Hour)))

		stale, err := repo.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)

		_, err = repo.ConsumeResetToken(ctx, "digest", now, "new-hash")
		require.NoError(t, err)

		require.NoError(t, repo.Touch(ctx, stale.ID))
		require.NoError(t, repo.Save(ctx, stale))

		got, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.PasswordHash)
		assert.Nil(t, got.ResetToken)
	})

	t.Run("touch unknown user", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Touch(context.Background(), "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("find by reset token", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		user, err := repo.Create(ctx, newUser("ada@example.com"))
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, "digest", now.Add(time.Hour)))

		got, err := repo.FindByResetToken(ctx, "digest", now)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		_, err = repo.FindByResetToken(ctx, "digest", now.Add(time.Hour))
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
		_, err = repo.FindByResetToken(ctx, "other", now)
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)

		// Lookup leaves the token usable.
		_, err = repo.ConsumeResetToken(ctx, "digest", now, "new-hash")
		assert.NoError(t, err)
	})

	t.Run("reset token consumed once", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		user, err := repo.Create(ctx, newUser("ada@example.com"))
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, "digest", now.Add(time.Hour)))

		updated, err := repo.ConsumeResetToken(ctx, "digest", now, "new-hash")
		require.NoError(t, err)
		assert.Equal(t, "new-hash", updated.PasswordHash)
		assert.Nil(t, updated.ResetToken)

		_, err = repo.ConsumeResetToken(ctx, "digest", now, "other-hash")
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
	})

	t.Run("superseded and expired tokens", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		user, err := repo.Create(ctx, newUser("ada@example.com"))
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, "first", now.Add(time.Hour)))
		require.NoError(t, repo.SetResetToken(ctx, user.ID, "second", now.Add(time.Hour)))

		_, err = repo.ConsumeResetToken(ctx, "first", now, "x")
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)

		_, err = repo.ConsumeResetToken(ctx, "second", now.Add(time.Hour), "x")
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)

		got, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash", got.PasswordHash)
	})

	t.Run("clear expired", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		old, err := repo.Create(ctx, newUser("old@example.com"))
		require.NoError(t, err)
		live, err := repo.Create(ctx, newUser("live@example.com"))
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, old.ID, "old", now.Add(-time.Minute)))
		require.NoError(t, repo.SetResetToken(ctx, live.ID, "live", now.Add(time.Minute)))

		n, err := repo.ClearExpiredResetTokens(ctx, now)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		got, err := repo.FindByID(ctx, live.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.ResetToken)
	})
}

func newUser(email string) *domain.User {
	return &domain.User{Name: "Ada", Email: email, PasswordHash: "hash"}
}
