package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/ErlanBelekov/userauth-api/internal/infrastructure/postgres"
)

var userCols = []string{
	"id", "name", "email", "password_hash", "reset_token_hash", "reset_expires_at", "created_at", "updated_at",
}

const testID = "6f1c2a9e-3b1d-4c55-9a55-0f0a7c3b9d11"

var (
	noHash   *string
	noExpiry *time.Time
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "inserts user",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (id, name, email, password_hash)`)).
					WithArgs(pgxmock.AnyArg(), "A", "a@x.com", "$2a$10$hash").
					WillReturnRows(pgxmock.NewRows(userCols).
						AddRow(testID, "A", "a@x.com", "$2a$10$hash", noHash, noExpiry, now, now))
			},
		},
		{
			name: "unique violation maps to ErrEmailTaken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
					WithArgs(pgxmock.AnyArg(), "A", "a@x.com", "$2a$10$hash").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
			},
			wantErr: domain.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			repo := postgres.NewUserRepository(mock)
			got, err := repo.Create(context.Background(), &domain.User{
				Name: "A", Email: "a@x.com", PasswordHash: "$2a$10$hash",
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testID, got.ID)
			assert.Nil(t, got.ResetToken)
			assert.Equal(t, now, got.CreatedAt)
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	now := time.Now().UTC()
	expires := now.Add(time.Hour)
	hash := "abc123"

	t.Run("found with reset token", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
			WithArgs("a@x.com").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(testID, "A", "a@x.com", "$2a$10$hash", &hash, &expires, now, now))

		u, err := postgres.NewUserRepository(mock).FindByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, u.ResetToken)
		assert.Equal(t, hash, u.ResetToken.TokenHash)
		assert.Equal(t, expires, u.ResetToken.ExpiresAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
			WithArgs("nobody@x.com").
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err := postgres.NewUserRepository(mock).FindByEmail(context.Background(), "nobody@x.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
			WithArgs("a@x.com").
			WillReturnError(errors.New("connection refused"))

		_, err := postgres.NewUserRepository(mock).FindByEmail(context.Background(), "a@x.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrUserNotFound)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestUserRepository_FindByID_MalformedID(t *testing.T) {
	mock := newMock(t)

	_, err := postgres.NewUserRepository(mock).FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_Save(t *testing.T) {
	user := &domain.User{ID: testID, Name: "A", Email: "a@x.com", PasswordHash: "$2a$10$hash"}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "updates row",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
					WithArgs(testID, "A", "a@x.com").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "missing row",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
					WithArgs(testID, "A", "a@x.com").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "email collision",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
					WithArgs(testID, "A", "a@x.com").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: domain.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			err := postgres.NewUserRepository(mock).Save(context.Background(), user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUserRepository_Touch(t *testing.T) {
	t.Run("bumps timestamp only", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET updated_at = NOW() WHERE id = $1`)).
			WithArgs(testID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := postgres.NewUserRepository(mock).Touch(context.Background(), testID)
		assert.NoError(t, err)
	})

	t.Run("missing row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET updated_at = NOW() WHERE id = $1`)).
			WithArgs(testID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := postgres.NewUserRepository(mock).Touch(context.Background(), testID)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		mock := newMock(t)

		err := postgres.NewUserRepository(mock).Touch(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserRepository_SetResetToken(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	t.Run("overwrites token", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(`SET    reset_token_hash = $2`)).
			WithArgs(testID, "hash", expires).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := postgres.NewUserRepository(mock).SetResetToken(context.Background(), testID, "hash", expires)
		assert.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(`SET    reset_token_hash = $2`)).
			WithArgs(testID, "hash", expires).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := postgres.NewUserRepository(mock).SetResetToken(context.Background(), testID, "hash", expires)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserRepository_FindByResetToken(t *testing.T) {
	now := time.Now().UTC()
	hash, expiry := "hash", now.Add(time.Hour)

	t.Run("live token", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE  reset_token_hash = $1`)).
			WithArgs("hash", now).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(testID, "A", "a@x.com", "$2a$10$hash", &hash, &expiry, now, now))

		u, err := postgres.NewUserRepository(mock).FindByResetToken(context.Background(), "hash", now)
		require.NoError(t, err)
		assert.Equal(t, testID, u.ID)
		require.NotNil(t, u.ResetToken)
		assert.Equal(t, "hash", u.ResetToken.TokenHash)
	})

	t.Run("unknown or expired", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE  reset_token_hash = $1`)).
			WithArgs("hash", now).
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err := postgres.NewUserRepository(mock).FindByResetToken(context.Background(), "hash", now)
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
	})
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	now := time.Now().UTC()

	t.Run("match clears token and sets password", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`reset_expires_at > $2`)).
			WithArgs("hash", now, "$2a$10$new").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(testID, "A", "a@x.com", "$2a$10$new", noHash, noExpiry, now, now))

		u, err := postgres.NewUserRepository(mock).ConsumeResetToken(context.Background(), "hash", now, "$2a$10$new")
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$new", u.PasswordHash)
		assert.Nil(t, u.ResetToken)
	})

	t.Run("no match is ErrResetTokenInvalid", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`reset_expires_at > $2`)).
			WithArgs("hash", now, "$2a$10$new").
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err := postgres.NewUserRepository(mock).ConsumeResetToken(context.Background(), "hash", now, "$2a$10$new")
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
	})
}

func TestUserRepository_ClearExpiredResetTokens(t *testing.T) {
	now := time.Now()
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`WHERE  reset_expires_at <= $1`)).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := postgres.NewUserRepository(mock).ClearExpiredResetTokens(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
