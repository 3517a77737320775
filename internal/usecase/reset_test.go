package usecase_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/userauth-api/internal/clock"
	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/ErlanBelekov/userauth-api/internal/infrastructure/memory"
	"github.com/ErlanBelekov/userauth-api/internal/usecase"
)

var epoch = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func newManager(t *testing.T, opts ...usecase.ResetTokenManagerOption) (*usecase.ResetTokenManager, *memory.UserRepository, *clock.Fake, *domain.User) {
	t.Helper()
	repo := memory.NewUserRepository()
	user, err := repo.Create(context.Background(), &domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hashed:old"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	clk := clock.NewFake(epoch)
	return usecase.NewResetTokenManager(repo, fakeHasher{}, clk, opts...), repo, clk, user
}

func TestResetTokenManager_IssueStoresHashOnly(t *testing.T) {
	random := bytes.NewReader(bytes.Repeat([]byte{0xab}, 32))
	m, repo, _, user := newManager(t, usecase.WithRandom(random))

	raw, err := m.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != strings.Repeat("ab", 32) {
		t.Fatalf("unexpected raw token %q", raw)
	}

	stored, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	sum := sha256.Sum256([]byte(raw))
	if stored.ResetToken == nil || stored.ResetToken.TokenHash != hex.EncodeToString(sum[:]) {
		t.Fatalf("stored state %+v is not the SHA-256 of the raw token", stored.ResetToken)
	}
	if !stored.ResetToken.ExpiresAt.Equal(epoch.Add(usecase.DefaultResetTokenTTL)) {
		t.Errorf("expiry %v, want now+1h", stored.ResetToken.ExpiresAt)
	}
}

func TestResetTokenManager_CustomTTL(t *testing.T) {
	m, repo, _, user := newManager(t, usecase.WithResetTokenTTL(10*time.Minute))

	if _, err := m.Issue(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := repo.FindByID(context.Background(), user.ID)
	if !stored.ResetToken.ExpiresAt.Equal(epoch.Add(10 * time.Minute)) {
		t.Errorf("expiry %v, want now+10m", stored.ResetToken.ExpiresAt)
	}
}

func TestResetTokenManager_EntropyFailure(t *testing.T) {
	m, _, _, user := newManager(t, usecase.WithRandom(bytes.NewReader(nil)))

	_, err := m.Issue(context.Background(), user)
	if !errors.Is(err, domain.ErrInternal) {
		t.Errorf("want ErrInternal, got %v", err)
	}
}

func TestResetTokenManager_ConsumedExactlyOnce(t *testing.T) {
	ctx := context.Background()
	m, repo, _, user := newManager(t)

	raw, err := m.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	updated, err := m.ValidateAndConsume(ctx, raw, "n3w")
	if err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if updated.PasswordHash != "hashed:n3w" || updated.ResetToken != nil {
		t.Errorf("unexpected user after reset %+v", updated)
	}

	if _, err = m.ValidateAndConsume(ctx, raw, "other"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Errorf("second consume: want ErrResetTokenInvalid, got %v", err)
	}

	stored, _ := repo.FindByID(ctx, user.ID)
	if stored.PasswordHash != "hashed:n3w" {
		t.Errorf("second consume must not change the password, got %q", stored.PasswordHash)
	}
}

func TestResetTokenManager_ReissueInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	m, _, _, user := newManager(t)

	first, err := m.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := m.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if _, err = m.ValidateAndConsume(ctx, first, "n3w"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Errorf("superseded token: want ErrResetTokenInvalid, got %v", err)
	}
	if _, err = m.ValidateAndConsume(ctx, second, "n3w"); err != nil {
		t.Errorf("latest token: unexpected error %v", err)
	}
}

func TestResetTokenManager_ExpiredLooksLikeUnknown(t *testing.T) {
	ctx := context.Background()
	m, _, clk, user := newManager(t)

	raw, err := m.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clk.Advance(usecase.DefaultResetTokenTTL)

	_, expiredErr := m.ValidateAndConsume(ctx, raw, "n3w")
	_, unknownErr := m.ValidateAndConsume(ctx, "never-issued", "n3w")

	if !errors.Is(expiredErr, domain.ErrResetTokenInvalid) || !errors.Is(unknownErr, domain.ErrResetTokenInvalid) {
		t.Fatalf("want ErrResetTokenInvalid for both, got %v and %v", expiredErr, unknownErr)
	}
	if expiredErr.Error() != unknownErr.Error() {
		t.Errorf("expired and unknown tokens must be indistinguishable: %q vs %q", expiredErr, unknownErr)
	}
}

func TestResetTokenManager_BlankPasswordRejectedBeforeConsume(t *testing.T) {
	ctx := context.Background()
	m, _, _, user := newManager(t)

	raw, _ := m.Issue(ctx, user)
	if _, err := m.ValidateAndConsume(ctx, raw, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if _, err := m.ValidateAndConsume(ctx, raw, "n3w"); err != nil {
		t.Errorf("token must survive a rejected password: %v", err)
	}
}

func TestResetTokenManager_UnknownTokenReportedBeforePasswordCheck(t *testing.T) {
	m, _, _, _ := newManager(t)

	_, err := m.ValidateAndConsume(context.Background(), "not-a-token", "")
	if !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Errorf("want ErrResetTokenInvalid, got %v", err)
	}
	if errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown token must not surface as a password problem: %v", err)
	}
}
