package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/ErlanBelekov/userauth-api/internal/email"
	"github.com/ErlanBelekov/userauth-api/internal/metrics"
	"github.com/ErlanBelekov/userauth-api/internal/password"
	"github.com/ErlanBelekov/userauth-api/internal/repository"
	"github.com/ErlanBelekov/userauth-api/internal/token"
)

const resetEmailSubject = "Password Reset"

// tokenIssuer is the subset of token.JWTIssuer the usecase needs.
type tokenIssuer interface {
	Issue(userID, name, email string) (string, error)
	Verify(raw string) (*token.Claims, error)
}

// resetTokens is implemented by ResetTokenManager.
type resetTokens interface {
	Issue(ctx context.Context, user *domain.User) (string, error)
	ValidateAndConsume(ctx context.Context, rawToken, newPassword string) (*domain.User, error)
}

// AuthDeps lists everything AuthUsecase talks to.
type AuthDeps struct {
	Users         repository.UserRepository
	Hasher        password.Hasher
	Tokens        tokenIssuer
	Resets        resetTokens
	Mail          email.Sender
	MailFrom      email.Address
	ResetLinkBase string
	Logger        *slog.Logger
}

type AuthUsecase struct {
	users         repository.UserRepository
	hasher        password.Hasher
	tokens        tokenIssuer
	resets        resetTokens
	mail          email.Sender
	mailFrom      email.Address
	resetLinkBase string
	logger        *slog.Logger
}

func NewAuthUsecase(deps AuthDeps) *AuthUsecase {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthUsecase{
		users:         deps.Users,
		hasher:        deps.Hasher,
		tokens:        deps.Tokens,
		resets:        deps.Resets,
		mail:          deps.Mail,
		mailFrom:      deps.MailFrom,
		resetLinkBase: strings.TrimRight(deps.ResetLinkBase, "/"),
		logger:        logger.With("component", "auth_usecase"),
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginResult struct {
	User        *domain.User
	AccessToken string
}

// Register creates an account. The returned user carries no credentials.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (user *domain.User, err error) {
	defer func() { record("register", err) }()

	if isBlank(in.Name, in.Email, in.Password) {
		return nil, domain.Missing("all fields are required")
	}

	if _, err = u.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	digest, err := u.hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := u.users.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	u.logger.InfoContext(ctx, "user registered", "user_id", created.ID)
	return created.Sanitized(), nil
}

// Login checks the credentials and signs an access token.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, plaintext string) (res *LoginResult, err error) {
	defer func() { record("login", err) }()

	if isBlank(emailAddr, plaintext) {
		return nil, domain.Missing("email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := u.verify(plaintext, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := u.tokens.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %v: %w", err, domain.ErrInternal)
	}

	// Only the timestamp is written; a reset committed since FindByEmail must survive.
	if err = u.users.Touch(ctx, user.ID); err != nil {
		u.logger.ErrorContext(ctx, "touch user after login", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("touch user: %v: %w", err, domain.ErrInternal)
	}

	return &LoginResult{User: user.Sanitized(), AccessToken: accessToken}, nil
}

// Authenticate resolves a bearer token to the user it was issued for.
func (u *AuthUsecase) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := u.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	user, err := u.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.Sanitized(), nil
}

func (u *AuthUsecase) GetProfile(user *domain.User) *domain.User {
	return user.Sanitized()
}

// ForgotPassword issues a reset token and mails the link to the account owner.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, emailAddr string) (err error) {
	defer func() { record("forgot_password", err) }()

	if isBlank(emailAddr) {
		return domain.Missing("email is required")
	}

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("find user: %w", err)
	}

	rawToken, err := u.resets.Issue(ctx, user)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	msg := email.Message{
		To:      user.Email,
		From:    u.mailFrom,
		Subject: resetEmailSubject,
		Body:    resetEmailBody(u.resetLinkBase + "/reset-password/" + rawToken),
	}
	if err = u.mail.Send(ctx, msg); err != nil {
		metrics.ResetEmailsTotal.WithLabelValues("failed").Inc()
		u.logger.ErrorContext(ctx, "send reset email", "user_id", user.ID, "error", err)
		return fmt.Errorf("send reset email: %v: %w", err, domain.ErrMail)
	}
	metrics.ResetEmailsTotal.WithLabelValues("sent").Inc()

	u.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password using a token from ForgotPassword.
func (u *AuthUsecase) ResetPassword(ctx context.Context, rawToken, newPassword string) (err error) {
	defer func() { record("reset_password", err) }()

	if isBlank(rawToken, newPassword) {
		return domain.Missing("token and new password are required")
	}

	user, err := u.resets.ValidateAndConsume(ctx, rawToken, newPassword)
	if err != nil {
		return err
	}

	u.logger.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

func (u *AuthUsecase) hash(plaintext string) (string, error) {
	start := time.Now()
	defer func() { metrics.PasswordHashDuration.Observe(time.Since(start).Seconds()) }()
	return u.hasher.Hash(plaintext)
}

func (u *AuthUsecase) verify(plaintext, digest string) (bool, error) {
	start := time.Now()
	defer func() { metrics.PasswordHashDuration.Observe(time.Since(start).Seconds()) }()
	return u.hasher.Verify(plaintext, digest)
}

func resetEmailBody(link string) string {
	return "You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n" +
		"Please click on the following link, or paste it into your browser, to complete the process:\n\n" +
		link + "\n\n" +
		"If you did not request this, please ignore this email and your password will remain unchanged.\n"
}

func isBlank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}

func record(operation string, err error) {
	metrics.AuthOperationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrResetTokenInvalid):
		return "token_invalid"
	case errors.Is(err, domain.ErrMail):
		return "mail_failed"
	default:
		return "error"
	}
}
