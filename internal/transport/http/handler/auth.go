package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/ErlanBelekov/userauth-api/internal/transport/http/middleware"
	"github.com/ErlanBelekov/userauth-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	GetProfile(user *domain.User) *domain.User
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// CookieOptions controls the access token cookie set on login.
type CookieOptions struct {
	MaxAge time.Duration
	Secure bool
}

type AuthHandler struct {
	authUsecase authUsecaser
	cookie      CookieOptions
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, cookie CookieOptions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		cookie:      cookie,
		logger:      logger.With("component", "auth_handler"),
	}
}

// Request bodies are accepted as JSON or as urlencoded forms.
type registerRequest struct {
	Name     string `json:"name"     form:"name"     binding:"required"`
	Email    string `json:"email"    form:"email"    binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    form:"email"    binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" form:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"    form:"token"    binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type userEnvelope struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type loginResponse struct {
	Message     string       `json:"message"`
	User        userResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	msgs := messages{invalid: errAllFieldsRequired}

	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, h.logger, bindError(err), msgs)
		return
	}

	user, err := h.authUsecase.Register(c.Request.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.logger, err, msgs)
		return
	}

	c.JSON(http.StatusCreated, userEnvelope{
		Message: "User registered successfully",
		User:    toUserResponse(user),
	})
}

// POST /login
// Returns the token in the body and as an HttpOnly cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	msgs := messages{invalid: errCredentialsRequired, notFound: errUserNotFound}

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, h.logger, bindError(err), msgs)
		return
	}

	res, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err, msgs)
		return
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.AccessTokenCookie, res.AccessToken, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, true)

	c.JSON(http.StatusOK, loginResponse{
		Message:     "User logged in successfully",
		User:        toUserResponse(res.User),
		AccessToken: res.AccessToken,
	})
}

// GET /profile
// Requires middleware.Auth.
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, h.logger, domain.ErrUnauthorized, messages{})
		return
	}

	c.JSON(http.StatusOK, userEnvelope{
		Message: "User fetched successfully",
		User:    toUserResponse(h.authUsecase.GetProfile(user)),
	})
}

// POST /forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	msgs := messages{invalid: errEmailRequired, notFound: errNoUserWithEmail}

	var req forgotPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, h.logger, bindError(err), msgs)
		return
	}

	if err := h.authUsecase.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.logger, err, msgs)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "Password reset email sent successfully"})
}

// POST /reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	msgs := messages{invalid: errResetFieldsRequired}

	var req resetPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, h.logger, bindError(err), msgs)
		return
	}

	if err := h.authUsecase.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeError(c, h.logger, err, msgs)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "Password has been reset"})
}
