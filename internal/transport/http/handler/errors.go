package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"unicode"

	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	errInternalServer      = "Internal server error"
	errAllFieldsRequired   = "All fields are required"
	errCredentialsRequired = "Email and password are required"
	errEmailRequired       = "Email is required"
	errResetFieldsRequired = "Token and new password are required"
	errUserExists          = "User already exists"
	errUserNotFound        = "User does not exist"
	errNoUserWithEmail     = "No user found with that email address"
	errPasswordIncorrect   = "Password is incorrect"
	errUnauthorized        = "Unauthorized request"
	errTokenExpired        = "Token has expired"
	errResetTokenInvalid   = "Password reset token is invalid or has expired"
	errSendingEmail        = "Error sending the email"
	errBodyTooLarge        = "Request body too large"
)

// messages overrides the per-endpoint wording of the missing-field 400 and
// the 404 responses.
type messages struct {
	invalid  string
	notFound string
}

// writeError maps a domain error to a status and a stable message. Anything
// unrecognised is logged and reported as a 500.
func writeError(c *gin.Context, logger *slog.Logger, err error, msgs messages) {
	status, msg := http.StatusInternalServerError, errInternalServer

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status, msg = http.StatusRequestEntityTooLarge, errBodyTooLarge
	case errors.Is(err, domain.ErrMissingField):
		status, msg = http.StatusBadRequest, msgs.invalid
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, validationReason(err)
	case errors.Is(err, domain.ErrEmailTaken):
		status, msg = http.StatusConflict, errUserExists
	case errors.Is(err, domain.ErrUserNotFound):
		status, msg = http.StatusNotFound, msgs.notFound
	case errors.Is(err, domain.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, errPasswordIncorrect
	case errors.Is(err, domain.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, errTokenExpired
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, errUnauthorized
	case errors.Is(err, domain.ErrResetTokenInvalid):
		status, msg = http.StatusBadRequest, errResetTokenInvalid
	case errors.Is(err, domain.ErrMail):
		status, msg = http.StatusBadGateway, errSendingEmail
	default:
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}

	if msg == "" {
		msg = http.StatusText(status)
	}
	c.JSON(status, gin.H{"error": msg})
}

func validationReason(err error) string {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Reason == "" {
		return http.StatusText(http.StatusBadRequest)
	}
	r := []rune(verr.Reason)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// bindError classifies a failed ShouldBind. Failed binding tags mean a
// missing field; anything else is a body that could not be decoded.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		return domain.Missing(err.Error())
	}
	return domain.Invalid("malformed request body")
}
