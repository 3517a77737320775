package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/userauth-api/internal/transport/http/handler"
	"github.com/ErlanBelekov/userauth-api/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, authenticator middleware.Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))

	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/forgot-password", authHandler.ForgotPassword)
	r.POST("/reset-password", authHandler.ResetPassword)

	// Protected routes
	r.GET("/profile", middleware.Auth(authenticator), authHandler.Profile)

	return r
}
