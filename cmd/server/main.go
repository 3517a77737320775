package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/userauth-api/config"
	"github.com/ErlanBelekov/userauth-api/internal/clock"
	"github.com/ErlanBelekov/userauth-api/internal/email"
	"github.com/ErlanBelekov/userauth-api/internal/health"
	"github.com/ErlanBelekov/userauth-api/internal/infrastructure/store"
	ctxlog "github.com/ErlanBelekov/userauth-api/internal/log"
	"github.com/ErlanBelekov/userauth-api/internal/metrics"
	"github.com/ErlanBelekov/userauth-api/internal/password"
	"github.com/ErlanBelekov/userauth-api/internal/token"
	httptransport "github.com/ErlanBelekov/userauth-api/internal/transport/http"
	"github.com/ErlanBelekov/userauth-api/internal/transport/http/handler"
	"github.com/ErlanBelekov/userauth-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st, err := store.Open(ctx, store.Options{
		Driver:        cfg.StoreDriver,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		AppName:       "userauth-api",
	}, logger)
	if err != nil {
		stop()
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	clk := clock.Real{}
	hasher := password.NewBcryptHasher(password.DefaultCost)
	issuer := token.NewJWTIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenExpiry, clk)
	resets := usecase.NewResetTokenManager(st.Users, hasher, clk, usecase.WithResetTokenTTL(cfg.ResetTokenTTL))

	sender := email.NewSender(ctx, email.Options{
		Provider:     cfg.MailProvider,
		ResendAPIKey: cfg.ResendAPIKey,
		MaxRetries:   cfg.MailMaxRetries,
		SMTP: email.SMTPConfig{
			Host:               cfg.SMTPHost,
			Port:               cfg.SMTPPort,
			Username:           cfg.SMTPUsername,
			Password:           cfg.SMTPPassword,
			GoogleClientID:     cfg.GoogleClientID,
			GoogleClientSecret: cfg.GoogleClientSecret,
			GoogleRefreshToken: cfg.GoogleRefreshToken,
		},
	}, logger)

	authUsecase := usecase.NewAuthUsecase(usecase.AuthDeps{
		Users:         st.Users,
		Hasher:        hasher,
		Tokens:        issuer,
		Resets:        resets,
		Mail:          sender,
		MailFrom:      email.Address{Name: cfg.MailFromName, Address: cfg.MailFrom},
		ResetLinkBase: cfg.ResetLinkBase,
		Logger:        logger,
	})
	authHandler := handler.NewAuthHandler(authUsecase, handler.CookieOptions{
		MaxAge: issuer.TTL(),
		Secure: cfg.CookieSecure,
	}, logger)

	metrics.Register()
	checker := health.NewChecker(st.Name, st.Pinger, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, authHandler, authUsecase),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "store", st.Name, "mail", cfg.MailProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
