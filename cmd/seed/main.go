// seed registers a demo user through the normal registration path and
// prints a bearer token for it.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ErlanBelekov/userauth-api/config"
	"github.com/ErlanBelekov/userauth-api/internal/clock"
	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/ErlanBelekov/userauth-api/internal/email"
	"github.com/ErlanBelekov/userauth-api/internal/infrastructure/store"
	ctxlog "github.com/ErlanBelekov/userauth-api/internal/log"
	"github.com/ErlanBelekov/userauth-api/internal/password"
	"github.com/ErlanBelekov/userauth-api/internal/token"
	"github.com/ErlanBelekov/userauth-api/internal/usecase"
)

const (
	seedName     = "Seed User"
	seedEmail    = "seed@test.local"
	seedPassword = "seed-password"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := ctxlog.New(os.Stderr, cfg.Env, cfg.SlogLevel())

	st, err := store.Open(ctx, store.Options{
		Driver:        cfg.StoreDriver,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		AppName:       "userauth-seed",
	}, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	clk := clock.Real{}
	hasher := password.NewBcryptHasher(password.DefaultCost)
	issuer := token.NewJWTIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenExpiry, clk)
	uc := usecase.NewAuthUsecase(usecase.AuthDeps{
		Users:  st.Users,
		Hasher: hasher,
		Tokens: issuer,
		Resets: usecase.NewResetTokenManager(st.Users, hasher, clk),
		Mail:   email.NewLogSender(logger),
		Logger: logger,
	})

	_, err = uc.Register(ctx, usecase.RegisterInput{Name: seedName, Email: seedEmail, Password: seedPassword})
	switch {
	case err == nil:
		fmt.Printf("registered %s\n", seedEmail)
	case errors.Is(err, domain.ErrEmailTaken):
		fmt.Printf("%s already exists\n", seedEmail)
	default:
		log.Fatalf("register: %v", err)
	}

	res, err := uc.Login(ctx, seedEmail, seedPassword)
	if err != nil {
		log.Fatalf("login (was the password changed?): %v", err)
	}

	fmt.Printf("user id:  %s\npassword: %s\ntoken:    %s\n", res.User.ID, seedPassword, res.AccessToken)
}
