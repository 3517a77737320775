package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/userauth-api/internal/health"
	"github.com/ErlanBelekov/userauth-api/internal/infrastructure/memory"
	"github.com/ErlanBelekov/userauth-api/internal/infrastructure/mongodb"
	"github.com/ErlanBelekov/userauth-api/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/userauth-api/internal/repository"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Options struct {
	Driver        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	// AppName labels connections on the database server side.
	AppName string
}

// Store bundles the credential store with what main needs to check and
// release it.
type Store struct {
	Name   string
	Users  repository.UserRepository
	Pinger health.Pinger
	Close  func()
}

// Open connects to the configured backend. Postgres migrations run before
// it returns.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	switch opts.Driver {
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, opts.DatabaseURL, opts.AppName)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("store ready", "driver", opts.Driver)
		return &Store{
			Name:   DriverPostgres,
			Users:  postgres.NewUserRepository(pool),
			Pinger: pool,
			Close:  pool.Close,
		}, nil

	case DriverMongo:
		client, err := mongodb.Connect(ctx, opts.MongoURI, opts.AppName)
		if err != nil {
			return nil, err
		}
		dbName := opts.MongoDatabase
		if dbName == "" {
			dbName = mongodb.DefaultDatabase
		}
		users, err := mongodb.NewUserRepository(ctx, client.Database(dbName))
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info("store ready", "driver", opts.Driver, "database", dbName)
		return &Store{
			Name:   DriverMongo,
			Users:  users,
			Pinger: mongodb.Pinger{Client: client},
			Close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Error("disconnect mongo", "error", err)
				}
			},
		}, nil

	case DriverMemory:
		users := memory.NewUserRepository()
		logger.Warn("using in-memory store, data is lost on restart")
		return &Store{
			Name:   DriverMemory,
			Users:  users,
			Pinger: users,
			Close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
