// Package infrastructure opens the storage and broker a process runs on,
// as selected by configuration.
package infrastructure

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/jwalitptl/meditracker-api/internal/config"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	"github.com/jwalitptl/meditracker-api/internal/repository/memory"
	"github.com/jwalitptl/meditracker-api/internal/repository/postgres"
	"github.com/jwalitptl/meditracker-api/pkg/messaging"
	"github.com/jwalitptl/meditracker-api/pkg/messaging/rabbitmq"
	"github.com/jwalitptl/meditracker-api/pkg/messaging/redis"
)

// Storage is an opened set of repositories.
type Storage struct {
	Repos *repository.Repositories
	// Memory is set when the memory driver is in use.
	Memory *memory.Store
	Ping   func(ctx context.Context) error
	Close  func() error
}

// OpenStorage connects to the configured store, running migrations first
// for postgres when enabled.
func OpenStorage(cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		return &Storage{
			Repos:  memory.NewRepositories(store),
			Memory: store,
			Ping:   func(context.Context) error { return nil },
			Close:  func() error { return nil },
		}, nil

	case config.StorageDriverPostgres:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Migrations.Enabled {
			if err := postgres.RunMigrations(db, cfg, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &Storage{
			Repos: postgres.NewRepositories(db),
			Ping:  db.PingContext,
			Close: db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// NewBroker connects to the configured message broker.
func NewBroker(cfg *config.Config, logger zerolog.Logger) (messaging.Broker, error) {
	switch cfg.Messaging.Driver {
	case config.MessagingDriverRedis:
		broker, err := redis.NewRedisBroker(cfg.ToRedisBrokerConfig(), logger)
		if err != nil {
			return nil, err
		}
		return broker, nil
	case config.MessagingDriverRabbitMQ:
		broker, err := rabbitmq.NewRabbitMQBroker(cfg.ToRabbitMQBrokerConfig(), logger)
		if err != nil {
			return nil, err
		}
		return broker, nil
	case config.MessagingDriverLog:
		return messaging.NewLogBroker(logger), nil
	}
	return nil, fmt.Errorf("unsupported messaging driver %q", cfg.Messaging.Driver)
}
