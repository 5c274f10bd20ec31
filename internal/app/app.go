// Package app wires the store, notification and dispatch layers shared by
// the HTTP server and the Lambda entry point.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"messageboard/database"
	"messageboard/internal/config"
	"messageboard/internal/microservices/http-api/repository"
	"messageboard/internal/microservices/http-api/service"
	"messageboard/internal/notify"
	"messageboard/internal/tenant"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Dispatcher *service.Dispatcher

	closers []func(context.Context) error
}

// New opens the configured store and notification channels. extra
// notifiers, such as the live feed hub, receive every event as well.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, extra ...notify.Notifier) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	registry, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	notifier, err := a.openNotifier(ctx, extra...)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	messages := service.NewMessageService(
		registry,
		tenant.NewResolver(cfg.TablePrefix),
		a.publisher(notifier),
		logger,
	)
	a.Dispatcher = service.NewDispatcher(messages, logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (*repository.Registry, error) {
	switch a.Config.StoreBackend {
	case config.BackendPostgres:
		db, err := database.ConnectDB(ctx, a.Config, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return database.Close(db) })
		return repository.NewRegistry(repository.PostgresFactory(db)), nil

	default:
		client, err := repository.NewDynamoDBClient(ctx, a.Config.AWSRegion, a.Config.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		a.Logger.Info("using dynamodb store",
			zap.String("region", a.Config.AWSRegion),
			zap.String("index", a.Config.RoomIndex),
		)
		return repository.NewRegistry(repository.DynamoFactory(client, a.Config.RoomIndex)), nil
	}
}

// openNotifier composes every configured channel. With no external channel
// configured the events are logged.
func (a *App) openNotifier(ctx context.Context, extra ...notify.Notifier) (notify.Notifier, error) {
	var channels notify.Multi

	if a.Config.NotifyEmailTo != "" {
		ses, err := notify.NewSESClient(ctx, a.Config.AWSRegion)
		if err != nil {
			return nil, err
		}
		channels = append(channels, notify.Channel{
			Name:     "ses",
			Notifier: notify.NewSESNotifier(ses, a.Config.NotifyEmailFrom, a.Config.NotifyEmailTo),
		})
	}

	if a.Config.RedisURL != "" {
		client, err := notify.NewRedisClient(ctx, a.Config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis notifier: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		channels = append(channels, notify.Channel{
			Name:     "redis",
			Notifier: notify.NewRedisNotifier(client, a.Config.RedisChannel),
		})
	}

	if len(channels) == 0 {
		channels = append(channels, notify.Channel{Name: "log", Notifier: notify.NewLogNotifier(a.Logger)})
	}
	channels = append(channels, extra...)

	if len(channels) == 1 {
		return channels[0], nil
	}
	return channels, nil
}

func (a *App) publisher(n notify.Notifier) notify.Publisher {
	if a.Config.NotifyMode == config.NotifyInline {
		return notify.NewInline(n, a.Config.NotifyTimeout, a.Logger)
	}

	q := notify.NewQueue(n, a.Config.NotifyQueueSize, a.Config.NotifyTimeout, a.Logger)
	q.Start()
	// Drain before the store closes.
	a.closers = append([]func(context.Context) error{q.Close}, a.closers...)
	return q
}

// Close drains pending notifications and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
