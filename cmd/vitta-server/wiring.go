package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/uptrace/bun"

	"vitta/backend/internal/calendar"
	"vitta/backend/internal/calendar/google"
	"vitta/backend/internal/config"
	"vitta/backend/internal/events"
	"vitta/backend/internal/events/rabbitmq"
	"vitta/backend/internal/store"
	"vitta/backend/internal/store/document"
	"vitta/backend/internal/store/sqldb"
)

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.AppointmentStore, func(), error) {
	var (
		db  *bun.DB
		err error
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return document.NewRepo(document.NewMemoryBackend(), cfg.StoreKey, log), func() {}, nil
	case config.StoreSQLite:
		log.Info("opening sqlite store", slog.String("sqlite_path", cfg.SQLitePath))
		db, err = sqldb.OpenSQLite(cfg.SQLitePath)
	case config.StorePostgres:
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		db, err = sqldb.OpenPostgres(cfg.DatabaseURL, sqldb.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, nil, err
	}

	closeDB := func() {
		if err := sqldb.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}

	docs := sqldb.NewDocumentStore(db)
	if err := docs.EnsureSchema(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return document.NewRepo(docs, cfg.StoreKey, log), closeDB, nil
}

func openPlatform(ctx context.Context, cfg config.Config) (calendar.Platform, error) {
	switch cfg.CalendarDriver {
	case config.CalendarGoogle:
		return google.NewFromFiles(ctx, cfg.GoogleCredentialsFile, cfg.GoogleTokenFile)
	case config.CalendarMemory:
		return calendar.NewMemoryPlatform(
			calendar.PermissionStatus(cfg.CalendarPermission),
			calendar.PermissionStatus(cfg.CalendarGrant),
			calendar.DefaultMemoryCalendars()...,
		), nil
	default:
		return nil, fmt.Errorf("unsupported calendar driver %q", cfg.CalendarDriver)
	}
}

func openNotifier(cfg config.Config, log *slog.Logger) (events.Notifier, func(), error) {
	if !cfg.RabbitMQEnabled {
		log.Info("rabbitmq disabled, notifications are dropped")
		return events.Nop{}, func() {}, nil
	}

	pub, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("rabbitmq connected", slog.String("exchange", cfg.RabbitMQExchange))
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn("rabbitmq close failed", slog.Any("err", err))
		}
	}, nil
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
