package main

import (
	"context"
	"fmt"

	config "github.com/NordCoder/Reminderus/internal/config/notifier"
	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/prayerlog"
	pg "github.com/NordCoder/Reminderus/internal/repository/postgres"
	"github.com/NordCoder/Reminderus/internal/repository/sqlite"
	"go.uber.org/zap"
)

// stores are the ports the notifier needs. pg is nil for the SQLite backend,
// which has no events, tasks or outbox.
type stores struct {
	locations location.Repo
	logs      prayerlog.Repo
	dedupe    notification.Log
	ping      func(ctx context.Context) error
	close     func()
	pg        *pg.DB
}

func initStores(ctx context.Context, cfg *config.Config, l *zap.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		l.Info("storage: sqlite", zap.String("path", cfg.Storage.SQLitePath))
		return &stores{
			locations: sqlite.NewLocationRepo(db),
			logs:      sqlite.NewPrayerLogRepo(db),
			dedupe:    sqlite.NewNotificationLog(db),
			ping:      db.Ping,
			close:     func() { _ = db.Close() },
		}, nil
	default:
		db, err := pg.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		l.Info("storage: postgres")
		return &stores{
			locations: pg.NewLocationRepo(db),
			logs:      pg.NewPrayerLogRepo(db),
			dedupe:    pg.NewNotificationRepo(db),
			ping:      db.Ping,
			close:     db.Close,
			pg:        db,
		}, nil
	}
}
