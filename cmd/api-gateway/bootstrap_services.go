package main

import (
	"context"

	config "github.com/NordCoder/Reminderus/internal/config/api-gateway"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/mailer"
	"github.com/NordCoder/Reminderus/internal/prayer"
	pg "github.com/NordCoder/Reminderus/internal/repository/postgres"
	redisrepo "github.com/NordCoder/Reminderus/internal/repository/redis"
	"github.com/NordCoder/Reminderus/internal/services/api-gateway/prayers"
	"github.com/NordCoder/Reminderus/internal/services/api-gateway/settings"
	"github.com/NordCoder/Reminderus/internal/timings"
	"go.uber.org/zap"
)

type services struct {
	settings *settings.Controller
	prayers  *prayers.Controller
	closers  []func() error
}

func buildServices(ctx context.Context, cfg *config.Config, logger *zap.Logger, db *pg.DB) (*services, error) {
	s := &services{}

	var cache timings.Cache
	if cfg.Redis.Enable {
		rdb := redisrepo.NewClient(cfg.Redis.AsClientConfig())
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, timings cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rdb.Close()
		} else {
			cache = redisrepo.NewTimingsCache(rdb)
			s.closers = append(s.closers, rdb.Close)
		}
	}
	tc := timings.NewClient(cfg.Timings.AsClientConfig(), cache, logger)

	var sender notification.EmailSender
	if m, err := mailer.New(cfg.SMTP, logger); err != nil {
		logger.Warn("mail disabled", zap.Error(err))
	} else {
		sender = m
	}

	policy, err := prayer.PolicyByName(cfg.Prayer.DayPolicy)
	if err != nil {
		return nil, err
	}

	locRepo := pg.NewLocationRepo(db)
	s.settings = settings.NewController(logger, settings.NewUC(locRepo, nil))
	s.prayers = prayers.NewController(logger, prayers.NewUC(
		locRepo, tc, pg.NewPrayerLogRepo(db), sender, policy, cfg.Location.AsDefault(), nil, logger,
	))
	return s, nil
}

func (s *services) Close() {
	for _, c := range s.closers {
		_ = c()
	}
}
