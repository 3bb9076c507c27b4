package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	common "github.com/NordCoder/Reminderus/internal/config/common"
	config "github.com/NordCoder/Reminderus/internal/config/notifier"
	"github.com/NordCoder/Reminderus/internal/mailer"
	"github.com/NordCoder/Reminderus/internal/obs"
	"github.com/NordCoder/Reminderus/internal/prayer"
	redisRepo "github.com/NordCoder/Reminderus/internal/repository/redis"
	notifier "github.com/NordCoder/Reminderus/internal/services/prayer-notifier"
	"github.com/NordCoder/Reminderus/internal/services/prayer-notifier/repo"
	"github.com/NordCoder/Reminderus/internal/timings"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := common.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "../config/notifier.yaml"), "path to config file")
	flag.Parse()

	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := loader.Load()
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, level, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting notifier",
		zap.String("storage", cfg.Storage.Driver),
		zap.Duration("tick", cfg.Notify.Tick),
		zap.Duration("tolerance", cfg.Notify.Tolerance),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)
	if *cfgPath != "" {
		loader.Watch(func(c *config.Config) {
			level.SetLevel(obs.ParseLevel(c.Log.Level))
			l.Info("config reloaded", zap.String("log_level", c.Log.Level))
		}, func(err error) {
			l.Warn("config reload rejected", zap.Error(err))
		})
	}

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// storage
	st, err := initStores(ctx, cfg, l)
	if err != nil {
		l.Fatal("storage", zap.Error(err))
	}
	defer st.close()

	// metrics server
	reg := obs.NewRegistry()
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, reg, st.ping, l)
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = ms.Shutdown(shCtx)
	}()

	// mail
	sender, err := mailer.New(cfg.SMTP, l)
	if err != nil {
		// Without a recipient there is nothing to do; stay up for health checks.
		l.Warn("mail not configured; notifier idle", zap.Error(err))
		<-ctx.Done()
		l.Info("bye")
		return
	}

	// timings
	var cache timings.Cache
	if cfg.Redis.Enable {
		rdb := redisRepo.NewClient(cfg.Redis.AsClientConfig())
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			l.Warn("redis unavailable, timings cache disabled", zap.Error(err))
		} else {
			cache = redisRepo.NewTimingsCache(rdb)
		}
	}
	tc := timings.NewClient(cfg.Timings.AsClientConfig(), cache, l)

	// wiring
	var wg sync.WaitGroup
	dedupe := st.dedupe
	if cfg.Kafka.Enable {
		var relay interface{ Run(context.Context) }
		var closeProd func()
		dedupe, relay, closeProd = initEvents(ctx, cfg, st, l, reg)
		defer closeProd()
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	}

	gate := notifier.NewGate(dedupe, l)
	policy, err := prayer.PolicyByName(cfg.Notify.PrayerDayPolicy)
	if err != nil {
		l.Fatal("day policy", zap.Error(err))
	}
	uc := notifier.NewUC(
		repo.Locations{R: st.locations, Default: cfg.Location.AsDefault()},
		tc,
		st.logs,
		gate,
		sender,
		nil,
		policy,
		cfg.Notify.Tolerance,
		l,
	)
	notifier.CheckCoverage(l, cfg.Notify.Tick, cfg.Notify.Tolerance)
	runner := notifier.NewRunner(l, uc, cfg.Notify.Tick, reg)

	if cfg.Reminders.Enable {
		sched, err := buildScheduler(cfg, st, gate, sender, l, reg)
		if err != nil {
			l.Fatal("reminder jobs", zap.Error(err))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sched.Run(ctx)
		}()
	}

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()
	l.Info("notifier started")

	select {
	case <-ctx.Done():
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Error("runner error", zap.Error(err))
	}
	stop()
	wg.Wait()
	l.Info("bye")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
