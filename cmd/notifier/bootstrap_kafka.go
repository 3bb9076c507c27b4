package main

import (
	"context"
	"time"

	config "github.com/NordCoder/Reminderus/internal/config/notifier"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/obs/retry"
	"github.com/NordCoder/Reminderus/internal/outbox"
	kafkaRepo "github.com/NordCoder/Reminderus/internal/repository/kafka"
	pg "github.com/NordCoder/Reminderus/internal/repository/postgres"
	"github.com/NordCoder/Reminderus/internal/services/prayer-notifier/repo"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// initEvents swaps the dedupe log for one that also queues a notification-sent
// event, and builds the relay that publishes queued events to Kafka.
func initEvents(ctx context.Context, cfg *config.Config, st *stores, l *zap.Logger, reg prometheus.Registerer) (notification.Log, *outbox.Runner, func()) {
	ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := kafkaRepo.EnsureTopic(ensureCtx, cfg.Kafka.Brokers, kafkaRepo.TopicSpec{Name: cfg.Kafka.Topic}, l); err != nil {
		l.Warn("ensure topic; relay will keep retrying", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
	}

	prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, l)
	publisher := kafkaRepo.NewNotificationEventsKafka(prod)

	outboxRepo := pg.NewOutboxRepo(st.pg)
	dedupe := repo.PublishingLog{
		Log:    st.dedupe,
		Outbox: outboxRepo,
		Tx:     pg.NewTransactor(st.pg, l),
	}

	pol := retry.DefaultRelayPolicy("outbox_notification_sent", l, retry.NewMetrics(reg))
	runner := outbox.NewOutboxRunner(l, outboxRepo, outbox.NewDispatch(publisher, pol, reg), outbox.Config{
		Workers:       cfg.Outbox.Workers,
		BatchSize:     cfg.Outbox.BatchSize,
		WaitTime:      cfg.Outbox.WaitTime,
		InProgressTTL: cfg.Outbox.InProgressTTL,
	}, reg)

	return dedupe, runner, func() { _ = prod.Close() }
}
