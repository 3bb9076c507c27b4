package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	common "github.com/NordCoder/Reminderus/internal/config/common"
	config "github.com/NordCoder/Reminderus/internal/config/notifier"
	kafkax "github.com/NordCoder/Reminderus/internal/repository/kafka"
	"go.uber.org/zap"
)

// kafka-init creates the notifier's event topic before the notifier starts. Brokers
// and topic come from the notifier config; KAFKA_BROKERS / KAFKA_TOPICS override them.
func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "notifier config file (optional)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := common.LoadDotEnv(); err != nil {
		logger.Warn("load .env", zap.Error(err))
	}

	brokers, topics := []string{"kafka:9092"}, []string{"reminderus.notifications.sent"}
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			logger.Fatal("load config", zap.String("path", *cfgPath), zap.Error(err))
		}
		if !cfg.Kafka.Enable {
			logger.Info("kafka disabled in config, nothing to do")
			return
		}
		brokers, topics = cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}
	}
	brokers = listEnv("KAFKA_BROKERS", brokers)
	topics = listEnv("KAFKA_TOPICS", topics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	for _, t := range topics {
		err := kafkax.EnsureTopic(ctx, brokers, kafkax.TopicSpec{
			Name:              t,
			NumPartitions:     intEnv("KAFKA_PARTITIONS", 1),
			ReplicationFactor: intEnv("KAFKA_RF", 1),
			MaxWait:           30 * time.Second,
		}, logger)
		if err != nil {
			logger.Fatal("ensure topic", zap.String("topic", t), zap.Error(err))
		}
	}
	logger.Info("topics ready", zap.Strings("topics", topics), zap.Strings("brokers", brokers))
}

func listEnv(k string, def []string) []string {
	raw := os.Getenv(k)
	if raw == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func intEnv(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
