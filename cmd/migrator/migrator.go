package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	common "github.com/NordCoder/Reminderus/internal/config/common"
	"github.com/NordCoder/Reminderus/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: "+strings.Join(migrations.Commands, ", "))
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after this long")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := common.LoadDotEnv(); err != nil {
		logger.Warn("load .env", zap.Error(err))
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logger.Fatal("DB_DSN is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, *cmd); err != nil {
		logger.Fatal("migrate", zap.String("cmd", *cmd), zap.Error(err))
	}
	logger.Info("migrations done", zap.String("cmd", *cmd))
}
