package main

import (
	config "github.com/NordCoder/Reminderus/internal/config/api-gateway"
	"github.com/NordCoder/Reminderus/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	l, _, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	return l, err
}
