package main

import (
	"net/http"
	"time"

	config "github.com/NordCoder/Reminderus/internal/config/api-gateway"
	"github.com/NordCoder/Reminderus/internal/obs"
	pg "github.com/NordCoder/Reminderus/internal/repository/postgres"
	"github.com/NordCoder/Reminderus/internal/services/api-gateway/httpx"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, svc *services) *http.Server {
	reg := obs.NewRegistry()

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		httpx.RequestID(),
		httpx.AccessLog(logger),
		httpx.Metrics(reg),
		cors.New(cors.Config{
			AllowOrigins:  cfg.Server.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", httpx.RequestIDHeader},
			ExposeHeaders: []string{"Content-Length", httpx.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}),
	)

	r.GET("/metrics", gin.WrapH(obs.MetricsHandler(reg)))
	r.GET("/healthz", gin.WrapH(obs.HealthHandler(db.Ping)))

	api := r.Group("/api")
	svc.settings.Register(api)
	svc.prayers.Register(api)

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           otelhttp.NewHandler(r, "api-gateway"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
