package api_gateway_config

import (
	"time"

	common "github.com/NordCoder/Reminderus/internal/config/common"
	pg "github.com/NordCoder/Reminderus/internal/repository/postgres"
)

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type Prayer struct {
	DayPolicy string `mapstructure:"day_policy"`
}

type Config struct {
	App      common.App      `mapstructure:"app"`
	Server   Server          `mapstructure:"server"`
	DB       pg.Config       `mapstructure:"db"`
	OTEL     common.OTEL     `mapstructure:"otel"`
	Log      common.Log      `mapstructure:"log"`
	Timings  common.Timings  `mapstructure:"timings"`
	Redis    common.Redis    `mapstructure:"redis"`
	Location common.Location `mapstructure:"location"`
	SMTP     common.SMTP     `mapstructure:"smtp"`
	Prayer   Prayer          `mapstructure:"prayer"`
}
