package api_gateway_config

import (
	"fmt"
	"strings"

	common "github.com/NordCoder/Reminderus/internal/config/common"
	"github.com/NordCoder/Reminderus/internal/prayer"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	common.SetAppDefaults(v, "api-gateway")
	common.SetDBDefaults(v, 20, 5)
	common.SetIntegrationDefaults(v)

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("prayer.day_policy", prayer.PolicySameDay)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("%w: db.dsn is empty", common.ErrConfig)
	}
	if cfg.Timings.BaseURL == "" {
		return nil, fmt.Errorf("%w: timings.base_url is empty", common.ErrConfig)
	}
	if _, err := prayer.PolicyByName(cfg.Prayer.DayPolicy); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfig, err)
	}
	return &cfg, nil
}
