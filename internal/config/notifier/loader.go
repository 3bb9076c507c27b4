package notifier_config

import (
	"fmt"
	"strings"

	common "github.com/NordCoder/Reminderus/internal/config/common"
	"github.com/NordCoder/Reminderus/internal/prayer"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Loader keeps the viper instance around so the file can be watched afterwards.
type Loader struct {
	v *viper.Viper
}

func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	common.SetAppDefaults(v, "notifier")
	common.SetDBDefaults(v, 5, 1)
	common.SetIntegrationDefaults(v)

	v.SetDefault("server.metrics_addr", ":9102")

	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.sqlite_path", "reminderus.db")

	v.SetDefault("notify.tick", "5m")
	v.SetDefault("notify.tolerance", "2m")
	v.SetDefault("notify.prayer_day_policy", prayer.PolicySameDay)

	v.SetDefault("reminders.enable", true)
	v.SetDefault("reminders.timezone", "UTC")
	v.SetDefault("reminders.events_spec", "0 8 * * *")
	v.SetDefault("reminders.tasks_spec", "*/1 * * * *")
	v.SetDefault("reminders.keepalive_spec", "0 3 */3 * *")
	v.SetDefault("reminders.task_batch", 50)

	v.SetDefault("kafka.enable", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "reminderus.notifications.sent")

	v.SetDefault("outbox.workers", 1)
	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.wait_time", "1s")
	v.SetDefault("outbox.in_progress_ttl", "30s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}, nil
}

func (l *Loader) Load() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch reloads the file on change and hands the new config to fn.
// Invalid configs are reported through onErr and not applied.
func (l *Loader) Watch(fn func(*Config), onErr func(error)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		fn(cfg)
	})
	l.v.WatchConfig()
}

func Load(path string) (*Config, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Load()
}

func Validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case DriverPostgres:
		if cfg.DB.DSN == "" {
			return fmt.Errorf("%w: db.dsn is empty", common.ErrConfig)
		}
	case DriverSQLite:
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: storage.sqlite_path is empty", common.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", common.ErrConfig, cfg.Storage.Driver)
	}

	if cfg.Notify.Tick <= 0 {
		return fmt.Errorf("%w: notify.tick must be > 0", common.ErrConfig)
	}
	if cfg.Notify.Tolerance <= 0 {
		return fmt.Errorf("%w: notify.tolerance must be > 0", common.ErrConfig)
	}
	if _, err := prayer.PolicyByName(cfg.Notify.PrayerDayPolicy); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfig, err)
	}
	if cfg.Location.Timezone != "" {
		if _, err := prayer.LoadZone(cfg.Location.Timezone); err != nil {
			return fmt.Errorf("%w: location.timezone: %v", common.ErrConfig, err)
		}
	}

	if cfg.Reminders.Enable {
		if _, err := prayer.LoadZone(cfg.Reminders.Timezone); err != nil {
			return fmt.Errorf("%w: reminders.timezone: %v", common.ErrConfig, err)
		}
		for name, spec := range map[string]string{
			"events_spec":    cfg.Reminders.EventsSpec,
			"tasks_spec":     cfg.Reminders.TasksSpec,
			"keepalive_spec": cfg.Reminders.KeepAliveSpec,
		} {
			if spec == "" {
				continue
			}
			if _, err := cron.ParseStandard(spec); err != nil {
				return fmt.Errorf("%w: reminders.%s: %v", common.ErrConfig, name, err)
			}
		}
	}

	if cfg.Kafka.Enable {
		if cfg.Storage.Driver != DriverPostgres {
			return fmt.Errorf("%w: kafka relay requires the postgres driver", common.ErrConfig)
		}
		if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "" {
			return fmt.Errorf("%w: kafka.brokers and kafka.topic are required", common.ErrConfig)
		}
		if cfg.Outbox.Workers <= 0 || cfg.Outbox.BatchSize <= 0 || cfg.Outbox.WaitTime <= 0 {
			return fmt.Errorf("%w: outbox workers, batch_size and wait_time must be > 0", common.ErrConfig)
		}
	}

	if cfg.Timings.BaseURL == "" {
		return fmt.Errorf("%w: timings.base_url is empty", common.ErrConfig)
	}
	return nil
}
