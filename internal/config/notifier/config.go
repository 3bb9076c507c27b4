package notifier_config

import (
	"time"

	common "github.com/NordCoder/Reminderus/internal/config/common"
	pg "github.com/NordCoder/Reminderus/internal/repository/postgres"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Storage struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type Notify struct {
	Tick            time.Duration `mapstructure:"tick"`
	Tolerance       time.Duration `mapstructure:"tolerance"`
	PrayerDayPolicy string        `mapstructure:"prayer_day_policy"`
}

type Reminders struct {
	Enable        bool   `mapstructure:"enable"`
	Timezone      string `mapstructure:"timezone"`
	EventsSpec    string `mapstructure:"events_spec"`
	TasksSpec     string `mapstructure:"tasks_spec"`
	KeepAliveSpec string `mapstructure:"keepalive_spec"`
	TaskBatch     int    `mapstructure:"task_batch"`
}

type Kafka struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Config struct {
	App       common.App      `mapstructure:"app"`
	Log       common.Log      `mapstructure:"log"`
	OTEL      common.OTEL     `mapstructure:"otel"`
	Server    Server          `mapstructure:"server"`
	Storage   Storage         `mapstructure:"storage"`
	DB        pg.Config       `mapstructure:"db"`
	Notify    Notify          `mapstructure:"notify"`
	Reminders Reminders       `mapstructure:"reminders"`
	Timings   common.Timings  `mapstructure:"timings"`
	Redis     common.Redis    `mapstructure:"redis"`
	Location  common.Location `mapstructure:"location"`
	SMTP      common.SMTP     `mapstructure:"smtp"`
	Kafka     Kafka           `mapstructure:"kafka"`
	Outbox    Outbox          `mapstructure:"outbox"`
}
