package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DeliveryOutbox = "outbox"
	DeliveryDirect = "direct"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Auth         AuthConfig         `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	Leave        LeaveConfig        `mapstructure:"leave"`
	Sweep        SweepConfig        `mapstructure:"sweep"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	Name       string `mapstructure:"name"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	SSLMode    string `mapstructure:"sslmode"`
	MaxRetries int    `mapstructure:"max_retries"`
	Migrate    bool   `mapstructure:"migrate"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	UserTTL  time.Duration `mapstructure:"user_ttl"`
}

type KafkaConfig struct {
	Broker            string        `mapstructure:"broker"`
	NotificationGroup string        `mapstructure:"notification_group"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LeaveConfig struct {
	Timezone        string  `mapstructure:"timezone"`
	CreateRateLimit float64 `mapstructure:"create_rate_limit"`
	CreateRateBurst int     `mapstructure:"create_rate_burst"`
}

// Location resolves the timezone used to decide what "today" is for leave dates.
func (c LeaveConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

type SweepConfig struct {
	KitchenExpirySchedule string        `mapstructure:"kitchen_expiry_schedule"`
	OnLeaveCheckSchedule  string        `mapstructure:"on_leave_check_schedule"`
	ActivationSchedule    string        `mapstructure:"activation_schedule"`
	OutboxPurgeSchedule   string        `mapstructure:"outbox_purge_schedule"`
	OutboxRetention       time.Duration `mapstructure:"outbox_retention"`
	RunOnStart            bool          `mapstructure:"run_on_start"`
}

type NotificationConfig struct {
	Delivery string `mapstructure:"delivery"`
}

// Load reads .env (if present) and the environment. Env keys use underscores,
// e.g. DB_HOST, REDIS_ADDR, SWEEP_ACTIVATION_SCHEDULE.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.name", "lms")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_retries", 5)
	v.SetDefault("db.migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.user_ttl", time.Hour)

	v.SetDefault("kafka.broker", "")
	v.SetDefault("kafka.notification_group", "go-lms-notifications")
	v.SetDefault("kafka.poll_interval", 3*time.Second)

	v.SetDefault("jwt.secret", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("leave.timezone", "Asia/Kolkata")
	v.SetDefault("leave.create_rate_limit", 1.0)
	v.SetDefault("leave.create_rate_burst", 5)

	v.SetDefault("sweep.kitchen_expiry_schedule", "5 0 * * *")
	v.SetDefault("sweep.on_leave_check_schedule", "@daily")
	v.SetDefault("sweep.activation_schedule", "@hourly")
	v.SetDefault("sweep.outbox_purge_schedule", "30 3 * * *")
	v.SetDefault("sweep.outbox_retention", 7*24*time.Hour)
	v.SetDefault("sweep.run_on_start", false)

	v.SetDefault("notification.delivery", DeliveryOutbox)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("config: SERVER_PORT must not be empty")
	}
	if _, err := c.Leave.Location(); err != nil {
		return fmt.Errorf("config: invalid LEAVE_TIMEZONE %q: %w", c.Leave.Timezone, err)
	}
	switch c.Notification.Delivery {
	case DeliveryOutbox, DeliveryDirect:
	default:
		return fmt.Errorf("config: NOTIFICATION_DELIVERY must be %q or %q", DeliveryOutbox, DeliveryDirect)
	}
	return nil
}
