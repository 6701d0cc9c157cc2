package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/clinic-checkin/pkg/messaging/kafka"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-checkin/pkg/worker"
)

// EnvPrefix scopes environment overrides, e.g. CHECKIN_DATABASE_HOST.
const EnvPrefix = "CHECKIN"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Clinic   ClinicConfig   `mapstructure:"clinic"`
	Sequence SequenceConfig `mapstructure:"sequence"`
	QRToken  QRTokenConfig  `mapstructure:"qr_token"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Reaper   ReaperConfig   `mapstructure:"reaper"`
	// Broker selects the event transport: "redis", "kafka" or "memory".
	Broker    string          `mapstructure:"broker"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" split_words:"true"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open" split_words:"true"`
	MaxIdle  int    `mapstructure:"max_idle" split_words:"true"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id" split_words:"true"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type ClinicConfig struct {
	// Timezone is the IANA zone used for calendar days and slots.
	Timezone        string        `mapstructure:"timezone"`
	SessionTTL      time.Duration `mapstructure:"session_ttl" split_words:"true"`
	CatalogCacheTTL time.Duration `mapstructure:"catalog_cache_ttl" split_words:"true"`
}

// Location resolves Timezone, defaulting to the server's local zone.
func (c ClinicConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid clinic timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type SequenceConfig struct {
	// Backend is "postgres" or "redis".
	Backend string `mapstructure:"backend"`
}

type QRTokenConfig struct {
	Secret string        `mapstructure:"secret"`
	MaxAge time.Duration `mapstructure:"max_age" split_words:"true"`
	Issuer string        `mapstructure:"issuer"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	// DoctorInbox receives doctor-notified emails.
	DoctorInbox string `mapstructure:"doctor_inbox" split_words:"true"`
}

// Enabled reports whether email fan-out is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.DoctorInbox != ""
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size" split_words:"true"`
	PollInterval  time.Duration `mapstructure:"poll_interval" split_words:"true"`
	RetryAttempts int           `mapstructure:"retry_attempts" split_words:"true"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" split_words:"true"`
	Retention     time.Duration `mapstructure:"retention"`
}

type ReaperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("clinic.session_ttl", 24*time.Hour)
	v.SetDefault("clinic.catalog_cache_ttl", 30*time.Second)
	v.SetDefault("sequence.backend", "postgres")
	v.SetDefault("qr_token.max_age", 5*time.Minute)
	v.SetDefault("qr_token.issuer", "clinic-checkin")
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", time.Second)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("reaper.interval", time.Minute)
	v.SetDefault("broker", "redis")
	v.SetDefault("kafka.group_id", "clinic-checkin")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
}

// LoadConfig reads config.yml (or $CONFIG_FILE) and applies CHECKIN_*
// environment overrides. A missing file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Clinic.SessionTTL <= 0 {
		return fmt.Errorf("clinic.session_ttl must be positive")
	}
	if c.Clinic.CatalogCacheTTL < 0 || c.Clinic.CatalogCacheTTL > 5*time.Minute {
		return fmt.Errorf("clinic.catalog_cache_ttl must be between 0 and 5m, got %s", c.Clinic.CatalogCacheTTL)
	}
	if _, err := c.Clinic.Location(); err != nil {
		return err
	}
	switch c.Sequence.Backend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("unknown sequence backend %q", c.Sequence.Backend)
	}
	switch c.Broker {
	case "redis", "memory":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when broker is kafka")
		}
	default:
		return fmt.Errorf("unknown broker %q", c.Broker)
	}
	return nil
}

// ToWorkerConfig converts outbox settings for the processor.
func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
	}
}

func (c *KafkaConfig) ToBrokerConfig() kafka.Config {
	return kafka.Config{Brokers: c.Brokers, GroupID: c.GroupID}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
