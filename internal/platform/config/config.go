// Package config loads service configuration from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"irdesk/internal/platform/database"
)

// DevSigningKey is only accepted outside production.
const DevSigningKey = "dev-secret-key-change-in-production"

// Config is the complete service configuration.
type Config struct {
	Environment  string             `mapstructure:"environment"`
	Server       Server             `mapstructure:"server"`
	Log          Log                `mapstructure:"log"`
	Database     database.Config    `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Notification NotificationConfig `mapstructure:"notification"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Verification VerificationConfig `mapstructure:"verification"`
	Jobs         JobsConfig         `mapstructure:"jobs"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// RedisConfig is optional; an empty URL disables Redis.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RegistryConfig struct {
	// SeedFile is a JSON array of holders loaded at startup.
	SeedFile string        `mapstructure:"seed_file"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type NotificationConfig struct {
	// Driver is one of "log", "kafka" or "amqp".
	Driver       string   `mapstructure:"driver"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
	AMQPURL      string   `mapstructure:"amqp_url"`
	AMQPExchange string   `mapstructure:"amqp_exchange"`
}

type AuthConfig struct {
	JWTSigningKey string        `mapstructure:"jwt_signing_key"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
	JWTAudience   string        `mapstructure:"jwt_audience"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

type VerificationConfig struct {
	LoginLink      string `mapstructure:"login_link"`
	UniqueIdentity bool   `mapstructure:"unique_identity"`
	AuditBuffer    int    `mapstructure:"audit_buffer"`
}

type JobsConfig struct {
	// GaugeRefreshSchedule is a cron spec; empty disables the job.
	GaugeRefreshSchedule string `mapstructure:"gauge_refresh_schedule"`
}

// IsProduction reports whether strict validation applies.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("registry.seed_file", "")
	v.SetDefault("registry.cache_ttl", 5*time.Minute)
	v.SetDefault("notification.driver", "log")
	v.SetDefault("notification.kafka_brokers", []string{})
	v.SetDefault("notification.kafka_topic", "verification-codes")
	v.SetDefault("notification.amqp_url", "")
	v.SetDefault("notification.amqp_exchange", "verification")
	v.SetDefault("auth.jwt_signing_key", DevSigningKey)
	v.SetDefault("auth.jwt_issuer", "irdesk")
	v.SetDefault("auth.jwt_audience", "irdesk-admin")
	v.SetDefault("auth.token_ttl", 8*time.Hour)
	v.SetDefault("verification.login_link", "http://localhost:3000/login")
	v.SetDefault("verification.unique_identity", false)
	v.SetDefault("verification.audit_buffer", 256)
	v.SetDefault("jobs.gauge_refresh_schedule", "@every 1m")
}

// Load reads configuration. Environment variables use the upper-cased key with
// dots replaced by underscores, e.g. DATABASE_URL or NOTIFICATION_DRIVER.
// configFile may be empty.
func Load(configFile string) (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	// Comma-separated broker lists from the environment arrive as one element.
	cfg.Notification.KafkaBrokers = splitList(cfg.Notification.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Notification.Driver {
	case "log":
	case "kafka":
		if len(c.Notification.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("notification.kafka_brokers is required for the kafka driver"))
		}
		if c.Notification.KafkaTopic == "" {
			errs = append(errs, errors.New("notification.kafka_topic is required for the kafka driver"))
		}
	case "amqp":
		if c.Notification.AMQPURL == "" {
			errs = append(errs, errors.New("notification.amqp_url is required for the amqp driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notification.driver %q", c.Notification.Driver))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("auth.jwt_signing_key is required"))
	}
	if c.IsProduction() && c.Auth.JWTSigningKey == DevSigningKey {
		errs = append(errs, errors.New("auth.jwt_signing_key must be set in production"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
