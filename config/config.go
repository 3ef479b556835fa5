package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging/kafka"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging/redis"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/worker"
)

// EnvPrefix namespaces every environment override, e.g. VISA_DATABASE_HOST.
const EnvPrefix = "VISA"

type DatabaseConfig struct {
	// Driver is postgres or memory.
	Driver          string        `mapstructure:"driver" envconfig:"driver"`
	Host            string        `mapstructure:"host" envconfig:"host"`
	Port            int           `mapstructure:"port" envconfig:"port"`
	User            string        `mapstructure:"user" envconfig:"user"`
	Password        string        `mapstructure:"password" envconfig:"password"`
	Name            string        `mapstructure:"name" envconfig:"name"`
	SSLMode         string        `mapstructure:"sslmode" envconfig:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"conn_max_lifetime"`
}

// DSN renders a lib/pq keyword connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type ServerConfig struct {
	Port           int           `mapstructure:"port" envconfig:"port"`
	Mode           string        `mapstructure:"mode" envconfig:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" envconfig:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" envconfig:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" envconfig:"request_timeout"`
	MaxBodySize    int64         `mapstructure:"max_body_size" envconfig:"max_body_size"`
	MaxUploadSize  int64         `mapstructure:"max_upload_size" envconfig:"max_upload_size"`
	CORS           CORSConfig    `mapstructure:"cors" envconfig:"cors"`
}

type CORSConfig struct {
	AllowOrigins     []string      `mapstructure:"allow_origins" envconfig:"allow_origins"`
	AllowCredentials bool          `mapstructure:"allow_credentials" envconfig:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age" envconfig:"max_age"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"url"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"min_idle_conns"`
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers" envconfig:"brokers"`
	GroupID      string        `mapstructure:"group_id" envconfig:"group_id"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout" envconfig:"batch_timeout"`
}

// BrokerConfig selects the message transport: redis, kafka or none.
type BrokerConfig struct {
	Driver string `mapstructure:"driver" envconfig:"driver"`
}

type BlobConfig struct {
	Driver        string        `mapstructure:"driver" envconfig:"driver"`
	Bucket        string        `mapstructure:"bucket" envconfig:"bucket"`
	Region        string        `mapstructure:"region" envconfig:"region"`
	Endpoint      string        `mapstructure:"endpoint" envconfig:"endpoint"`
	PublicBaseURL string        `mapstructure:"public_base_url" envconfig:"public_base_url"`
	UsePathStyle  bool          `mapstructure:"use_path_style" envconfig:"use_path_style"`
	Timeout       time.Duration `mapstructure:"timeout" envconfig:"timeout"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret" envconfig:"secret"`
	Issuer string `mapstructure:"issuer" envconfig:"issuer"`
}

type OutboxConfig struct {
	BatchSize       int           `mapstructure:"batch_size" envconfig:"batch_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval" envconfig:"poll_interval"`
	RetryAttempts   int           `mapstructure:"retry_attempts" envconfig:"retry_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" envconfig:"retry_delay"`
	LeaseDuration   time.Duration `mapstructure:"lease_duration" envconfig:"lease_duration"`
	Retention       time.Duration `mapstructure:"retention" envconfig:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" envconfig:"cleanup_interval"`
}

type NotificationConfig struct {
	BufferSize int    `mapstructure:"buffer_size" envconfig:"buffer_size"`
	Channel    string `mapstructure:"channel" envconfig:"channel"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" envconfig:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"requests_per_second"`
	Burst             int     `mapstructure:"burst" envconfig:"burst"`
}

type CacheConfig struct {
	CountryTTL      time.Duration `mapstructure:"country_ttl" envconfig:"country_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" envconfig:"cleanup_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" envconfig:"level"`
	Format string `mapstructure:"format" envconfig:"format"`
}

type Config struct {
	Server       ServerConfig       `mapstructure:"server" envconfig:"server"`
	Database     DatabaseConfig     `mapstructure:"database" envconfig:"database"`
	Redis        RedisConfig        `mapstructure:"redis" envconfig:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka" envconfig:"kafka"`
	Broker       BrokerConfig       `mapstructure:"broker" envconfig:"broker"`
	Blob         BlobConfig         `mapstructure:"blob" envconfig:"blob"`
	JWT          JWTConfig          `mapstructure:"jwt" envconfig:"jwt"`
	Outbox       OutboxConfig       `mapstructure:"outbox" envconfig:"outbox"`
	Notification NotificationConfig `mapstructure:"notification" envconfig:"notification"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit" envconfig:"rate_limit"`
	Cache        CacheConfig        `mapstructure:"cache" envconfig:"cache"`
	Log          LogConfig          `mapstructure:"log" envconfig:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.max_body_size", 1<<20)
	v.SetDefault("server.max_upload_size", 10<<20)
	v.SetDefault("server.cors.allow_origins", []string{"*"})
	v.SetDefault("server.cors.max_age", 24*time.Hour)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "visa")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "visa-workflow")
	v.SetDefault("kafka.batch_timeout", 50*time.Millisecond)

	v.SetDefault("broker.driver", "redis")

	v.SetDefault("blob.driver", "memory")
	v.SetDefault("blob.region", "us-east-1")
	v.SetDefault("blob.timeout", 10*time.Second)

	v.SetDefault("jwt.issuer", "medtravel")

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 2*time.Second)
	v.SetDefault("outbox.retry_attempts", 5)
	v.SetDefault("outbox.retry_delay", 5*time.Second)
	v.SetDefault("outbox.lease_duration", 30*time.Second)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)

	v.SetDefault("notification.buffer_size", 256)
	v.SetDefault("notification.channel", "notifications")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cache.country_ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads config.yml from path (or the default search paths when path is
// empty), then overlays VISA_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
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
		if path != "" || !errors.As(err, &notFound) {
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
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch strings.ToLower(c.Broker.Driver) {
	case "redis", "kafka", "none":
	default:
		return fmt.Errorf("unsupported broker driver %q", c.Broker.Driver)
	}
	switch strings.ToLower(c.Blob.Driver) {
	case "s3":
		if c.Blob.Bucket == "" {
			return fmt.Errorf("blob.bucket is required for the s3 driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported blob driver %q", c.Blob.Driver)
	}
	if c.Blob.Timeout <= 0 {
		return fmt.Errorf("blob.timeout must be positive")
	}
	return nil
}

func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
		LeaseDuration: c.LeaseDuration,
	}
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

func (c *KafkaConfig) ToBrokerConfig() kafka.Config {
	return kafka.Config{
		Brokers:      c.Brokers,
		GroupID:      c.GroupID,
		BatchTimeout: c.BatchTimeout,
	}
}
