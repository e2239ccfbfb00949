package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the root of config/config.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Business BusinessConfig `mapstructure:"business"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig selects the gorm dialect. Driver "memory" keeps everything
// in process and is meant for local runs.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres, memory
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	Purchase string `mapstructure:"purchase"`
	Account  string `mapstructure:"account"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	JWTIssuer     string `mapstructure:"jwt_issuer"`
	JWTTTLMinutes int    `mapstructure:"jwt_ttl_minutes"`
}

// TokenTTL returns the access token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.JWTTTLMinutes) * time.Minute
}

type BusinessConfig struct {
	MaxRetryCount       int `mapstructure:"max_retry_count"`
	LockTTLSeconds      int `mapstructure:"lock_ttl_seconds"`
	LockRetryIntervalMs int `mapstructure:"lock_retry_interval_ms"`
	LockMaxRetries      int `mapstructure:"lock_max_retries"`
	OutboxIntervalMs    int `mapstructure:"outbox_interval_ms"`
	OutboxBatchSize     int `mapstructure:"outbox_batch_size"`
	WorkerID            int `mapstructure:"worker_id"` // snowflake node
}

type LoggerConfig struct {
	Mode       string `mapstructure:"mode"` // development, production
	FileEnable bool   `mapstructure:"file_enable"`
	Filename   string `mapstructure:"filename"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "vending")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic.purchase", "vending.purchase")
	v.SetDefault("kafka.topic.account", "vending.account")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "vending-machine")
	v.SetDefault("auth.jwt_ttl_minutes", 60)

	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.lock_ttl_seconds", 10)
	v.SetDefault("business.lock_retry_interval_ms", 50)
	v.SetDefault("business.lock_max_retries", 20)
	v.SetDefault("business.outbox_interval_ms", 500)
	v.SetDefault("business.outbox_batch_size", 100)
	v.SetDefault("business.worker_id", 1)

	v.SetDefault("logger.mode", "development")
	v.SetDefault("logger.filename", "logs/vending.log")
}

// LoadConfig reads the YAML file at configPath on top of built-in defaults.
// Every key can be overridden from the environment with the VENDING_ prefix,
// e.g. VENDING_AUTH_JWT_SECRET or VENDING_DATABASE_DRIVER.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VENDING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "memory":
	default:
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTTTLMinutes <= 0 {
		c.Auth.JWTTTLMinutes = 60
	}
	if c.Business.MaxRetryCount <= 0 {
		c.Business.MaxRetryCount = 5
	}
	return nil
}
