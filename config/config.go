package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pricebook/orderbook"
)

// EnvPrefix prefixes every environment override, e.g. PRICEBOOK_LOG_LEVEL
const EnvPrefix = "PRICEBOOK"

// Dispatcher modes
const (
	ModeQueued    = "queued"
	ModeImmediate = "immediate"
)

type Config struct {
	Log             LogConfig        `mapstructure:"log"`
	Dispatcher      DispatcherConfig `mapstructure:"dispatcher"`
	Feed            FeedConfig       `mapstructure:"feed"`
	HTTP            HTTPConfig       `mapstructure:"http"`
	Kafka           KafkaConfig      `mapstructure:"kafka"`
	ShutdownTimeout time.Duration    `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type DispatcherConfig struct {
	Mode  string `mapstructure:"mode"`
	Index string `mapstructure:"index"`
}

type FeedConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	URL     string   `mapstructure:"url"`
	Symbols []string `mapstructure:"symbols"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("dispatcher.mode", ModeQueued)
	v.SetDefault("dispatcher.index", orderbook.RedBlackType.String())
	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.url", "")
	v.SetDefault("feed.symbols", []string{})
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "pricebook.diffs")
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// Load reads defaults, then the YAML file at path (skipped when empty), then
// PRICEBOOK_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the daemon cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Dispatcher.Mode) {
	case ModeQueued, ModeImmediate:
	default:
		errs = append(errs, fmt.Errorf("dispatcher.mode: unknown mode %q", c.Dispatcher.Mode))
	}

	if _, err := orderbook.ParseIndexType(c.Dispatcher.Index); err != nil {
		errs = append(errs, fmt.Errorf("dispatcher.index: %w", err))
	}

	if c.Feed.Enabled && c.Feed.URL == "" {
		errs = append(errs, errors.New("feed.url is required when the feed is enabled"))
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka.topic is required when kafka is enabled"))
		}
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}

	return errors.Join(errs...)
}

// IndexType returns the parsed dispatcher.index
func (c *Config) IndexType() orderbook.IndexType {
	t, _ := orderbook.ParseIndexType(c.Dispatcher.Index)
	return t
}
