package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Anomaly   AnomalyConfig   `mapstructure:"anomaly"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// GeneratorConfig drives synthetic trade generation: the ticker universe,
// the sampling ranges and the batch schedule.
type GeneratorConfig struct {
	Tickers      []string `mapstructure:"tickers"`
	TradeTypes   []string `mapstructure:"trade_types"`
	MarketCode   string   `mapstructure:"market_code"`
	CurrencyCode string   `mapstructure:"currency_code"`

	PriceMin  float64 `mapstructure:"price_min"`
	PriceMax  float64 `mapstructure:"price_max"`
	VolumeMin int64   `mapstructure:"volume_min"`
	VolumeMax int64   `mapstructure:"volume_max"`

	BaseBatchSize      int `mapstructure:"base_batch_size"`
	MinBatchSize       int `mapstructure:"min_batch_size"`
	MaxBatchMultiplier int `mapstructure:"max_batch_multiplier"`

	WindowSeconds       int `mapstructure:"window_seconds"`       // seconds a batch is spread over
	DistributionSeconds int `mapstructure:"distribution_seconds"` // sleep between batches
}

// StreamConfig configures the per-connection tick stream.
type StreamConfig struct {
	ListenTimeout time.Duration `mapstructure:"listen_timeout"` // idle wait for subscription updates
}

type AnomalyConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}
	v.AddConfigPath("./config")

	// Support environment variables with dot notation (e.g., POSTGRES_HOST)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}
