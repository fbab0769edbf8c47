package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Census CensusConfig `yaml:"census" mapstructure:"census"`
	FRED   FREDConfig   `yaml:"fred" mapstructure:"fred"`
	IPUMS  IPUMSConfig  `yaml:"ipums" mapstructure:"ipums"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Chart  ChartConfig  `yaml:"chart" mapstructure:"chart"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// CensusConfig configures the Census Bureau ACS API client.
type CensusConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	StartYear int    `yaml:"start_year" mapstructure:"start_year"`
	EndYear   int    `yaml:"end_year" mapstructure:"end_year"`
}

// FREDConfig configures the St. Louis Fed FRED API client.
type FREDConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// IPUMSConfig configures the IPUMS USA microdata extract client.
type IPUMSConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	PollSecs    int    `yaml:"poll_secs" mapstructure:"poll_secs"`
	MaxWaitSecs int    `yaml:"max_wait_secs" mapstructure:"max_wait_secs"`
}

// FetchConfig configures the download pipeline.
type FetchConfig struct {
	DataDir   string `yaml:"data_dir" mapstructure:"data_dir"`
	TempDir   string `yaml:"temp_dir" mapstructure:"temp_dir"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ChartConfig configures HTML chart generation.
type ChartConfig struct {
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`
}

// StoreConfig configures the sync-log store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the chart preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DIASPORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. API keys default to empty so env-only overrides bind.
	v.SetDefault("census.key", "")
	v.SetDefault("fred.key", "")
	v.SetDefault("ipums.key", "")
	v.SetDefault("census.base_url", "https://api.census.gov/data")
	v.SetDefault("census.start_year", 2010)
	v.SetDefault("census.end_year", 2023)
	v.SetDefault("fred.base_url", "https://api.stlouisfed.org")
	v.SetDefault("ipums.base_url", "https://api.ipums.org")
	v.SetDefault("ipums.poll_secs", 10)
	v.SetDefault("ipums.max_wait_secs", 300)
	v.SetDefault("fetch.data_dir", "data")
	v.SetDefault("fetch.temp_dir", "/tmp/diaspora")
	v.SetDefault("fetch.user_agent", "diaspora-cli/1.0")
	v.SetDefault("chart.out_dir", "docs")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "diaspora.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
