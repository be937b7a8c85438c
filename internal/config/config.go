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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Scan      ScanConfig      `yaml:"scan" mapstructure:"scan"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the signal data store backend.
type StoreConfig struct {
	// Driver selects the backend: "rest" (hosted REST API) or "postgres".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	URL         string `yaml:"url" mapstructure:"url"`
	ServiceKey  string `yaml:"service_key" mapstructure:"service_key"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings. The key is optional: without
// it, signal descriptions degrade to deterministic templates.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ScanConfig holds detector thresholds and lookback windows.
type ScanConfig struct {
	SentimentDelta       float64 `yaml:"sentiment_delta" mapstructure:"sentiment_delta"`
	SentimentDeltaHigh   float64 `yaml:"sentiment_delta_high" mapstructure:"sentiment_delta_high"`
	SentimentMinBaseline int     `yaml:"sentiment_min_baseline" mapstructure:"sentiment_min_baseline"`
	SentimentMinRecent   int     `yaml:"sentiment_min_recent" mapstructure:"sentiment_min_recent"`

	SECClusterWindowHours int `yaml:"sec_cluster_window_hours" mapstructure:"sec_cluster_window_hours"`
	SECClusterMin         int `yaml:"sec_cluster_min" mapstructure:"sec_cluster_min"`
	FCCClusterWindowHours int `yaml:"fcc_cluster_window_hours" mapstructure:"fcc_cluster_window_hours"`
	FCCClusterMin         int `yaml:"fcc_cluster_min" mapstructure:"fcc_cluster_min"`

	CrossRatio        float64 `yaml:"cross_ratio" mapstructure:"cross_ratio"`
	CrossRatioHigh    float64 `yaml:"cross_ratio_high" mapstructure:"cross_ratio_high"`
	CrossBaselineDays int     `yaml:"cross_baseline_days" mapstructure:"cross_baseline_days"`

	ShortChangePct     float64 `yaml:"short_change_pct" mapstructure:"short_change_pct"`
	ShortChangePctHigh float64 `yaml:"short_change_pct_high" mapstructure:"short_change_pct_high"`

	ContentWindowHours   int      `yaml:"content_window_hours" mapstructure:"content_window_hours"`
	ContentWatchKeywords []string `yaml:"content_watch_keywords" mapstructure:"content_watch_keywords"`

	PatentKeywords     []string `yaml:"patent_keywords" mapstructure:"patent_keywords"`
	PatentMinOverlap   int      `yaml:"patent_min_overlap" mapstructure:"patent_min_overlap"`
	PatentMaxMatches   int      `yaml:"patent_max_matches" mapstructure:"patent_max_matches"`
	PatentLookbackDays int      `yaml:"patent_lookback_days" mapstructure:"patent_lookback_days"`
	FilingLookbackDays int      `yaml:"filing_lookback_days" mapstructure:"filing_lookback_days"`
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
	v.SetEnvPrefix("SATWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys get empty defaults so AutomaticEnv binding
	// reaches Unmarshal even when no config file is present.
	v.SetDefault("store.driver", "rest")
	v.SetDefault("store.url", "")
	v.SetDefault("store.service_key", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("scan.sentiment_delta", 0.15)
	v.SetDefault("scan.sentiment_delta_high", 0.25)
	v.SetDefault("scan.sentiment_min_baseline", 20)
	v.SetDefault("scan.sentiment_min_recent", 5)
	v.SetDefault("scan.sec_cluster_window_hours", 168)
	v.SetDefault("scan.sec_cluster_min", 3)
	v.SetDefault("scan.fcc_cluster_window_hours", 48)
	v.SetDefault("scan.fcc_cluster_min", 2)
	v.SetDefault("scan.cross_ratio", 2.5)
	v.SetDefault("scan.cross_ratio_high", 4.0)
	v.SetDefault("scan.cross_baseline_days", 14)
	v.SetDefault("scan.short_change_pct", 10.0)
	v.SetDefault("scan.short_change_pct_high", 20.0)
	v.SetDefault("scan.content_window_hours", 72)
	v.SetDefault("scan.content_watch_keywords", []string{"spectrum", "launch", "fcc", "earnings", "partnership"})
	v.SetDefault("scan.patent_keywords", []string{
		"spectrum", "phased array", "beamforming", "satellite", "terrestrial",
		"handset", "doppler", "constellation", "gateway", "low earth orbit",
		"direct-to-device", "waveform",
	})
	v.SetDefault("scan.patent_min_overlap", 2)
	v.SetDefault("scan.patent_max_matches", 5)
	v.SetDefault("scan.patent_lookback_days", 90)
	v.SetDefault("scan.filing_lookback_days", 30)

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
