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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Bridge     BridgeConfig     `yaml:"bridge" mapstructure:"bridge"`
	Chat       ChatConfig       `yaml:"chat" mapstructure:"chat"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Collect    CollectConfig    `yaml:"collect" mapstructure:"collect"`
	Alerts     AlertsConfig     `yaml:"alerts" mapstructure:"alerts"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BridgeConfig holds metadata bridge settings.
type BridgeConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// ChatConfig holds chat platform bot API settings.
type ChatConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Token   string `yaml:"token" mapstructure:"token"`
}

// AnthropicConfig holds Anthropic API settings for the default scorer.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for the OpenAI-compatible failover scorer.
// BaseURL allows pointing at self-hosted gateways.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ClassifierConfig configures the scoring gateway and decision threshold.
type ClassifierConfig struct {
	// Backend is the default scoring backend ("anthropic" or "openai");
	// Fallbacks are tried in order when the default is exhausted.
	Backend   string   `yaml:"backend" mapstructure:"backend"`
	Fallbacks []string `yaml:"fallbacks" mapstructure:"fallbacks"`

	MaxAttempts        int `yaml:"max_attempts" mapstructure:"max_attempts"`
	AttemptTimeoutSecs int `yaml:"attempt_timeout_secs" mapstructure:"attempt_timeout_secs"`
	OverallTimeoutSecs int `yaml:"overall_timeout_secs" mapstructure:"overall_timeout_secs"`

	// SpamThreshold is the exclusive cutoff on the -100..100 scale; a
	// message is spam only when score > threshold.
	SpamThreshold int `yaml:"spam_threshold" mapstructure:"spam_threshold"`

	// MaxExamples bounds the few-shot examples per prompt;
	// ExampleBudgetChars bounds their total serialized size.
	MaxExamples        int `yaml:"max_examples" mapstructure:"max_examples"`
	ExampleBudgetChars int `yaml:"example_budget_chars" mapstructure:"example_budget_chars"`
}

// CollectConfig configures context collection.
type CollectConfig struct {
	// TimeoutSecs is the per-collector timeout; expiry degrades that one
	// signal to FAILED without affecting the others.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AlertsConfig configures admin alert dedup and throttling. WebhookURL,
// when set, receives operational alerts (unscored messages, permission
// problems) as JSON.
type AlertsConfig struct {
	DedupWindowSecs int    `yaml:"dedup_window_secs" mapstructure:"dedup_window_secs"`
	RatePerMinute   int    `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	WebhookURL      string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// ServerConfig configures the webhook server.
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

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MODBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("classifier.backend", "anthropic")
	v.SetDefault("classifier.fallbacks", []string{"openai"})
	v.SetDefault("classifier.max_attempts", 3)
	v.SetDefault("classifier.attempt_timeout_secs", 20)
	v.SetDefault("classifier.overall_timeout_secs", 90)
	v.SetDefault("classifier.spam_threshold", 50)
	v.SetDefault("classifier.max_examples", 20)
	v.SetDefault("classifier.example_budget_chars", 24000)
	v.SetDefault("collect.timeout_secs", 5)
	v.SetDefault("alerts.dedup_window_secs", 30)
	v.SetDefault("alerts.rate_per_minute", 10)

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

// Redacted returns a copy with secrets blanked, for `config show`.
func (c Config) Redacted() Config {
	out := c
	if out.Anthropic.Key != "" {
		out.Anthropic.Key = "***"
	}
	if out.OpenAI.Key != "" {
		out.OpenAI.Key = "***"
	}
	if out.Bridge.Key != "" {
		out.Bridge.Key = "***"
	}
	if out.Chat.Token != "" {
		out.Chat.Token = "***"
	}
	if out.Store.DatabaseURL != "" {
		out.Store.DatabaseURL = "***"
	}
	return out
}
