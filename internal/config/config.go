package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration. It is loaded once at startup and
// passed explicitly into every component constructor; business logic never
// reads ambient configuration.
type Config struct {
	Port               int      `mapstructure:"port"`
	LogLevel           string   `mapstructure:"log_level"`
	LogPath            string   `mapstructure:"log_path"` // empty = stderr only
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"`

	// Reasoning engine (OpenAI-compatible chat completions endpoint).
	LLMBaseURL    string `mapstructure:"llm_base_url"`
	LLMAPIKey     string `mapstructure:"llm_api_key"`
	LLMModel      string `mapstructure:"llm_model"`
	LLMTimeoutSec int    `mapstructure:"llm_timeout_sec"`

	// Kubernetes access for the incident agent.
	KubeconfigPath     string  `mapstructure:"kubeconfig_path"`
	Namespace          string  `mapstructure:"namespace"`
	K8sTimeoutSec      int     `mapstructure:"k8s_timeout_sec"`
	K8sRateLimitPerSec float64 `mapstructure:"k8s_rate_limit_per_sec"` // 0 = no limit
	K8sRateLimitBurst  int     `mapstructure:"k8s_rate_limit_burst"`

	// Infrastructure agent defaults.
	AWSRegion string `mapstructure:"aws_region"`
}

// Load reads configuration from config.yaml (search path: /etc/opsforge,
// $HOME/.opsforge, cwd) with OPSFORGE_* environment overrides.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/opsforge/")
	viper.AddConfigPath("$HOME/.opsforge")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_path", "")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("llm_base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm_api_key", "")
	viper.SetDefault("llm_model", "gpt-4o")
	viper.SetDefault("llm_timeout_sec", 120)
	viper.SetDefault("kubeconfig_path", "")
	viper.SetDefault("namespace", "devops-ai")
	viper.SetDefault("k8s_timeout_sec", 30)
	viper.SetDefault("k8s_rate_limit_per_sec", 0) // 0 = disabled
	viper.SetDefault("k8s_rate_limit_burst", 0)
	viper.SetDefault("aws_region", "eu-north-1")

	// Environment variables
	viper.SetEnvPrefix("OPSFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
