// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fd1az/gas-genie/internal/apperror"
)

// Gas source names.
const (
	SourceEtherscan = "etherscan"
	SourceRPC       = "rpc"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Gas       GasConfig       `mapstructure:"gas"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GasConfig selects and configures the gas price source.
type GasConfig struct {
	Source            string        `mapstructure:"source"` // etherscan | rpc
	EtherscanURL      string        `mapstructure:"etherscan_url"`
	EtherscanAPIKey   string        `mapstructure:"etherscan_api_key"`
	RPCURL            string        `mapstructure:"rpc_url"`
	FeeHistoryBlocks  uint64        `mapstructure:"fee_history_blocks"`
	HistoryCapacity   int           `mapstructure:"history_capacity"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// LLMConfig holds the hosted model settings.
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("GG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "GG_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "GG_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "GG_LOG_LEVEL", "LOG_LEVEL")

	// Server
	v.BindEnv("server.port", "GG_PORT", "PORT")

	// Gas
	v.BindEnv("gas.source", "GG_GAS_SOURCE")
	v.BindEnv("gas.etherscan_api_key", "GG_ETHERSCAN_API_KEY", "ETHERSCAN_API_KEY")
	v.BindEnv("gas.rpc_url", "GG_RPC_URL", "ETH_HTTP_URL")

	// LLM
	v.BindEnv("llm.api_key", "GG_LLM_API_KEY", "FIREWORKS_API_KEY")
	v.BindEnv("llm.model", "GG_LLM_MODEL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "GG_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "GG_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_provider", "GG_TRACE_PROVIDER")
	v.BindEnv("telemetry.otlp_endpoint", "GG_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "GG_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "gas-genie")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	// Gas defaults
	v.SetDefault("gas.source", SourceEtherscan)
	v.SetDefault("gas.etherscan_url", "https://api.etherscan.io/api")
	v.SetDefault("gas.fee_history_blocks", 20)
	v.SetDefault("gas.history_capacity", 100)
	v.SetDefault("gas.requests_per_second", 5)
	v.SetDefault("gas.timeout", "10s")

	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.fireworks.ai/inference/v1")
	v.SetDefault("llm.model", "accounts/fireworks/models/deepseek-v3")
	v.SetDefault("llm.timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "gas-genie")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:9411/api/v2/spans")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate reports missing credentials and invalid settings as a
// CONFIGURATION_ERROR.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return configError("llm.api_key is required (FIREWORKS_API_KEY)")
	}

	switch c.Gas.Source {
	case SourceEtherscan:
		if c.Gas.EtherscanAPIKey == "" {
			return configError("gas.etherscan_api_key is required (ETHERSCAN_API_KEY)")
		}
	case SourceRPC:
		if c.Gas.RPCURL == "" {
			return configError("gas.rpc_url is required when gas.source is rpc")
		}
	default:
		return configError(fmt.Sprintf("unknown gas.source %q", c.Gas.Source))
	}

	if c.Gas.HistoryCapacity <= 0 {
		return configError("gas.history_capacity must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return configError(fmt.Sprintf("invalid server.port: %d", c.Server.Port))
	}
	return nil
}

func configError(context string) error {
	return apperror.New(apperror.CodeConfigurationError, apperror.WithContext(context))
}
