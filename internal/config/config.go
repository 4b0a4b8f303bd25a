package config

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Regions   RegionsConfig   `yaml:"regions" mapstructure:"regions"`
	Route     RouteConfig     `yaml:"route" mapstructure:"route"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the incident exports for each reporting period.
type DataConfig struct {
	// Sources maps a period to a path or URL. It wins over URLTemplate.
	Sources map[string]string `yaml:"sources" mapstructure:"sources"`
	// URLTemplate is expanded by replacing {period}.
	URLTemplate string   `yaml:"url_template" mapstructure:"url_template"`
	Periods     []string `yaml:"periods" mapstructure:"periods"`
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"`
	TempDir     string   `yaml:"temp_dir" mapstructure:"temp_dir"`
	// UTMZone and UTMSouth describe the projection of the X/Y columns.
	UTMZone  int  `yaml:"utm_zone" mapstructure:"utm_zone"`
	UTMSouth bool `yaml:"utm_south" mapstructure:"utm_south"`
}

// RegionsConfig selects the region table. An empty path uses the built-in
// Vancouver neighbourhoods.
type RegionsConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	NameField string `yaml:"name_field" mapstructure:"name_field"`
}

// RouteConfig tunes route scoring.
type RouteConfig struct {
	Samples              int     `yaml:"samples" mapstructure:"samples"`
	AlternativeThreshold int     `yaml:"alternative_threshold" mapstructure:"alternative_threshold"`
	DetourOffset         float64 `yaml:"detour_offset" mapstructure:"detour_offset"`
}

// HTTPConfig configures outbound downloads.
type HTTPConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerHost float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      int      `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AnthropicConfig holds Anthropic API settings for the analysis commands.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
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

	v.SetEnvPrefix("SAFEROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.url_template", "")
	v.SetDefault("data.concurrency", 4)
	v.SetDefault("data.temp_dir", "")
	v.SetDefault("data.utm_zone", 10)
	v.SetDefault("data.utm_south", false)
	v.SetDefault("regions.path", "")
	v.SetDefault("regions.name_field", "name")
	v.SetDefault("route.samples", 40)
	v.SetDefault("route.alternative_threshold", 100)
	v.SetDefault("route.detour_offset", 0.01)
	v.SetDefault("http.user_agent", "saferoute/1.0")
	v.SetDefault("http.timeout_secs", 60)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.rate_per_host", 5.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
	case "analyze":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case "load":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Data.Concurrency < 1 || c.Data.Concurrency > 32 {
		errs = append(errs, "data.concurrency must be between 1 and 32")
	}
	if c.Data.UTMZone < 0 || c.Data.UTMZone > 60 {
		errs = append(errs, "data.utm_zone must be between 0 and 60")
	}
	if c.Route.Samples < 1 {
		errs = append(errs, "route.samples must be >= 1")
	}
	if c.Route.AlternativeThreshold < 0 {
		errs = append(errs, "route.alternative_threshold must be >= 0")
	}
	if math.IsNaN(c.Route.DetourOffset) || math.IsInf(c.Route.DetourOffset, 0) {
		errs = append(errs, "route.detour_offset must be finite")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Source returns the location of the export for period, or "" if none is
// configured.
func (d DataConfig) Source(period string) string {
	if src, ok := d.Sources[period]; ok && src != "" {
		return src
	}
	if d.URLTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(d.URLTemplate, "{period}", period)
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
