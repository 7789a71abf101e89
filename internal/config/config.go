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
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Editor   EditorConfig   `yaml:"editor" mapstructure:"editor"`
	Journal  JournalConfig  `yaml:"journal" mapstructure:"journal"`
	Geounits GeounitsConfig `yaml:"geounits" mapstructure:"geounits"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// APIConfig holds districtmapping server settings.
type APIConfig struct {
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	Plan            string  `yaml:"plan" mapstructure:"plan"`
	CSRFToken       string  `yaml:"csrf_token" mapstructure:"csrf_token"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
}

// EditorConfig configures the interactive editing session.
type EditorConfig struct {
	FeatureLimit   int `yaml:"feature_limit" mapstructure:"feature_limit"`
	InitialVersion int `yaml:"initial_version" mapstructure:"initial_version"`
	TooltipSecs    int `yaml:"tooltip_secs" mapstructure:"tooltip_secs"`
	ClickDelayMs   int `yaml:"click_delay_ms" mapstructure:"click_delay_ms"`
}

// JournalConfig configures the edit journal backend.
type JournalConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ShapefileConfig names one shapefile to index at a geolevel.
type ShapefileConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Geolevel  int    `yaml:"geolevel" mapstructure:"geolevel"`
	IDField   string `yaml:"id_field" mapstructure:"id_field"`
	NameField string `yaml:"name_field" mapstructure:"name_field"`
}

// GeounitsConfig configures the local geounit index.
type GeounitsConfig struct {
	TempDir    string            `yaml:"temp_dir" mapstructure:"temp_dir"`
	UserAgent  string            `yaml:"user_agent" mapstructure:"user_agent"`
	Shapefiles []ShapefileConfig `yaml:"shapefiles" mapstructure:"shapefiles"`
}

// ServerConfig configures the session bridge server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("DISTRICTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_limit_per_sec", 5)
	v.SetDefault("editor.feature_limit", 1000)
	v.SetDefault("editor.tooltip_secs", 5)
	v.SetDefault("editor.click_delay_ms", 200)
	v.SetDefault("journal.driver", "sqlite")
	v.SetDefault("journal.database_url", "districting.db")
	v.SetDefault("geounits.temp_dir", "/tmp/districting")
	v.SetDefault("geounits.user_agent", "districting-cli")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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

// Validate checks the settings a session cannot start without.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return eris.New("config: api.base_url is required")
	}
	if c.API.Plan == "" {
		return eris.New("config: api.plan is required")
	}
	switch c.Journal.Driver {
	case "sqlite", "postgres", "none":
	default:
		return eris.Errorf("config: unknown journal driver %q", c.Journal.Driver)
	}
	return nil
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
