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
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Selector SelectorConfig `yaml:"selector" mapstructure:"selector"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig points at the input dataset and output locations.
type DataConfig struct {
	InputDir    string `yaml:"input_dir" mapstructure:"input_dir"`
	CentersPath string `yaml:"centers_path" mapstructure:"centers_path"`
	OutputPath  string `yaml:"output_path" mapstructure:"output_path"`
	Category    string `yaml:"category" mapstructure:"category"`
	Delimiter   string `yaml:"delimiter" mapstructure:"delimiter"`
}

// GeocodeConfig configures the Nominatim client and its cache.
type GeocodeConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	Country     string  `yaml:"country" mapstructure:"country"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	CacheDriver string  `yaml:"cache_driver" mapstructure:"cache_driver"`
	CachePath   string  `yaml:"cache_path" mapstructure:"cache_path"`
}

// SelectorConfig holds the weighted-assignment parameters. The values are
// empirical; they are configurable rather than hard-coded so they can be
// tuned against fresh datasets.
type SelectorConfig struct {
	MaxDistanceKM float64 `yaml:"max_distance_km" mapstructure:"max_distance_km"`
	OffsetKM      float64 `yaml:"offset_km" mapstructure:"offset_km"`
	Exponent      float64 `yaml:"exponent" mapstructure:"exponent"`
	MaxCandidates int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// ServerConfig configures the stats API server.
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
	v.SetEnvPrefix("NSWTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.input_dir", "temp")
	v.SetDefault("data.centers_path", "data/centers.json")
	v.SetDefault("data.output_path", "test_centers_with_stats.json")
	v.SetDefault("data.category", "C Class Driving Test")
	v.SetDefault("data.delimiter", "|")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "NSW Drivers Test Nearest Date - teegee567/1.0")
	v.SetDefault("geocode.country", "au")
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.concurrency", 1)
	v.SetDefault("geocode.cache_driver", "file")
	v.SetDefault("geocode.cache_path", "geocoding_cache.json")
	v.SetDefault("selector.max_distance_km", 50.0)
	v.SetDefault("selector.offset_km", 0.5)
	v.SetDefault("selector.exponent", 2.0)
	v.SetDefault("selector.max_candidates", 3)
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
