// Package vconfig loads Decoder construction options from file/env/default
// layers via viper, the same precedence chain and BindEnv-per-field style
// as the customer-service config package, then checks the result with
// go-playground/validator instead of the teacher's hand-rolled
// validateConfig checks.
package vconfig

import (
	"fmt"
	"time"

	validatorpkg "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is every knob the decoder's construction takes from the outside
// world: which catalog backend to use, how long a single decode may run,
// and the ambient logging/metrics settings.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Decode  DecodeConfig  `mapstructure:"decode"`
	Log     LogConfig     `mapstructure:"log"`
}

// CatalogConfig selects and configures the Store backend.
type CatalogConfig struct {
	Backend         string `mapstructure:"backend" validate:"oneof=memory postgres"`
	BasePath        string `mapstructure:"basepath" validate:"required_if=Backend memory"`
	OverlayPaths    []string `mapstructure:"overlaypaths"`
	DatabaseURL     string `mapstructure:"databaseurl" validate:"required_if=Backend postgres"`
	MaxOpenConns    int    `mapstructure:"maxopenconns" validate:"gte=0"`
	MaxIdleConns    int    `mapstructure:"maxidleconns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"connmaxlifetime"`
}

// DecodeConfig tunes how a single Decode call behaves.
type DecodeConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	FutureYearGuard  int           `mapstructure:"futureyearguard" validate:"gte=0"`
	IncludePatterns  bool          `mapstructure:"includepatterns"`
	PreferOfficial   bool          `mapstructure:"preferofficial"`
}

// LogConfig matches the teacher's LogConfig shape.
type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	PrettyPrint bool   `mapstructure:"prettyprint"`
}

// Load reads configPath (a directory containing a "vindecoder.yaml", or ""
// to skip file lookup), overlays VINDECODER_-prefixed environment
// variables, fills in defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.AddConfigPath(configPath)
		v.SetConfigName("vindecoder")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("VINDECODER")
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("vconfig: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("vconfig: unmarshal config: %w", err)
	}

	if err := validatorpkg.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("vconfig: invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("catalog.backend", "VINDECODER_CATALOG_BACKEND")
	v.BindEnv("catalog.basepath", "VINDECODER_CATALOG_BASE_PATH")
	v.BindEnv("catalog.databaseurl", "VINDECODER_CATALOG_DATABASE_URL")
	v.BindEnv("catalog.maxopenconns", "VINDECODER_CATALOG_MAX_OPEN_CONNS")
	v.BindEnv("catalog.maxidleconns", "VINDECODER_CATALOG_MAX_IDLE_CONNS")

	v.BindEnv("decode.timeout", "VINDECODER_DECODE_TIMEOUT")
	v.BindEnv("decode.futureyearguard", "VINDECODER_DECODE_FUTURE_YEAR_GUARD")
	v.BindEnv("decode.includepatterns", "VINDECODER_DECODE_INCLUDE_PATTERNS")
	v.BindEnv("decode.preferofficial", "VINDECODER_DECODE_PREFER_OFFICIAL")

	v.BindEnv("log.level", "VINDECODER_LOG_LEVEL")
	v.BindEnv("log.prettyprint", "VINDECODER_LOG_PRETTY_PRINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.backend", "memory")
	v.SetDefault("catalog.maxopenconns", 25)
	v.SetDefault("catalog.maxidleconns", 5)
	v.SetDefault("catalog.connmaxlifetime", 5*time.Minute)

	v.SetDefault("decode.timeout", 2*time.Second)
	v.SetDefault("decode.futureyearguard", time.Now().Year()+2)
	v.SetDefault("decode.includepatterns", false)
	v.SetDefault("decode.preferofficial", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.prettyprint", false)
}
