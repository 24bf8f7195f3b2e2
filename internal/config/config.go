// Package config holds runtime configuration for starmap commands.
package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for a starmap invocation.
// Values are populated from .starmap.yaml, STARMAP_* env vars, and CLI
// flags, in increasing order of precedence.
type Config struct {
	Catalog      string  `mapstructure:"catalog"`
	Output       string  `mapstructure:"output"`
	Width        int     `mapstructure:"width"`
	Height       int     `mapstructure:"height"`
	MinRA        float64 `mapstructure:"min_ra"`
	MaxRA        float64 `mapstructure:"max_ra"`
	MinDec       float64 `mapstructure:"min_dec"`
	MaxDec       float64 `mapstructure:"max_dec"`
	MaxMagnitude float64 `mapstructure:"max_magnitude"`
	CachePath    string  `mapstructure:"cache_path"`
	PresetFile   string  `mapstructure:"preset_file"`
	Telemetry    bool    `mapstructure:"telemetry"`
	Verbose      bool    `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. Defaults render
// the full sky down to magnitude 6 at 800x600.
func Load() Config {
	viper.SetDefault("catalog", "data/tycho2/catalog.dat")
	viper.SetDefault("output", "star_map.png")
	viper.SetDefault("width", 800)
	viper.SetDefault("height", 600)
	viper.SetDefault("min_ra", 0.0)
	viper.SetDefault("max_ra", 360.0)
	viper.SetDefault("min_dec", -90.0)
	viper.SetDefault("max_dec", 90.0)
	viper.SetDefault("max_magnitude", 6.0)
	viper.SetDefault("cache_path", ".starmap/stars.db")
	viper.SetDefault("preset_file", "starmap.toml")
	viper.SetDefault("telemetry", false)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
