// Package config loads actorhostd's configuration from a config file and
// environment variables via viper, the way
// webitel-im-delivery-service binds its own service config.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is actorhostd's runtime configuration.
type Config struct {
	// BindAddr is the HTTP gateway's listen address (e.g. ":8080").
	BindAddr string `mapstructure:"bind_addr"`
	// ModuleDir is the directory containing the fixed bootstrap actors'
	// compiled .wasm files, named <actor-name>.wasm (spec §4.6).
	ModuleDir string `mapstructure:"module_dir"`
	// LogLevel is one of zap's level names (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`
	// Watch enables an fsnotify watch on ModuleDir during local development.
	// serve only logs each changed module; running actors are not reloaded.
	Watch bool `mapstructure:"watch"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		BindAddr:  ":8080",
		ModuleDir: "./modules",
		LogLevel:  "info",
		Watch:     false,
	}
}

// Load reads configuration from (in decreasing precedence)
// ACTORHOSTD_-prefixed environment variables, an optional config file, and
// defaults.
func Load(configPath string) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("bind_addr", def.BindAddr)
	v.SetDefault("module_dir", def.ModuleDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("watch", def.Watch)

	v.SetEnvPrefix("actorhostd")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %q: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
