package config

import (
	"github.com/spf13/viper"
)

// loadedConfig stores the loaded configuration for reuse by commands.
var loadedConfig *Config

// Config holds the runtime settings of the silva process.
type Config struct {
	// HomeDir is the directory holding workflow folders (SILVA_HOME_DIR).
	HomeDir string
	// Debug enables verbose logging.
	Debug bool
	// LogBufferSize is the per-job log ring capacity.
	LogBufferSize int
	// EventBufferSize is the engine event channel capacity.
	EventBufferSize int
}

// Load reads the configuration from the environment with defaults applied.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SILVA")
	v.AutomaticEnv()

	v.SetDefault("home_dir", "./home")
	v.SetDefault("debug", false)
	v.SetDefault("log_buffer_size", 10000)
	v.SetDefault("event_buffer_size", 32)

	cfg := &Config{
		HomeDir:         v.GetString("home_dir"),
		Debug:           v.GetBool("debug"),
		LogBufferSize:   v.GetInt("log_buffer_size"),
		EventBufferSize: v.GetInt("event_buffer_size"),
	}

	loadedConfig = cfg
	return cfg, nil
}

// Get returns the previously loaded configuration, loading it if needed.
func Get() *Config {
	if loadedConfig == nil {
		cfg, _ := Load()
		return cfg
	}
	return loadedConfig
}
