package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables the loader reads, so
// TASKFLOW_DATABASE_URL populates database.url.
const envPrefix = "TASKFLOW"

// Load reads configuration from an optional config.yaml in the working
// directory and from TASKFLOW_-prefixed environment variables, with the
// environment taking precedence. Returns a validated Config or an error.
func Load() (*Config, error) {
	return load("")
}

// load is the file-parameterized body of Load, split out for tests.
func load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime_seconds", 300)
	v.SetDefault("storage.root", "./data/uploads")
	v.SetDefault("storage.base_url", "http://localhost:8080/uploads")

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		// The config file is optional; only a malformed one is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not surface nested keys that are absent from the
	// config file, so the critical ones are bound explicitly.
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"server.port", "TASKFLOW_SERVER_PORT"},
		{"server.log_level", "TASKFLOW_SERVER_LOG_LEVEL"},
		{"database.url", "TASKFLOW_DATABASE_URL"},
		{"storage.root", "TASKFLOW_STORAGE_ROOT"},
		{"storage.base_url", "TASKFLOW_STORAGE_BASE_URL"},
	}
	for _, b := range bindEnvs {
		if err := v.BindEnv(b.key, b.envVar); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
