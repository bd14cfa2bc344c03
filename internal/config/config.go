package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
	Fanout    FanoutConfig    `mapstructure:"fanout"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"omitempty,gt=0"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"omitempty,gt=0"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds" validate:"omitempty,gt=0"`
}

// StorageConfig contains settings for the uploaded-file store.
type StorageConfig struct {
	// Root is the directory uploaded files are written under.
	Root string `mapstructure:"root" validate:"required"`

	// BaseURL is the public URL prefix stored files are served from.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// FanoutConfig tunes the notification delivery pipeline.
type FanoutConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"omitempty,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"omitempty,gt=0"`
}

// SchedulerConfig tunes the background reconciliation loops. Intervals
// are in seconds; zero means the built-in default.
type SchedulerConfig struct {
	ReminderIntervalSeconds int `mapstructure:"reminder_interval_seconds" validate:"omitempty,gt=0"`
	ResetIntervalSeconds    int `mapstructure:"reset_interval_seconds"    validate:"omitempty,gt=0"`
	DueSoonWindowSeconds    int `mapstructure:"due_soon_window_seconds"   validate:"omitempty,gt=0"`
}

// ReminderInterval returns the configured reminder interval or zero when
// unset, letting the scheduler apply its default.
func (c SchedulerConfig) ReminderInterval() time.Duration {
	return time.Duration(c.ReminderIntervalSeconds) * time.Second
}

// ResetInterval returns the configured repeating-task reset interval.
func (c SchedulerConfig) ResetInterval() time.Duration {
	return time.Duration(c.ResetIntervalSeconds) * time.Second
}

// DueSoonWindow returns the configured due-soon lookahead window.
func (c SchedulerConfig) DueSoonWindow() time.Duration {
	return time.Duration(c.DueSoonWindowSeconds) * time.Second
}
