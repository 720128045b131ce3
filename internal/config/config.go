package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"economy-fund/internal/funding"
	"economy-fund/internal/logging"
	"economy-fund/internal/storage"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Funding   funding.Config  `mapstructure:"funding"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig = storage.DatabaseConfig

// SchedulerConfig governs the monthly settlement run in service mode.
type SchedulerConfig struct {
	RunDay          int           `mapstructure:"run_day"`
	RunHour         int           `mapstructure:"run_hour"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ECOFUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ecofund")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.run_day", 1)
	v.SetDefault("scheduler.run_hour", 2)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x65636f66))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("funding.base_amount", int64(100000))
	v.SetDefault("funding.rank_bonus_enabled", true)
	v.SetDefault("funding.rank_bonus_pool", int64(1000000))
	v.SetDefault("funding.performance_bonus_enabled", true)
	v.SetDefault("funding.performance_bonus_pool", int64(1000000))

	v.SetDefault("export.output_dir", "exports")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.RunDay < 1 || c.Scheduler.RunDay > 28 {
		return fmt.Errorf("scheduler.run_day must be between 1 and 28")
	}
	if c.Scheduler.RunHour < 0 || c.Scheduler.RunHour > 23 {
		return fmt.Errorf("scheduler.run_hour must be between 0 and 23")
	}
	if err := c.Funding.Validate(); err != nil {
		return err
	}
	return nil
}
