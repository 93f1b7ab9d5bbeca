package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for a stackweaver session.
// Values are populated from .stackweaver.yaml, STACKWEAVER_* env vars, and
// CLI flags.
type Config struct {
	GeneratorPath       string  `mapstructure:"generator_path"`
	Model               string  `mapstructure:"model"`
	MaxBudgetUSD        float64 `mapstructure:"max_budget_usd"`
	WorkDir             string  `mapstructure:"work_dir"`
	MaxTokensPerPhase   int     `mapstructure:"max_tokens_per_phase"`
	MaxFeaturesPerPhase int     `mapstructure:"max_features_per_phase"`
	MaxRestorePoints    int     `mapstructure:"max_restore_points"`
	RestoreFile         string  `mapstructure:"restore_file"`
	LedgerFile          string  `mapstructure:"ledger_file"`
	TelemetryFile       string  `mapstructure:"telemetry_file"`
	Verbose             bool    `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("generator_path", "claude")
	viper.SetDefault("model", "")
	viper.SetDefault("max_budget_usd", 5.0)
	viper.SetDefault("work_dir", ".")
	viper.SetDefault("max_tokens_per_phase", 12000)
	viper.SetDefault("max_features_per_phase", 4)
	viper.SetDefault("max_restore_points", 10)
	viper.SetDefault("restore_file", ".stackweaver.restore.json")
	viper.SetDefault("ledger_file", ".stackweaver.ledger.db")
	viper.SetDefault("telemetry_file", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
