// Package config loads and validates the daemon configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/fash-ns/arandao-go/emission"
	"github.com/fash-ns/arandao-go/engine"
)

// Config holds every tunable of the daemon: file locations, the HTTP
// surface, operator addresses and the settlement/emission parameters.
type Config struct {
	DataDir    string `mapstructure:"data_dir"`
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`
	LogFile    string `mapstructure:"log_file"` // empty means stderr

	// Genesis is the deployment unix time anchoring the bonus early
	// window and the migration window. 0 means first startup time.
	Genesis int64 `mapstructure:"genesis"`

	// BonusMonthlyPool is the monthly bonus pool in micro-units, used by
	// the in-process pool when no external collaborator is wired.
	BonusMonthlyPool uint64 `mapstructure:"bonus_monthly_pool"`

	AdminAddrs    []string `mapstructure:"admin_addresses"`
	MigratorAddrs []string `mapstructure:"migrator_addresses"`

	Params   engine.Params   `mapstructure:"params"`
	Emission emission.Config `mapstructure:"emission"`
}

// DefaultConfig returns the built-in defaults. The data directory lives
// under the user's home directory.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:          filepath.Join(home, ".arandao"),
		ListenAddr:       ":8080",
		LogLevel:         "info",
		BonusMonthlyPool: 1_000 * 1_000_000,
		Params:           engine.DefaultParams(),
		Emission:         emission.DefaultConfig(),
	}
}

// Load reads the configuration file at path, layered over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, ValidateConfig(cfg)
	}

	if _, err := os.Stat(path); err != nil {
		return Config{}, ErrConfigNotFound
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DBPath returns the bbolt database location under the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "arandao.db")
}
