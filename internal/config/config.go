// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"atm/internal/util"
	"atm/pkg/db" // Import db package for its Config struct
)

// EnvPrefix is prepended to every environment override, e.g. ATM_DATABASE_PATH.
const EnvPrefix = "ATM"

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	DB             db.Config
	Log            util.LogConfig
	HistoryLimit   int
	CurrencySymbol string
	UniquePIN      bool
}

// LoadConfig loads configuration from defaults, the optional configFile, a
// .env file in the working directory and ATM_ environment variables, in
// increasing order of precedence.
func LoadConfig(configFile string) (*AppConfig, error) {
	return load(".env", configFile)
}

func load(dotenvFile, configFile string) (*AppConfig, error) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotenvFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", configFile, err)
		}
	}

	cfg := &AppConfig{
		DB: db.Config{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   v.GetString("database.path"),
			DSN:    v.GetString("database.dsn"),
		},
		Log: util.LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
			Output: v.GetString("log.output"),
		},
		HistoryLimit:   v.GetInt("history.limit"),
		CurrencySymbol: v.GetString("terminal.currency_symbol"),
		UniquePIN:      v.GetBool("ledger.unique_pin"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", db.DriverSQLite)
	v.SetDefault("database.path", "atm.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "atm.log")
	v.SetDefault("history.limit", 100)
	v.SetDefault("terminal.currency_symbol", "₹")
	v.SetDefault("ledger.unique_pin", false)
}

// Validate reports the first setting that cannot be used.
func (c *AppConfig) Validate() error {
	switch c.DB.Driver {
	case db.DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case db.DriverPostgres:
		if c.DB.DSN == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.DB.Driver)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("unsupported log.format %q", c.Log.Format)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history.limit must be positive, got %d", c.HistoryLimit)
	}
	return nil
}
