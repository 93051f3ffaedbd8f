package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported store backends.
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// ErrMissingCredentials is returned when the Supabase backend is selected
// without both connection parameters.
var ErrMissingCredentials = errors.New("SUPABASE_URL and SUPABASE_KEY must be set")

// Config holds all configuration for the application.
type Config struct {
	Store     Store     `mapstructure:"store"`
	Portfolio Portfolio `mapstructure:"portfolio"`
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
}

// Store holds the configuration for the backing store.
type Store struct {
	Backend        string        `mapstructure:"backend"`
	URL            string        `mapstructure:"url"`
	Key            string        `mapstructure:"key"`
	DSN            string        `mapstructure:"dsn"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryWait      time.Duration `mapstructure:"retry_wait"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Portfolio holds the accounting limits.
type Portfolio struct {
	StartingCash float64 `mapstructure:"starting_cash"`
	MaxHoldings  int     `mapstructure:"max_holdings"`
	Currency     string  `mapstructure:"currency"`
	RecordTrades bool    `mapstructure:"record_trades"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from an optional config.yml in path, a .env
// file in the working directory and environment variables.
func LoadConfig(path string) (config Config, err error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// The deployment names for the remote store credentials.
	if err = v.BindEnv("store.url", "SUPABASE_URL", "STORE_URL"); err != nil {
		return
	}
	if err = v.BindEnv("store.key", "SUPABASE_KEY", "STORE_KEY"); err != nil {
		return
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	err = config.Validate()
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", BackendSupabase)
	v.SetDefault("store.dsn", "portfolio.db")
	v.SetDefault("store.rate_limit", 10)      // requests per second
	v.SetDefault("store.rate_limit_burst", 5) // burst size
	v.SetDefault("store.max_retries", 3)
	v.SetDefault("store.retry_wait", time.Second)
	v.SetDefault("store.timeout", 10*time.Second)

	v.SetDefault("portfolio.starting_cash", 1_000_000)
	v.SetDefault("portfolio.max_holdings", 10)
	v.SetDefault("portfolio.currency", "USD")
	v.SetDefault("portfolio.record_trades", true)

	v.SetDefault("server.port", 8080)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}

// Validate checks that the selected backend has what it needs to connect.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendSupabase:
		if c.Store.URL == "" || c.Store.Key == "" {
			return ErrMissingCredentials
		}
	case BackendSQLite:
		if c.Store.DSN == "" {
			return errors.New("store.dsn must be set for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Portfolio.MaxHoldings <= 0 {
		return fmt.Errorf("portfolio.max_holdings must be positive, got %d", c.Portfolio.MaxHoldings)
	}
	if c.Portfolio.StartingCash < 0 {
		return fmt.Errorf("portfolio.starting_cash must not be negative, got %v", c.Portfolio.StartingCash)
	}
	return nil
}
