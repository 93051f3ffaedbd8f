package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults with credentials from env", func(t *testing.T) {
		t.Setenv("SUPABASE_URL", "https://example.supabase.co")
		t.Setenv("SUPABASE_KEY", "anon-key")

		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, BackendSupabase, cfg.Store.Backend)
		assert.Equal(t, "https://example.supabase.co", cfg.Store.URL)
		assert.Equal(t, "anon-key", cfg.Store.Key)
		assert.Equal(t, 3, cfg.Store.MaxRetries)
		assert.Equal(t, time.Second, cfg.Store.RetryWait)
		assert.Equal(t, 1_000_000.0, cfg.Portfolio.StartingCash)
		assert.Equal(t, 10, cfg.Portfolio.MaxHoldings)
		assert.Equal(t, "USD", cfg.Portfolio.Currency)
		assert.True(t, cfg.Portfolio.RecordTrades)
		assert.Equal(t, 8080, cfg.Server.Port)
	})

	t.Run("Missing credentials", func(t *testing.T) {
		t.Setenv("SUPABASE_URL", "")
		t.Setenv("SUPABASE_KEY", "")

		_, err := LoadConfig(t.TempDir())
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("Config file with env override", func(t *testing.T) {
		dir := t.TempDir()
		yml := `
store:
  backend: sqlite
  dsn: test.db
  retry_wait: 250ms
portfolio:
  starting_cash: 5000
  max_holdings: 3
server:
  port: 9000
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o644))
		t.Setenv("SERVER_PORT", "9100")

		cfg, err := LoadConfig(dir)
		require.NoError(t, err)

		assert.Equal(t, BackendSQLite, cfg.Store.Backend)
		assert.Equal(t, "test.db", cfg.Store.DSN)
		assert.Equal(t, 250*time.Millisecond, cfg.Store.RetryWait)
		assert.Equal(t, 5000.0, cfg.Portfolio.StartingCash)
		assert.Equal(t, 3, cfg.Portfolio.MaxHoldings)
		assert.Equal(t, 9100, cfg.Server.Port)
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		Store:     Store{Backend: BackendSQLite, DSN: "x.db"},
		Portfolio: Portfolio{StartingCash: 100, MaxHoldings: 10},
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid sqlite", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "mongo" }, wantErr: true},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Store.DSN = "" }, wantErr: true},
		{name: "zero max holdings", mutate: func(c *Config) { c.Portfolio.MaxHoldings = 0 }, wantErr: true},
		{name: "negative cash", mutate: func(c *Config) { c.Portfolio.StartingCash = -1 }, wantErr: true},
		{
			name: "supabase with credentials",
			mutate: func(c *Config) {
				c.Store = Store{Backend: BackendSupabase, URL: "https://x", Key: "k"}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
