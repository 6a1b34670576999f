package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auctiond.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
issuance_url: "http://localhost:9001"
payout_url: "http://localhost:9002"
currency: "usdc"
drain_duration: 10s
postgres:
  host: localhost
  port: 5432
  user: auction
  database: auctions
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:9001", cfg.IssuanceURL)
	assert.Equal(t, "usdc", cfg.Currency)
	assert.Equal(t, 10*time.Second, cfg.DrainDuration.Std())
	require.NotNil(t, cfg.Postgres)
	assert.Equal(t, "localhost", cfg.Postgres.Host)

	// Defaults survive partial configs.
	assert.Equal(t, 30*time.Second, cfg.GracefulShutdownDuration.Std())

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())

	cfg.IssuanceURL = "http://localhost:9001"
	require.Error(t, cfg.Validate())

	cfg.PayoutURL = "http://localhost:9002"
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
