package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlm-landing/internal/solana"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LISTEN_ADDR", "SOLANA_NETWORK", "SOLANA_RPC_ENDPOINT", "SOLANA_WS_ENDPOINT", "SESSION_TTL"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, solana.Devnet, cfg.Network())
	assert.Equal(t, "https://api.devnet.solana.com", cfg.RPCEndpoint())
	assert.Equal(t, "wss://api.devnet.solana.com", cfg.WSEndpoint())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Second, cfg.Staking.ActionDelay)
	assert.Equal(t, 5*time.Second, cfg.Staking.RewardInterval)
	assert.Equal(t, "0.001", cfg.RewardIncrement().String())
	assert.Equal(t, 15*24*time.Hour, cfg.Landing.CountdownWindow)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9000"
  live_push_interval: 1s
solana:
  network: testnet
  rpc_endpoint: http://localhost:8899
  watch_balance: true
session:
  ttl: 10m
staking:
  action_delay: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.Server.LivePushInterval)
	assert.Equal(t, solana.Testnet, cfg.Network())
	assert.Equal(t, "http://localhost:8899", cfg.RPCEndpoint())
	assert.Equal(t, "ws://localhost:8899", cfg.WSEndpoint())
	assert.True(t, cfg.Solana.WatchBalance)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Staking.ActionDelay)
}

func TestLoad_ZeroActionDelay(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "staking:\n  action_delay: 0s\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Zero(t, cfg.Staking.ActionDelay)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "solana:\n  network: testnet\n")
	t.Setenv("SOLANA_NETWORK", "mainnet-beta")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:7000")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SOLANA_WS_ENDPOINT", "wss://example.invalid")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, solana.MainnetBeta, cfg.Network())
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "wss://example.invalid", cfg.WSEndpoint())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeFile(t, "bad.yaml", "server: [unclosed"))
	assert.Error(t, err)

	t.Setenv("SESSION_TTL", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown network", func(c *Config) { c.Solana.Network = "localnet" }},
		{"bad commitment", func(c *Config) { c.Solana.Commitment = "max" }},
		{"negative ttl", func(c *Config) { c.Session.TTL = -time.Second }},
		{"fast sweep", func(c *Config) { c.Session.SweepInterval = 10 * time.Millisecond }},
		{"bad increment", func(c *Config) { c.Staking.RewardIncrement = "lots" }},
		{"negative delay", func(c *Config) { c.Staking.ActionDelay = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("MLM_TEST_EXISTING", "kept")
	t.Setenv("MLM_TEST_NEW", "")
	t.Setenv("MLM_TEST_QUOTED", "")
	path := writeFile(t, ".env", `
# comment
MLM_TEST_EXISTING=replaced
MLM_TEST_NEW = value
export MLM_TEST_QUOTED="quoted value"
not a pair
`)

	LoadEnvFile(path)

	assert.Equal(t, "kept", os.Getenv("MLM_TEST_EXISTING"))
	assert.Equal(t, "value", os.Getenv("MLM_TEST_NEW"))
	assert.Equal(t, "quoted value", os.Getenv("MLM_TEST_QUOTED"))
}
