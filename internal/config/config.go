// Package config loads service settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"mlm-landing/internal/solana"
)

// Config holds all service configuration.
type Config struct {
	Server struct {
		Addr             string        `yaml:"addr"`
		LivePushInterval time.Duration `yaml:"live_push_interval"`
		ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Solana struct {
		Network      string `yaml:"network"`
		RPCEndpoint  string `yaml:"rpc_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
		Commitment   string `yaml:"commitment"`
		MaxRetries   int    `yaml:"max_retries"`
		WatchBalance bool   `yaml:"watch_balance"`
	} `yaml:"solana"`
	Session struct {
		TTL           time.Duration `yaml:"ttl"`
		SweepInterval time.Duration `yaml:"sweep_interval"`
	} `yaml:"session"`
	Staking struct {
		ActionDelay     time.Duration `yaml:"action_delay"`
		RewardInterval  time.Duration `yaml:"reward_interval"`
		RewardIncrement string        `yaml:"reward_increment"`
	} `yaml:"staking"`
	Landing struct {
		CountdownWindow time.Duration `yaml:"countdown_window"`
	} `yaml:"landing"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Zero is a valid delay, so its default is set before decoding.
	cfg.Staking.ActionDelay = time.Second

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SOLANA_NETWORK"); v != "" {
		cfg.Solana.Network = v
	}
	if v := os.Getenv("SOLANA_RPC_ENDPOINT"); v != "" {
		cfg.Solana.RPCEndpoint = v
	}
	if v := os.Getenv("SOLANA_WS_ENDPOINT"); v != "" {
		cfg.Solana.WSEndpoint = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
		}
		cfg.Session.TTL = ttl
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.LivePushInterval == 0 {
		c.Server.LivePushInterval = 250 * time.Millisecond
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Solana.Network == "" {
		c.Solana.Network = string(solana.Devnet)
	}
	if c.Solana.Commitment == "" {
		c.Solana.Commitment = solana.CommitmentConfirmed
	}
	if c.Solana.MaxRetries == 0 {
		c.Solana.MaxRetries = 3
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 30 * time.Minute
	}
	if c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = time.Minute
	}
	if c.Staking.RewardInterval == 0 {
		c.Staking.RewardInterval = 5 * time.Second
	}
	if c.Staking.RewardIncrement == "" {
		c.Staking.RewardIncrement = "0.001"
	}
	if c.Landing.CountdownWindow == 0 {
		c.Landing.CountdownWindow = 15 * 24 * time.Hour
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if _, err := solana.ParseNetwork(c.Solana.Network); err != nil {
		return fmt.Errorf("solana.network: %w", err)
	}
	switch c.Solana.Commitment {
	case solana.CommitmentProcessed, solana.CommitmentConfirmed, solana.CommitmentFinalized:
	default:
		return fmt.Errorf("solana.commitment %q is not a commitment level", c.Solana.Commitment)
	}
	if c.Solana.MaxRetries < 0 {
		return fmt.Errorf("solana.max_retries must not be negative")
	}
	if c.Server.LivePushInterval <= 0 {
		return fmt.Errorf("server.live_push_interval must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Session.SweepInterval < time.Second {
		return fmt.Errorf("session.sweep_interval must be at least 1s")
	}
	if c.Staking.ActionDelay < 0 {
		return fmt.Errorf("staking.action_delay must not be negative")
	}
	if c.Staking.RewardInterval <= 0 {
		return fmt.Errorf("staking.reward_interval must be positive")
	}
	if _, err := decimal.NewFromString(c.Staking.RewardIncrement); err != nil {
		return fmt.Errorf("staking.reward_increment: %w", err)
	}
	if c.Landing.CountdownWindow <= 0 {
		return fmt.Errorf("landing.countdown_window must be positive")
	}
	return nil
}

// Network returns the configured cluster. Call after Validate.
func (c *Config) Network() solana.Network {
	n, err := solana.ParseNetwork(c.Solana.Network)
	if err != nil {
		return solana.Devnet
	}
	return n
}

// RPCEndpoint returns the explicit endpoint or the cluster's public one.
func (c *Config) RPCEndpoint() string {
	if c.Solana.RPCEndpoint != "" {
		return c.Solana.RPCEndpoint
	}
	return solana.ClusterURL(c.Network())
}

// WSEndpoint returns the explicit WebSocket endpoint, or one derived from
// the RPC endpoint.
func (c *Config) WSEndpoint() string {
	if c.Solana.WSEndpoint != "" {
		return c.Solana.WSEndpoint
	}
	if c.Solana.RPCEndpoint != "" {
		return solana.WSURLFromHTTP(c.Solana.RPCEndpoint)
	}
	return solana.ClusterWSURL(c.Network())
}

// RewardIncrement returns the parsed accrual increment. Call after Validate.
func (c *Config) RewardIncrement() decimal.Decimal {
	d, err := decimal.NewFromString(c.Staking.RewardIncrement)
	if err != nil {
		return decimal.Zero
	}
	return d
}
