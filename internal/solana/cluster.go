package solana

import (
	"fmt"
	"strings"
)

// Network names a public Solana cluster.
type Network string

const (
	Devnet      Network = "devnet"
	Testnet     Network = "testnet"
	MainnetBeta Network = "mainnet-beta"
)

// ParseNetwork resolves a cluster name, accepting a few common spellings.
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "devnet":
		return Devnet, nil
	case "testnet":
		return Testnet, nil
	case "mainnet", "mainnet-beta":
		return MainnetBeta, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNetwork, s)
}

// String returns the cluster name.
func (n Network) String() string {
	return string(n)
}

// Label is the human readable cluster name shown in the staking panel.
func (n Network) Label() string {
	switch n {
	case Testnet:
		return "Testnet"
	case MainnetBeta:
		return "Mainnet Beta"
	default:
		return "Devnet"
	}
}

// ClusterURL returns the public JSON-RPC endpoint of the cluster.
func ClusterURL(n Network) string {
	return "https://api." + string(n) + ".solana.com"
}

// ClusterWSURL returns the public WebSocket endpoint of the cluster.
func ClusterWSURL(n Network) string {
	return "wss://api." + string(n) + ".solana.com"
}

// WSURLFromHTTP derives a WebSocket endpoint from an HTTP RPC endpoint.
func WSURLFromHTTP(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}
