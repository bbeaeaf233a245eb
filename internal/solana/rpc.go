package solana

import "context"

// RPCClient defines the Solana RPC HTTP calls the service makes: balances
// and account owners for wallets, and the slot for status reports.
type RPCClient interface {
	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (*Balance, error)

	// GetAccountInfo retrieves account info, nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}
