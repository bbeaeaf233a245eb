package solana

import "context"

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeAccount streams lamport changes of one account.
	SubscribeAccount(ctx context.Context, pubkey string) (*AccountSubscription, error)

	// Unsubscribe cancels a subscription and closes its channel.
	Unsubscribe(id uint64) error

	// Close closes the WebSocket connection.
	Close() error
}

// AccountSubscription is a live accountSubscribe stream.
// ID is local to the client and survives reconnects.
type AccountSubscription struct {
	ID     uint64
	Pubkey string
	C      <-chan AccountNotification
}

// AccountNotification represents an accountNotification message.
type AccountNotification struct {
	Slot     int64
	Lamports uint64
	Owner    string
}
