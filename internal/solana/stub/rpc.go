// Package stub provides in-memory Solana clients for tests and offline runs.
package stub

import (
	"context"
	"sync"
	"time"

	"mlm-landing/internal/solana"
)

// RPCClient implements solana.RPCClient from a map of balances.
type RPCClient struct {
	mu       sync.RWMutex
	Balances map[string]uint64
	Accounts map[string]*solana.AccountInfo
	Slot     int64
	Err      error         // returned by every call when set
	Latency  time.Duration // delay before GetBalance answers
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances: make(map[string]uint64),
		Accounts: make(map[string]*solana.AccountInfo),
	}
}

// SetBalance sets the lamport balance of an account.
func (c *RPCClient) SetBalance(pubkey string, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[pubkey] = lamports
}

// SetAccount stores account info for pubkey.
func (c *RPCClient) SetAccount(pubkey string, info solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = &info
}

// SetSlot sets the slot reported by every call.
func (c *RPCClient) SetSlot(slot int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Slot = slot
}

// SetError makes every call fail with err, or succeed again with nil.
func (c *RPCClient) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Err = err
}

// SetLatency delays every GetBalance answer by d.
func (c *RPCClient) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Latency = d
}

// GetBalance returns the stored balance, zero for unknown accounts as the cluster does.
func (c *RPCClient) GetBalance(ctx context.Context, pubkey string) (*solana.Balance, error) {
	c.mu.RLock()
	latency := c.Latency
	c.mu.RUnlock()
	if latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(latency):
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return &solana.Balance{Slot: c.Slot, Lamports: c.Balances[pubkey]}, nil
}

// GetAccountInfo returns the stored account. An account with only a balance
// reads as a system-owned wallet; one with neither does not exist.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Err != nil {
		return nil, c.Err
	}
	info, ok := c.Accounts[pubkey]
	if !ok {
		if lamports := c.Balances[pubkey]; lamports > 0 {
			return &solana.AccountInfo{Lamports: lamports, Owner: solana.SystemProgramID}, nil
		}
		return nil, nil
	}
	infoCopy := *info
	return &infoCopy, nil
}

// GetSlot returns the configured slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Slot, nil
}

// WSClient implements solana.WSClient with channels fed by Push.
type WSClient struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan solana.AccountNotification
	keys   map[uint64]string
	closed bool
}

// NewWSClient creates a stub subscription client.
func NewWSClient() *WSClient {
	return &WSClient{
		subs: make(map[uint64]chan solana.AccountNotification),
		keys: make(map[uint64]string),
	}
}

// SubscribeAccount registers a subscription for pubkey.
func (c *WSClient) SubscribeAccount(_ context.Context, pubkey string) (*solana.AccountSubscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, solana.ErrClientClosed
	}
	c.nextID++
	ch := make(chan solana.AccountNotification, 16)
	c.subs[c.nextID] = ch
	c.keys[c.nextID] = pubkey
	return &solana.AccountSubscription{ID: c.nextID, Pubkey: pubkey, C: ch}, nil
}

// Unsubscribe closes a subscription.
func (c *WSClient) Unsubscribe(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.subs[id]; ok {
		close(ch)
		delete(c.subs, id)
		delete(c.keys, id)
	}
	return nil
}

// Push delivers a notification to every subscription on pubkey.
func (c *WSClient) Push(pubkey string, n solana.AccountNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, key := range c.keys {
		if key == pubkey {
			c.subs[id] <- n
		}
	}
}

// Active returns the number of open subscriptions.
func (c *WSClient) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close closes all subscriptions.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	return nil
}
