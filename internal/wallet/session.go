// Package wallet holds the wallet-connection capability of one visitor: the
// connected public key, its balance on the configured cluster, and an
// optional account subscription that keeps the balance current.
package wallet

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mlm-landing/internal/observability"
	"mlm-landing/internal/solana"
)

// balancePlaces is the number of decimals the balance is shown with.
const balancePlaces = 4

// Config holds wallet session settings.
type Config struct {
	Network solana.Network
	// Watch subscribes to the connected account for live balance updates.
	Watch bool
	// FetchTimeout bounds the getBalance call made on connect.
	FetchTimeout time.Duration
}

// DefaultConfig returns devnet without live updates.
func DefaultConfig() Config {
	return Config{
		Network:      solana.Devnet,
		FetchTimeout: 10 * time.Second,
	}
}

// Snapshot is a copy of the wallet state for rendering.
type Snapshot struct {
	Connected bool   `json:"connected"`
	PublicKey string `json:"public_key,omitempty"`
	Short     string `json:"short,omitempty"`
	Lamports  uint64 `json:"lamports"`
	Balance   string `json:"balance"`
	Network   string `json:"network"`
	// AccountExists is false until the address holds lamports on chain.
	AccountExists bool   `json:"account_exists"`
	Owner         string `json:"owner,omitempty"`
}

// Session is the wallet capability of one visitor. It satisfies the staking
// panel's Wallet interface.
type Session struct {
	cfg    Config
	rpc    solana.RPCClient
	ws     solana.WSClient
	logger *log.Logger

	// connMu serializes Connect so a repeated submit cannot leak a watcher.
	connMu sync.Mutex

	mu        sync.RWMutex
	key       solana.PublicKey
	connected bool
	lamports  uint64
	slot      int64
	exists    bool
	owner     string
	sub       *solana.AccountSubscription
	stopWatch func()
}

// NewSession creates a disconnected wallet session. ws may be nil, in which
// case the balance is only read on connect and on Refresh.
func NewSession(cfg Config, rpc solana.RPCClient, ws solana.WSClient, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Network == "" {
		cfg.Network = solana.Devnet
	}
	return &Session{
		cfg:    cfg,
		rpc:    rpc,
		ws:     ws,
		logger: logger,
	}
}

// Connect validates key, replaces any connected key and loads its balance.
// A failed balance lookup leaves the key connected with a zero balance and
// returns an error wrapping ErrBalanceUnavailable.
func (s *Session) Connect(ctx context.Context, key string) error {
	pk, err := solana.ParseWalletKey(key)
	if err != nil {
		observability.RecordWalletConnect("invalid")
		return err
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.Disconnect()

	s.mu.Lock()
	s.key = pk
	s.connected = true
	s.lamports = 0
	s.slot = 0
	s.mu.Unlock()
	observability.RecordWalletConnect("success")
	s.logger.Printf("Connected %s on %s", pk.Short(), s.cfg.Network)

	fetchErr := s.Refresh(ctx)

	if s.cfg.Watch && s.ws != nil {
		if err := s.watch(ctx, pk); err != nil {
			s.logger.Printf("WARN: subscribe %s: %v", pk.Short(), err)
		}
	}

	if fetchErr != nil {
		return fmt.Errorf("%w: %w", ErrBalanceUnavailable, fetchErr)
	}
	return nil
}

// Refresh reloads the balance of the connected key.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	pk, connected := s.key, s.connected
	s.mu.RUnlock()
	if !connected {
		return ErrNotConnected
	}

	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	bal, err := s.rpc.GetBalance(ctx, pk.String())
	if err != nil {
		s.logger.Printf("ERROR: get balance %s: %v", pk.Short(), err)
		return fmt.Errorf("get balance: %w", err)
	}

	s.setBalance(pk, bal.Slot, bal.Lamports)
	observability.RecordBalanceUpdate("rpc")

	// The owner is informational; the balance above is what staking needs.
	info, err := s.rpc.GetAccountInfo(ctx, pk.String())
	if err != nil {
		s.logger.Printf("WARN: get account info %s: %v", pk.Short(), err)
		return nil
	}
	s.setAccount(pk, info)
	return nil
}

// Disconnect clears the key and drops the account subscription.
// Disconnecting a disconnected session is a no-op.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	pk := s.key
	sub, stop := s.sub, s.stopWatch
	s.key = solana.PublicKey{}
	s.connected = false
	s.lamports = 0
	s.slot = 0
	s.exists = false
	s.owner = ""
	s.sub = nil
	s.stopWatch = nil
	s.mu.Unlock()

	if sub != nil {
		if err := s.ws.Unsubscribe(sub.ID); err != nil {
			s.logger.Printf("WARN: unsubscribe %s: %v", pk.Short(), err)
		}
	}
	if stop != nil {
		stop()
	}
	observability.RecordWalletDisconnect()
	s.logger.Printf("Disconnected %s", pk.Short())
}

// Connected reports whether a public key is present.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Lamports returns the last known balance, zero when disconnected.
func (s *Session) Lamports() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lamports
}

// PublicKey returns the connected key.
func (s *Session) PublicKey() (solana.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.connected
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Connected: s.connected,
		Lamports:  s.lamports,
		Balance:   FormatSOL(s.lamports),
		Network:   s.cfg.Network.Label(),
	}
	if s.connected {
		snap.PublicKey = s.key.String()
		snap.Short = s.key.Short()
		snap.AccountExists = s.exists
		snap.Owner = s.owner
	}
	return snap
}

// FormatSOL renders lamports as SOL with four decimals, like "1.0000".
func FormatSOL(lamports uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
	return d.StringFixed(balancePlaces)
}

// setBalance stores a balance for pk unless the key changed meanwhile or the
// update is older than what is already stored.
func (s *Session) setBalance(pk solana.PublicKey, slot int64, lamports uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || s.key != pk || slot < s.slot {
		return false
	}
	s.slot = slot
	s.lamports = lamports
	return true
}

// setAccount records whether pk exists on chain and who owns it. A nil
// info means the account has never been funded.
func (s *Session) setAccount(pk solana.PublicKey, info *solana.AccountInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || s.key != pk {
		return
	}
	s.exists = info != nil
	s.owner = ""
	if info != nil {
		s.owner = info.Owner
	}
}

// watch subscribes to pk and applies notifications until the subscription
// channel closes or the session disconnects.
func (s *Session) watch(ctx context.Context, pk solana.PublicKey) error {
	sub, err := s.ws.SubscribeAccount(ctx, pk.String())
	if err != nil {
		return fmt.Errorf("subscribe account: %w", err)
	}

	done := make(chan struct{})
	quit := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(quit) })
		<-done
	}

	s.mu.Lock()
	if !s.connected || s.key != pk {
		s.mu.Unlock()
		_ = s.ws.Unsubscribe(sub.ID)
		return nil
	}
	prevSub, prevStop := s.sub, s.stopWatch
	s.sub = sub
	s.stopWatch = stop
	s.mu.Unlock()

	if prevSub != nil {
		_ = s.ws.Unsubscribe(prevSub.ID)
	}
	if prevStop != nil {
		prevStop()
	}

	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			case n, ok := <-sub.C:
				if !ok {
					return
				}
				if s.setBalance(pk, n.Slot, n.Lamports) {
					observability.RecordBalanceUpdate("subscription")
				}
			}
		}
	}()
	return nil
}
