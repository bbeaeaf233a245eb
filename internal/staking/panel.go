// Package staking implements the simulated staking panel: a view-model that
// owns stake, reward and streak values and mutates them after an artificial
// network delay. Nothing here talks to a chain.
package staking

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mlm-landing/internal/observability"
)

// Action names a user-triggered panel operation.
type Action string

const (
	ActionStake    Action = "stake"
	ActionUnstake  Action = "unstake"
	ActionCompound Action = "compound"
	ActionClaim    Action = "claim"
)

// Wallet is the part of the wallet capability the panel reads.
type Wallet interface {
	// Connected reports whether a public key is present.
	Connected() bool
	// Lamports returns the last known balance.
	Lamports() uint64
}

// Config holds the panel's fixed defaults and timings.
type Config struct {
	// ActionDelay simulates the network round trip of every action.
	ActionDelay time.Duration
	// RewardInterval is the period of background reward accrual.
	RewardInterval time.Duration
	// RewardIncrement is added to the reward on each accrual tick.
	RewardIncrement decimal.Decimal
	// StakeInput is the initial content of the amount field.
	StakeInput string
	// Staked is the initial staked total.
	Staked string
	// Reward is the initial reward amount.
	Reward string
}

// DefaultConfig returns the values the page ships with.
func DefaultConfig() Config {
	return Config{
		ActionDelay:     time.Second,
		RewardInterval:  5 * time.Second,
		RewardIncrement: decimal.RequireFromString("0.001"),
		StakeInput:      "0.7",
		Staked:          zeroAmount,
		Reward:          "0.07",
	}
}

// Snapshot is a copy of the panel state for rendering.
type Snapshot struct {
	StakeInput     string `json:"stake_input"`
	Staked         string `json:"staked"`
	Reward         string `json:"reward"`
	CompoundStreak int    `json:"compound_streak"`
	Error          string `json:"error,omitempty"`
	Loading        bool   `json:"loading"`
}

// Panel is the staking view-model. All fields are guarded by mu; the
// simulated delay is waited with mu released.
type Panel struct {
	cfg    Config
	wallet Wallet
	logger *log.Logger

	mu         sync.Mutex
	stakeInput string
	staked     string
	reward     string
	streak     int
	errText    string
	loading    bool
}

// NewPanel mounts a panel with the configured defaults.
func NewPanel(cfg Config, wallet Wallet, logger *log.Logger) *Panel {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Panel{
		cfg:        cfg,
		wallet:     wallet,
		logger:     logger,
		stakeInput: cfg.StakeInput,
		staked:     cfg.Staked,
		reward:     cfg.Reward,
	}
}

// Snapshot returns the current state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		StakeInput:     p.stakeInput,
		Staked:         p.staked,
		Reward:         p.reward,
		CompoundStreak: p.streak,
		Error:          p.errText,
		Loading:        p.loading,
	}
}

// SetStakeInput mirrors the amount field as the user types.
func (p *Panel) SetStakeInput(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stakeInput = s
}

// Stake adds amount to the staked total after validation and the delay.
func (p *Panel) Stake(ctx context.Context, amount string) error {
	var parsed decimal.Decimal
	return p.run(ctx, ActionStake,
		func() error {
			p.stakeInput = amount
			if !p.wallet.Connected() {
				return ErrWalletNotConnected
			}
			d, err := parseAmount(amount)
			if err != nil {
				return err
			}
			if d.GreaterThan(lamportsToSOL(p.wallet.Lamports())) {
				return ErrInsufficientBalance
			}
			parsed = d
			return nil
		},
		func() {
			p.staked = format(mustAmount(p.staked).Add(parsed))
			p.stakeInput = ""
		},
	)
}

// Unstake removes amount from the staked total. The bound is the staked
// total itself; no funds move.
func (p *Panel) Unstake(ctx context.Context, amount string) error {
	var parsed decimal.Decimal
	return p.run(ctx, ActionUnstake,
		func() error {
			if !p.wallet.Connected() {
				return ErrWalletNotConnected
			}
			d, err := parseAmount(amount)
			if err != nil {
				return err
			}
			if d.GreaterThan(mustAmount(p.staked)) {
				return ErrInsufficientStake
			}
			parsed = d
			return nil
		},
		func() {
			p.staked = format(mustAmount(p.staked).Sub(parsed))
		},
	)
}

// Compound folds the reward into the staked total and extends the streak.
func (p *Panel) Compound(ctx context.Context) error {
	return p.run(ctx, ActionCompound, nil, func() {
		p.staked = format(mustAmount(p.staked).Add(mustAmount(p.reward)))
		p.reward = zeroAmount
		p.streak++
	})
}

// Claim zeroes the reward and breaks the streak. The staked total is untouched.
func (p *Panel) Claim(ctx context.Context) error {
	return p.run(ctx, ActionClaim, nil, func() {
		p.reward = zeroAmount
		p.streak = 0
	})
}

// AccrueReward adds the fixed increment to the reward. It does not look at
// the staked total.
func (p *Panel) AccrueReward() {
	p.mu.Lock()
	p.reward = format(mustAmount(p.reward).Add(p.cfg.RewardIncrement))
	p.mu.Unlock()
	observability.RecordRewardTick()
}

// Run accrues rewards every RewardInterval until ctx is done.
func (p *Panel) Run(ctx context.Context) {
	if p.cfg.RewardInterval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(p.cfg.RewardInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.AccrueReward()
		}
	}
}

// run is the shared action pattern: reject while loading, clear the error,
// validate, mark loading, wait, mutate, clear loading.
func (p *Panel) run(ctx context.Context, action Action, validate func() error, apply func()) error {
	start := time.Now()

	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		observability.RecordStakingAction(string(action), "busy", time.Since(start).Seconds())
		return ErrBusy
	}
	p.errText = ""
	if validate != nil {
		if err := validate(); err != nil {
			p.errText = Message(action, err)
			p.mu.Unlock()
			observability.RecordStakingAction(string(action), "rejected", time.Since(start).Seconds())
			return err
		}
	}
	p.loading = true
	p.mu.Unlock()

	err := p.wait(ctx)

	p.mu.Lock()
	if err != nil {
		p.logger.Printf("Error %s: %v", action, err)
		p.errText = Message(action, err)
	} else {
		apply()
	}
	p.loading = false
	p.mu.Unlock()

	result := "success"
	if err != nil {
		result = "failed"
	}
	observability.RecordStakingAction(string(action), result, time.Since(start).Seconds())
	return err
}

// wait stands in for the network call.
func (p *Panel) wait(ctx context.Context) error {
	if p.cfg.ActionDelay <= 0 {
		if err := ctx.Err(); err != nil {
			return errActionFailed(err)
		}
		return nil
	}

	timer := time.NewTimer(p.cfg.ActionDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errActionFailed(ctx.Err())
	case <-timer.C:
		return nil
	}
}

func errActionFailed(cause error) error {
	return fmt.Errorf("%w: %w", ErrActionFailed, cause)
}
