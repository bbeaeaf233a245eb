package staking

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWallet struct {
	connected bool
	lamports  atomic.Uint64
}

func (w *fakeWallet) Connected() bool  { return w.connected }
func (w *fakeWallet) Lamports() uint64 { return w.lamports.Load() }

func connectedWallet(lamports uint64) *fakeWallet {
	w := &fakeWallet{connected: true}
	w.lamports.Store(lamports)
	return w
}

func instantConfig() Config {
	cfg := DefaultConfig()
	cfg.ActionDelay = 0
	return cfg
}

func TestPanel_Defaults(t *testing.T) {
	p := NewPanel(DefaultConfig(), connectedWallet(0), nil)
	s := p.Snapshot()

	assert.Equal(t, "0.7", s.StakeInput)
	assert.Equal(t, "0", s.Staked)
	assert.Equal(t, "0.07", s.Reward)
	assert.Equal(t, 0, s.CompoundStreak)
	assert.Empty(t, s.Error)
	assert.False(t, s.Loading)
}

func TestPanel_StakeCompoundClaimScenario(t *testing.T) {
	ctx := context.Background()
	p := NewPanel(instantConfig(), connectedWallet(1_000_000_000), nil)

	require.NoError(t, p.Stake(ctx, "0.7"))
	s := p.Snapshot()
	assert.Equal(t, "0.7000", s.Staked)
	assert.Equal(t, "", s.StakeInput, "input is cleared after a successful stake")

	require.NoError(t, p.Compound(ctx))
	s = p.Snapshot()
	assert.Equal(t, "0.7700", s.Staked)
	assert.Equal(t, "0", s.Reward)
	assert.Equal(t, 1, s.CompoundStreak)

	require.NoError(t, p.Claim(ctx))
	s = p.Snapshot()
	assert.Equal(t, "0", s.Reward)
	assert.Equal(t, 0, s.CompoundStreak)
	assert.Equal(t, "0.7700", s.Staked)
}

func TestPanel_StakeRejectsInvalidAmounts(t *testing.T) {
	ctx := context.Background()

	for _, input := range []string{"", "  ", "abc", "0", "0.0000", "-1", "-0.5", "1..2", "NaN"} {
		t.Run(input, func(t *testing.T) {
			p := NewPanel(instantConfig(), connectedWallet(5_000_000_000), nil)
			before := p.Snapshot()

			err := p.Stake(ctx, input)
			assert.ErrorIs(t, err, ErrInvalidAmount)

			after := p.Snapshot()
			assert.Equal(t, before.Staked, after.Staked)
			assert.Equal(t, before.Reward, after.Reward)
			assert.Equal(t, "Please enter a valid stake amount.", after.Error)
			assert.Equal(t, input, after.StakeInput, "rejected input stays in the field")
			assert.False(t, after.Loading)
		})
	}
}

func TestPanel_StakeExceedingBalance(t *testing.T) {
	p := NewPanel(instantConfig(), connectedWallet(500_000_000), nil)

	err := p.Stake(context.Background(), "0.5000001")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	s := p.Snapshot()
	assert.Equal(t, "0", s.Staked)
	assert.Equal(t, "Insufficient balance for staking.", s.Error)

	// Exactly the balance is allowed.
	require.NoError(t, p.Stake(context.Background(), "0.5"))
	assert.Equal(t, "0.5000", p.Snapshot().Staked)
}

func TestPanel_StakeRequiresWallet(t *testing.T) {
	p := NewPanel(instantConfig(), &fakeWallet{}, nil)

	err := p.Stake(context.Background(), "0.1")
	assert.ErrorIs(t, err, ErrWalletNotConnected)
	assert.Equal(t, "Connect your wallet to start staking", p.Snapshot().Error)
}

func TestPanel_StakeAccumulates(t *testing.T) {
	ctx := context.Background()
	p := NewPanel(instantConfig(), connectedWallet(10_000_000_000), nil)

	for _, amount := range []string{"0.1", "0.25", "1.12345"} {
		require.NoError(t, p.Stake(ctx, amount))
	}
	// 0.1 + 0.25 = 0.35; 0.35 + 1.12345 = 1.47345 -> 1.4735 (4 places)
	assert.Equal(t, "1.4735", p.Snapshot().Staked)
}

func TestPanel_NextActionClearsError(t *testing.T) {
	ctx := context.Background()
	p := NewPanel(instantConfig(), connectedWallet(1_000_000_000), nil)

	require.Error(t, p.Stake(ctx, "abc"))
	require.NotEmpty(t, p.Snapshot().Error)

	require.NoError(t, p.Claim(ctx))
	assert.Empty(t, p.Snapshot().Error)
}

func TestPanel_Unstake(t *testing.T) {
	ctx := context.Background()
	p := NewPanel(instantConfig(), connectedWallet(1_000_000_000), nil)
	require.NoError(t, p.Stake(ctx, "0.1"))

	err := p.Unstake(ctx, "0.2")
	assert.ErrorIs(t, err, ErrInsufficientStake)
	assert.Equal(t, "Insufficient staked amount.", p.Snapshot().Error)

	err = p.Unstake(ctx, "-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, "Please enter a valid unstake amount.", p.Snapshot().Error)

	require.NoError(t, p.Unstake(ctx, "0.05"))
	assert.Equal(t, "0.0500", p.Snapshot().Staked)
}

func TestPanel_RejectsUnboundedAmounts(t *testing.T) {
	ctx := context.Background()
	inputs := []string{
		"1e-50000000",
		"1e50000000",
		"1E3",
		"0.0000000001",
		"1" + strings.Repeat("0", 40),
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			p := NewPanel(instantConfig(), connectedWallet(5_000_000_000), nil)
			require.NoError(t, p.Stake(ctx, "1"))

			start := time.Now()
			assert.ErrorIs(t, p.Stake(ctx, input), ErrInvalidAmount)
			assert.ErrorIs(t, p.Unstake(ctx, input), ErrInvalidAmount)
			assert.Less(t, time.Since(start), time.Second)
			assert.Equal(t, "1.0000", p.Snapshot().Staked)
		})
	}

	// Lamport precision still passes.
	p := NewPanel(instantConfig(), connectedWallet(5_000_000_000), nil)
	require.NoError(t, p.Stake(ctx, "0.000000001"))
}

func TestPanel_CompoundUsesCurrentReward(t *testing.T) {
	ctx := context.Background()
	p := NewPanel(instantConfig(), connectedWallet(0), nil)

	p.AccrueReward() // 0.07 -> 0.0710
	require.NoError(t, p.Compound(ctx))
	require.NoError(t, p.Compound(ctx))

	s := p.Snapshot()
	assert.Equal(t, "0.0710", s.Staked)
	assert.Equal(t, "0", s.Reward)
	assert.Equal(t, 2, s.CompoundStreak)
}

func TestPanel_AccrueReward(t *testing.T) {
	p := NewPanel(instantConfig(), connectedWallet(0), nil)

	p.AccrueReward()
	assert.Equal(t, "0.0710", p.Snapshot().Reward)

	require.NoError(t, p.Claim(context.Background()))
	p.AccrueReward()
	p.AccrueReward()
	assert.Equal(t, "0.0020", p.Snapshot().Reward)
	assert.Equal(t, "0", p.Snapshot().Staked, "accrual does not depend on or touch the stake")
}

func TestPanel_RunAccruesUntilCancelled(t *testing.T) {
	cfg := instantConfig()
	cfg.RewardInterval = 5 * time.Millisecond
	p := NewPanel(cfg, connectedWallet(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return p.Snapshot().Reward != "0.07"
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	frozen := p.Snapshot().Reward
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, p.Snapshot().Reward)
}

func TestPanel_RejectsActionWhileLoading(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActionDelay = 200 * time.Millisecond
	p := NewPanel(cfg, connectedWallet(1_000_000_000), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Stake(context.Background(), "0.7") }()

	require.Eventually(t, func() bool { return p.Snapshot().Loading }, time.Second, time.Millisecond)

	err := p.Compound(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 0, p.Snapshot().CompoundStreak)

	require.NoError(t, <-errCh)
	s := p.Snapshot()
	assert.Equal(t, "0.7000", s.Staked)
	assert.Equal(t, "0.07", s.Reward)
	assert.False(t, s.Loading)
}

func TestPanel_CancelledActionReportsGenericFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActionDelay = time.Minute
	p := NewPanel(cfg, connectedWallet(1_000_000_000), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Compound(ctx)
	assert.ErrorIs(t, err, ErrActionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	s := p.Snapshot()
	assert.Equal(t, "Failed to compound. Please try again.", s.Error)
	assert.Equal(t, "0", s.Staked)
	assert.Equal(t, "0.07", s.Reward)
	assert.Equal(t, 0, s.CompoundStreak)
	assert.False(t, s.Loading)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(ActionStake, nil))
	assert.Equal(t, "Failed to claim. Please try again.", Message(ActionClaim, assert.AnError))
	assert.Equal(t, "Another action is still processing.", Message(ActionStake, ErrBusy))
}
