package session

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlm-landing/internal/landing"
	"mlm-landing/internal/solana/stub"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testStore(t *testing.T) (*Store, *fakeClock, *stub.RPCClient) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Staking.ActionDelay = 0

	rpc := stub.NewRPCClient()
	st := NewStore(cfg, rpc, nil, nil)
	clock := &fakeClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	st.now = clock.Now
	t.Cleanup(st.Close)
	return st, clock, rpc
}

func TestStore_CreateAndGet(t *testing.T) {
	st, _, _ := testStore(t)

	sess := st.Create()
	_, err := uuid.Parse(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())

	got, ok := st.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = st.Get(uuid.NewString())
	assert.False(t, ok)
}

func TestStore_GetOrCreate(t *testing.T) {
	st, _, _ := testStore(t)

	first, created := st.GetOrCreate("")
	require.True(t, created)

	again, created := st.GetOrCreate(first.ID)
	assert.False(t, created)
	assert.Same(t, first, again)

	other, created := st.GetOrCreate("stale-id")
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, 2, st.Len())
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	st, _, rpc := testStore(t)

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	key := base58.Encode(pub)
	rpc.SetBalance(key, 2_000_000_000)

	a := st.Create()
	b := st.Create()

	require.NoError(t, a.Wallet.Connect(context.Background(), key))
	a.Shell.Navigate(landing.PageMiner)
	require.NoError(t, a.Shell.Panel().Stake(context.Background(), "0.7"))

	assert.Equal(t, "0.7000", a.Shell.Snapshot().Panel.Staked)
	assert.False(t, b.Wallet.Connected())
	assert.Equal(t, landing.PageHome, b.Shell.Page())
}

func TestStore_SweepExpiresIdle(t *testing.T) {
	st, clock, _ := testStore(t)

	idle := st.Create()
	clock.Advance(20 * time.Minute)
	active := st.Create()
	clock.Advance(15 * time.Minute)
	_, ok := st.Get(active.ID)
	require.True(t, ok)

	n := st.Sweep(30 * time.Minute)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, st.Len())

	_, ok = st.Get(idle.ID)
	assert.False(t, ok)
	_, ok = st.Get(active.ID)
	assert.True(t, ok)

	select {
	case <-idle.done:
	default:
		t.Fatal("expired session timers still running")
	}
}

func TestStore_Remove(t *testing.T) {
	st, _, _ := testStore(t)
	sess := st.Create()
	sess.Shell.Navigate(landing.PageMiner)

	assert.True(t, st.Remove(sess.ID))
	assert.False(t, st.Remove(sess.ID))
	assert.Nil(t, sess.Shell.Panel(), "removed session unmounts its panel")
}

func TestStore_Close(t *testing.T) {
	st, _, _ := testStore(t)
	a := st.Create()
	st.Close()

	assert.Zero(t, st.Len())
	<-a.done

	late := st.Create()
	<-late.done
	assert.Zero(t, st.Len())
}

func TestSweeper(t *testing.T) {
	st, clock, _ := testStore(t)

	_, err := NewSweeper(st, 0, time.Minute, nil)
	assert.Error(t, err)

	sw, err := NewSweeper(st, time.Minute, time.Minute, nil)
	require.NoError(t, err)
	sw.Start()
	defer sw.Stop(context.Background())

	st.Create()
	assert.Zero(t, sw.RunNow())
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, sw.RunNow())
}
