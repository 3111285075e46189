package cart

import (
	"context"
	"testing"
	"time"

	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/MohitNegi1997/MoltenMotion/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessions_SameStorePerSession(t *testing.T) {
	sessions := NewSessions(storage.MemoryFactory(), zap.NewNop())

	a := sessions.Get("a")
	assert.Same(t, a, sessions.Get("a"))
	assert.NotSame(t, a, sessions.Get("b"))
	assert.Equal(t, 2, sessions.Len())
}

func TestSessions_Isolated(t *testing.T) {
	sessions := NewSessions(storage.MemoryFactory(), zap.NewNop())
	ctx := context.Background()
	var bCalls int
	sessions.Get("b").Subscribe(ctx, func(int, []domain.LineItem) { bCalls++ })

	sessions.Get("a").Add(ctx, lamp, 2)

	assert.Equal(t, 2, sessions.Get("a").Count(ctx))
	assert.Equal(t, 0, sessions.Get("b").Count(ctx))
	assert.Equal(t, 1, bCalls)
}

func TestSessions_UseSessionKey(t *testing.T) {
	factory := storage.MemoryFactory()
	sessions := NewSessions(factory, zap.NewNop())
	ctx := context.Background()

	sessions.Get("abc").Add(ctx, vase, 1)

	raw, err := factory("molten-motion-cart:abc").Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, raw, `"id":"p2"`)
}

func TestSessions_ReceiptCarriesSession(t *testing.T) {
	publisher := &recordingPublisher{}
	sessions := NewSessions(storage.MemoryFactory(), zap.NewNop(), WithPublisher(publisher))
	ctx := context.Background()
	store := sessions.Get("abc")
	store.Add(ctx, vase, 1)

	receipt, err := store.Checkout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", receipt.SessionID)
	require.Len(t, publisher.receipts, 1)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClockedSessions(factory storage.Factory) (*Sessions, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sessions := NewSessions(factory, zap.NewNop())
	sessions.now = clock.Now
	return sessions, clock
}

func TestSessions_PeekDoesNotRegister(t *testing.T) {
	factory := storage.MemoryFactory()
	sessions := NewSessions(factory, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		assert.Empty(t, sessions.Peek("stranger").Cart(ctx))
	}
	assert.Equal(t, 0, sessions.Len())

	registered := sessions.Get("known")
	registered.Add(ctx, lamp, 2)
	assert.Same(t, registered, sessions.Peek("known"))
	assert.Equal(t, 1, sessions.Len())
}

func TestSessions_PeekReadsStoredSlot(t *testing.T) {
	factory := storage.MemoryFactory()
	ctx := context.Background()
	NewSessions(factory, zap.NewNop()).Get("abc").Add(ctx, vase, 3)

	sessions := NewSessions(factory, zap.NewNop())

	assert.Equal(t, 3, sessions.Peek("abc").Count(ctx))
	assert.Equal(t, 0, sessions.Len())
}

func TestSessions_EvictIdle(t *testing.T) {
	sessions, clock := newClockedSessions(storage.MemoryFactory())
	ctx := context.Background()

	old := sessions.Get("old")
	old.Add(ctx, lamp, 2)
	clock.Advance(20 * time.Minute)
	sessions.Get("recent")
	clock.Advance(15 * time.Minute)

	assert.Equal(t, 1, sessions.Evict(30*time.Minute))
	assert.Equal(t, 1, sessions.Len())

	rebuilt := sessions.Get("old")
	assert.NotSame(t, old, rebuilt)
	assert.Equal(t, 2, rebuilt.Count(ctx))
}

func TestSessions_UseKeepsSessionAlive(t *testing.T) {
	sessions, clock := newClockedSessions(storage.MemoryFactory())

	sessions.Get("a")
	clock.Advance(25 * time.Minute)
	sessions.Peek("a")
	clock.Advance(25 * time.Minute)

	assert.Equal(t, 0, sessions.Evict(30*time.Minute))
	assert.Equal(t, 1, sessions.Len())
}

func TestSessions_EvictKeepsSubscribed(t *testing.T) {
	sessions, clock := newClockedSessions(storage.MemoryFactory())
	unsubscribe := sessions.Get("watching").Subscribe(context.Background(), func(int, []domain.LineItem) {})
	clock.Advance(time.Hour)

	assert.Equal(t, 0, sessions.Evict(30*time.Minute))

	unsubscribe()
	assert.Equal(t, 1, sessions.Evict(30*time.Minute))
	assert.Equal(t, 0, sessions.Len())
}

func TestSessions_Run(t *testing.T) {
	sessions := NewSessions(storage.MemoryFactory(), zap.NewNop())
	sessions.Get("a")
	sessions.Get("b")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sessions.Run(ctx, 5*time.Millisecond, time.Nanosecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
