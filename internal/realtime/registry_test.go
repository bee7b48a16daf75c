package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// countingTransport records how many times each channel was subscribed
// and unsubscribed.
type countingTransport struct {
	mu       sync.Mutex
	channels map[string]*countingChannel
}

func newCountingTransport() *countingTransport {
	return &countingTransport{channels: make(map[string]*countingChannel)}
}

func (t *countingTransport) Channel(name string, opts ChannelOptions) Channel {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.channels[name]
	if !ok {
		ch = &countingChannel{name: name}
		t.channels[name] = ch
	}
	return ch
}

func (t *countingTransport) Close() error { return nil }

type countingChannel struct {
	name         string
	failNext     atomic.Bool
	subscribes   atomic.Int64
	unsubscribes atomic.Int64
}

func (c *countingChannel) Name() string { return c.name }

func (c *countingChannel) Subscribe(ctx context.Context) error {
	if c.failNext.CompareAndSwap(true, false) {
		return errors.New("subscribe refused")
	}
	c.subscribes.Add(1)
	return nil
}

func (c *countingChannel) Unsubscribe() error {
	c.unsubscribes.Add(1)
	return nil
}

func (c *countingChannel) Broadcast(ctx context.Context, event string, payload []byte) error {
	return nil
}
func (c *countingChannel) OnBroadcast(h BroadcastHandler) {}

func (c *countingChannel) Track(ctx context.Context, s PresenceState) error { return nil }

func (c *countingChannel) Untrack(ctx context.Context) error { return nil }

func (c *countingChannel) OnPresenceSync(h PresenceSyncHandler) {}

func TestRegistrySubscribesOncePerLifetime(t *testing.T) {
	transport := newCountingTransport()
	r := NewRegistry(transport, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Acquire(ChannelNotes, ChannelOptions{})
			assert.NoError(t, r.EnsureSubscribed(ctx, ChannelNotes))
		}()
	}
	wg.Wait()

	ch := transport.channels[ChannelNotes]
	assert.Equal(t, int64(1), ch.subscribes.Load())
	assert.True(t, r.Subscribed(ChannelNotes))
}

func TestRegistryTeardownAtZeroRefs(t *testing.T) {
	transport := newCountingTransport()
	r := NewRegistry(transport, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r.Acquire(ChannelNotes, ChannelOptions{})
	}
	assert.NoError(t, r.EnsureSubscribed(ctx, ChannelNotes))
	ch := transport.channels[ChannelNotes]

	r.Release(ChannelNotes)
	r.Release(ChannelNotes)
	assert.Equal(t, int64(0), ch.unsubscribes.Load(), "live refs must keep the subscription")
	assert.True(t, r.Subscribed(ChannelNotes))

	r.Release(ChannelNotes)
	assert.Equal(t, int64(1), ch.unsubscribes.Load())
	assert.False(t, r.Subscribed(ChannelNotes))

	// A later acquire starts a fresh lifetime with its own handshake.
	r.Acquire(ChannelNotes, ChannelOptions{})
	assert.NoError(t, r.EnsureSubscribed(ctx, ChannelNotes))
	assert.Equal(t, int64(2), ch.subscribes.Load())
	r.Release(ChannelNotes)
}

func TestRegistrySubscribeFailureIsRetryable(t *testing.T) {
	transport := newCountingTransport()
	r := NewRegistry(transport, nil)
	ctx := context.Background()

	r.Acquire(ChannelPresence, ChannelOptions{SelfBroadcast: true})
	transport.channels[ChannelPresence].failNext.Store(true)

	assert.Error(t, r.EnsureSubscribed(ctx, ChannelPresence))
	assert.False(t, r.Subscribed(ChannelPresence))

	assert.NoError(t, r.EnsureSubscribed(ctx, ChannelPresence))
	assert.True(t, r.Subscribed(ChannelPresence))
}

func TestRegistryReleaseUnknownChannel(t *testing.T) {
	r := NewRegistry(newCountingTransport(), nil)
	r.Release("never-acquired")
}

func TestRegistryShutdown(t *testing.T) {
	transport := newCountingTransport()
	r := NewRegistry(transport, nil)
	ctx := context.Background()

	r.Acquire(ChannelNotes, ChannelOptions{})
	r.Acquire(ChannelPresence, ChannelOptions{SelfBroadcast: true})
	assert.NoError(t, r.EnsureSubscribed(ctx, ChannelNotes))
	assert.NoError(t, r.EnsureSubscribed(ctx, ChannelPresence))

	r.Shutdown()
	assert.Equal(t, int64(1), transport.channels[ChannelNotes].unsubscribes.Load())
	assert.Equal(t, int64(1), transport.channels[ChannelPresence].unsubscribes.Load())
	assert.False(t, r.Subscribed(ChannelNotes))
}
