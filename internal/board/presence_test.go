package board

import (
	"context"
	"testing"
	"time"

	"github.com/karkow/idea-board/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPresence(t *testing.T, b *realtime.Broker, id Identity) *PresenceEngine {
	t.Helper()
	registry := realtime.NewRegistry(b.Connect(), nil)
	p := NewPresenceEngine(registry, nil, time.Hour)
	require.NoError(t, p.Start(context.Background(), id))
	t.Cleanup(p.Stop)
	return p
}

func TestPresencePeersExcludeSelf(t *testing.T) {
	broker := realtime.NewBroker(nil)

	pa := startPresence(t, broker, Identity{ID: "u-alice", Name: "Alice"})
	pb := startPresence(t, broker, Identity{ID: "u-bob", Name: "Bob"})

	peersOfAlice := pa.Peers()
	require.Len(t, peersOfAlice, 1)
	assert.Equal(t, "u-bob", peersOfAlice[0].UserID)
	assert.Equal(t, "Bob", peersOfAlice[0].UserName)

	peersOfBob := pb.Peers()
	require.Len(t, peersOfBob, 1)
	assert.Equal(t, "u-alice", peersOfBob[0].UserID)
}

func TestPresenceUnauthenticatedIsNoOp(t *testing.T) {
	broker := realtime.NewBroker(nil)
	registry := realtime.NewRegistry(broker.Connect(), nil)
	p := NewPresenceEngine(registry, nil, time.Hour)

	require.NoError(t, p.Start(context.Background(), Identity{}))
	assert.Empty(t, p.Peers())
	p.Stop() // must be safe without a prior effective Start
}

func TestPresenceDedupKeepsMostRecent(t *testing.T) {
	broker := realtime.NewBroker(nil)
	pa := startPresence(t, broker, Identity{ID: "u-alice"})

	// The same user announced from two tabs; only the most recent
	// announcement survives.
	ctx := context.Background()
	for _, onlineAt := range []int64{2000, 1000} {
		conn := broker.Connect()
		ch := conn.Channel(realtime.ChannelPresence, realtime.ChannelOptions{SelfBroadcast: true})
		require.NoError(t, ch.Subscribe(ctx))
		require.NoError(t, ch.Track(ctx, realtime.PresenceState{
			UserID:   "u-bob",
			UserName: "Bob",
			OnlineAt: onlineAt,
		}))
	}

	peers := pa.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, int64(2000), peers[0].OnlineAt)
}

func TestPresenceStopWithdraws(t *testing.T) {
	broker := realtime.NewBroker(nil)

	pa := startPresence(t, broker, Identity{ID: "u-alice"})
	pb := startPresence(t, broker, Identity{ID: "u-bob"})
	require.Len(t, pb.Peers(), 1)

	pa.Stop()
	assert.Empty(t, pb.Peers())
}

func TestPresenceHeartbeatRefreshesOnlineAt(t *testing.T) {
	broker := realtime.NewBroker(nil)

	registry := realtime.NewRegistry(broker.Connect(), nil)
	p := NewPresenceEngine(registry, nil, time.Hour)
	base := time.Unix(1000, 0)
	p.now = func() time.Time { return base }
	require.NoError(t, p.Start(context.Background(), Identity{ID: "u-alice"}))
	defer p.Stop()

	observer := startPresence(t, broker, Identity{ID: "u-bob"})
	peers := observer.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, base.UnixMilli(), peers[0].OnlineAt)

	// A later announcement carries a fresh timestamp.
	base = base.Add(30 * time.Second)
	p.announce(context.Background())
	peers = observer.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, base.UnixMilli(), peers[0].OnlineAt)
}
