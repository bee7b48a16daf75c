package board

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/karkow/idea-board/internal/realtime"

	"go.uber.org/zap"
)

// DefaultPresenceInterval is the pause between self re-announcements. The
// re-announcement exists to refresh the transport's liveness timer, not to
// re-sync state.
const DefaultPresenceInterval = 30 * time.Second

// PresenceEngine tracks the local user's online status and merges peer
// heartbeats into an active-user set keyed by user id.
type PresenceEngine struct {
	registry *realtime.Registry
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	started bool
	self    Identity
	peers   map[string]realtime.PresenceState
	channel realtime.Channel
	stop    chan struct{}
}

func NewPresenceEngine(registry *realtime.Registry, l *zap.Logger, interval time.Duration) *PresenceEngine {
	if l == nil {
		l = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultPresenceInterval
	}
	return &PresenceEngine{
		registry: registry,
		logger:   l,
		interval: interval,
		now:      time.Now,
		peers:    make(map[string]realtime.PresenceState),
	}
}

// Start announces the identity on the presence channel and begins the
// periodic re-announcement. A no-op for unauthenticated sessions. If
// another consumer already completed the subscription handshake the
// handshake is skipped but self is still announced immediately.
func (p *PresenceEngine) Start(ctx context.Context, identity Identity) error {
	if identity.ID == "" {
		return nil
	}

	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.self = identity
	p.stop = make(chan struct{})
	p.mu.Unlock()

	ch := p.registry.Acquire(realtime.ChannelPresence, realtime.ChannelOptions{SelfBroadcast: true})
	ch.OnPresenceSync(p.applySync)
	if err := p.registry.EnsureSubscribed(ctx, realtime.ChannelPresence); err != nil {
		p.registry.Release(realtime.ChannelPresence)
		p.mu.Lock()
		p.started = false
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.channel = ch
	stop := p.stop
	p.mu.Unlock()

	p.announce(ctx)
	go p.heartbeat(stop)

	p.logger.Debug("presence started", zap.String("userId", identity.ID))
	return nil
}

// Stop cancels the periodic announcement, untracks self and releases the
// channel. A user who never calls Stop disappears from peers once the
// transport's own liveness timeout elapses.
func (p *PresenceEngine) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stop)
	ch := p.channel
	p.channel = nil
	p.peers = make(map[string]realtime.PresenceState)
	p.mu.Unlock()

	if ch != nil {
		if err := ch.Untrack(context.Background()); err != nil {
			p.logger.Warn("presence untrack failed", zap.Error(err))
		}
	}
	p.registry.Release(realtime.ChannelPresence)
}

// Peers returns the active remote users, sorted by user id.
func (p *PresenceEngine) Peers() []realtime.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.PresenceState, 0, len(p.peers))
	for _, state := range p.peers {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out
}

// applySync rebuilds the active-user set from a full snapshot, excluding
// self and keeping the most recent entry per user id.
func (p *PresenceEngine) applySync(snapshot []realtime.PresenceState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}

	peers := make(map[string]realtime.PresenceState, len(snapshot))
	for _, state := range snapshot {
		if state.UserID == p.self.ID {
			continue
		}
		if existing, ok := peers[state.UserID]; ok && existing.OnlineAt >= state.OnlineAt {
			continue
		}
		peers[state.UserID] = state
	}
	p.peers = peers
}

func (p *PresenceEngine) announce(ctx context.Context) {
	p.mu.Lock()
	ch := p.channel
	self := p.self
	p.mu.Unlock()
	if ch == nil {
		return
	}

	err := ch.Track(ctx, realtime.PresenceState{
		UserID:    self.ID,
		UserName:  self.Name,
		AvatarURL: self.AvatarURL,
		OnlineAt:  p.now().UnixMilli(),
	})
	if err != nil {
		p.logger.Warn("presence announce failed", zap.Error(err))
	}
}

func (p *PresenceEngine) heartbeat(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.announce(context.Background())
		}
	}
}
