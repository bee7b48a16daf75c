package realtime

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Broker is the process-local pub/sub hub. Every client session connects
// for its own Transport; broadcasts fan out to all subscribed sessions of
// the same channel name, and presence state is kept per session with full
// snapshots delivered on every change.
type Broker struct {
	logger *zap.Logger

	mu       sync.Mutex
	closed   bool
	channels map[string]*brokerChannel
}

// brokerChannel is the broker-side state of one named topic.
type brokerChannel struct {
	subs     map[*brokerClientChannel]struct{}
	presence map[*brokerClientChannel]PresenceState
}

func NewBroker(l *zap.Logger) *Broker {
	if l == nil {
		l = zap.NewNop()
	}
	return &Broker{
		logger:   l,
		channels: make(map[string]*brokerChannel),
	}
}

// Connect opens a new client session.
func (b *Broker) Connect() Transport {
	return &brokerConn{
		broker:   b,
		channels: make(map[string]*brokerClientChannel),
	}
}

// Close tears the broker down; all sessions observe ErrTransportClosed.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	b.channels = make(map[string]*brokerChannel)
	b.mu.Unlock()
}

func (b *Broker) channelState(name string) *brokerChannel {
	ch, ok := b.channels[name]
	if !ok {
		ch = &brokerChannel{
			subs:     make(map[*brokerClientChannel]struct{}),
			presence: make(map[*brokerClientChannel]PresenceState),
		}
		b.channels[name] = ch
	}
	return ch
}

// SweepStalePresence drops presence entries whose last announcement is
// older than cutoff (unix milliseconds) and notifies the affected
// channels. The transport, not the engines, owns dropped-peer detection.
func (b *Broker) SweepStalePresence(cutoff int64) {
	type sweep struct {
		name string
		ch   *brokerChannel
	}

	b.mu.Lock()
	var dirty []sweep
	for name, ch := range b.channels {
		removed := false
		for cc, state := range ch.presence {
			if state.OnlineAt < cutoff {
				delete(ch.presence, cc)
				removed = true
			}
		}
		if removed {
			dirty = append(dirty, sweep{name: name, ch: ch})
		}
	}
	b.mu.Unlock()

	for _, s := range dirty {
		b.logger.Debug("stale presence swept", zap.String("channel", s.name))
		b.emitPresenceSync(s.ch)
	}
}

// broadcast delivers an event to every subscriber of name except, unless
// the sender opted in, the sender itself.
func (b *Broker) broadcast(from *brokerClientChannel, name, event string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrTransportClosed
	}
	ch, ok := b.channels[name]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	targets := make([]*brokerClientChannel, 0, len(ch.subs))
	for cc := range ch.subs {
		if cc == from && !from.opts.SelfBroadcast {
			continue
		}
		targets = append(targets, cc)
	}
	b.mu.Unlock()

	for _, cc := range targets {
		cc.deliverBroadcast(event, payload)
	}
	return nil
}

// emitPresenceSync sends the current full snapshot to every subscriber.
// Snapshot order is stable (by user id, then online-at) so consumers see
// deterministic sync events.
func (b *Broker) emitPresenceSync(ch *brokerChannel) {
	b.mu.Lock()
	snapshot := make([]PresenceState, 0, len(ch.presence))
	for _, state := range ch.presence {
		snapshot = append(snapshot, state)
	}
	targets := make([]*brokerClientChannel, 0, len(ch.subs))
	for cc := range ch.subs {
		targets = append(targets, cc)
	}
	b.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].UserID != snapshot[j].UserID {
			return snapshot[i].UserID < snapshot[j].UserID
		}
		return snapshot[i].OnlineAt < snapshot[j].OnlineAt
	})

	for _, cc := range targets {
		cc.deliverPresenceSync(snapshot)
	}
}

// ---------------------------------------------------------------- session

type brokerConn struct {
	broker *Broker

	mu       sync.Mutex
	closed   bool
	channels map[string]*brokerClientChannel
}

func (c *brokerConn) Channel(name string, opts ChannelOptions) Channel {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cc, ok := c.channels[name]; ok {
		return cc
	}
	cc := &brokerClientChannel{name: name, opts: opts, conn: c}
	c.channels[name] = cc
	return cc
}

func (c *brokerConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	channels := make([]*brokerClientChannel, 0, len(c.channels))
	for _, cc := range c.channels {
		channels = append(channels, cc)
	}
	c.mu.Unlock()

	for _, cc := range channels {
		_ = cc.Unsubscribe()
	}
	return nil
}

// ---------------------------------------------------------------- channel

type brokerClientChannel struct {
	name string
	opts ChannelOptions
	conn *brokerConn

	mu          sync.Mutex
	subscribed  bool
	onBroadcast BroadcastHandler
	onSync      PresenceSyncHandler
}

func (cc *brokerClientChannel) Name() string {
	return cc.name
}

func (cc *brokerClientChannel) Subscribe(ctx context.Context) error {
	b := cc.conn.broker

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrTransportClosed
	}
	ch := b.channelState(cc.name)
	ch.subs[cc] = struct{}{}
	b.mu.Unlock()

	cc.mu.Lock()
	cc.subscribed = true
	cc.mu.Unlock()

	// A fresh subscriber immediately receives the current snapshot.
	b.emitPresenceSync(ch)
	return nil
}

func (cc *brokerClientChannel) Unsubscribe() error {
	b := cc.conn.broker

	cc.mu.Lock()
	wasSubscribed := cc.subscribed
	cc.subscribed = false
	cc.mu.Unlock()
	if !wasSubscribed {
		return nil
	}

	b.mu.Lock()
	ch, ok := b.channels[cc.name]
	hadPresence := false
	if ok {
		delete(ch.subs, cc)
		if _, tracked := ch.presence[cc]; tracked {
			delete(ch.presence, cc)
			hadPresence = true
		}
	}
	b.mu.Unlock()

	if hadPresence {
		b.emitPresenceSync(ch)
	}
	return nil
}

func (cc *brokerClientChannel) Broadcast(ctx context.Context, event string, payload []byte) error {
	return cc.conn.broker.broadcast(cc, cc.name, event, payload)
}

func (cc *brokerClientChannel) OnBroadcast(h BroadcastHandler) {
	cc.mu.Lock()
	cc.onBroadcast = h
	cc.mu.Unlock()
}

func (cc *brokerClientChannel) Track(ctx context.Context, state PresenceState) error {
	b := cc.conn.broker

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrTransportClosed
	}
	ch := b.channelState(cc.name)
	ch.presence[cc] = state
	b.mu.Unlock()

	b.emitPresenceSync(ch)
	return nil
}

func (cc *brokerClientChannel) Untrack(ctx context.Context) error {
	b := cc.conn.broker

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrTransportClosed
	}
	ch, ok := b.channels[cc.name]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	_, tracked := ch.presence[cc]
	delete(ch.presence, cc)
	b.mu.Unlock()

	if tracked {
		b.emitPresenceSync(ch)
	}
	return nil
}

func (cc *brokerClientChannel) OnPresenceSync(h PresenceSyncHandler) {
	cc.mu.Lock()
	cc.onSync = h
	cc.mu.Unlock()
}

func (cc *brokerClientChannel) deliverBroadcast(event string, payload []byte) {
	cc.mu.Lock()
	h := cc.onBroadcast
	subscribed := cc.subscribed
	cc.mu.Unlock()
	if h != nil && subscribed {
		h(event, payload)
	}
}

func (cc *brokerClientChannel) deliverPresenceSync(snapshot []PresenceState) {
	cc.mu.Lock()
	h := cc.onSync
	subscribed := cc.subscribed
	cc.mu.Unlock()
	if h != nil && subscribed {
		h(snapshot)
	}
}
