package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Registry guarantees at most one live subscription per channel name per
// client session, however many consumers acquire the channel. Consumers
// must pair every Acquire with exactly one Release; the last Release
// unsubscribes and discards the handle so a later Acquire starts fresh.
type Registry struct {
	transport Transport
	logger    *zap.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	channel    Channel
	refs       int
	subscribed bool
}

func NewRegistry(t Transport, l *zap.Logger) *Registry {
	if l == nil {
		l = zap.NewNop()
	}
	return &Registry{
		transport: t,
		logger:    l,
		entries:   make(map[string]*registryEntry),
	}
}

// Acquire returns the existing handle for name, or constructs a new one
// marked not yet subscribed, and increments its reference count.
func (r *Registry) Acquire(name string, opts ChannelOptions) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		e = &registryEntry{channel: r.transport.Channel(name, opts)}
		r.entries[name] = e
	}
	e.refs++
	r.logger.Debug("channel acquired",
		zap.String("channel", name),
		zap.Int("refs", e.refs))
	return e.channel
}

// Subscribed reports whether the subscription handshake for name has
// completed.
func (r *Registry) Subscribed(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	return ok && e.subscribed
}

// MarkSubscribed records that the handshake completed. Idempotent.
func (r *Registry) MarkSubscribed(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		e.subscribed = true
	}
}

// EnsureSubscribed issues the subscription handshake if it has not been
// issued yet for the current channel lifetime. Concurrent callers observe
// exactly one Subscribe call; a failed handshake clears the mark so it can
// be retried.
func (r *Registry) EnsureSubscribed(ctx context.Context, name string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok || e.subscribed {
		r.mu.Unlock()
		return nil
	}
	e.subscribed = true
	ch := e.channel
	r.mu.Unlock()

	if err := ch.Subscribe(ctx); err != nil {
		r.mu.Lock()
		if e2, ok := r.entries[name]; ok && e2.channel == ch {
			e2.subscribed = false
		}
		r.mu.Unlock()
		return err
	}
	r.logger.Debug("channel subscribed", zap.String("channel", name))
	return nil
}

// Release decrements the reference count for name; at zero the channel is
// unsubscribed and discarded.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		r.logger.Debug("channel released",
			zap.String("channel", name),
			zap.Int("refs", e.refs))
		r.mu.Unlock()
		return
	}
	delete(r.entries, name)
	ch := e.channel
	wasSubscribed := e.subscribed
	r.mu.Unlock()

	if wasSubscribed {
		if err := ch.Unsubscribe(); err != nil {
			r.logger.Warn("channel unsubscribe failed",
				zap.String("channel", name), zap.Error(err))
		}
	}
	r.logger.Debug("channel torn down", zap.String("channel", name))
}

// Shutdown unsubscribes every remaining channel regardless of reference
// count. Meant for application teardown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for name, e := range entries {
		if e.subscribed {
			if err := e.channel.Unsubscribe(); err != nil {
				r.logger.Warn("channel unsubscribe failed",
					zap.String("channel", name), zap.Error(err))
			}
		}
	}
}
