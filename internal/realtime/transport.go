// Package realtime provides the pub/sub transport the board core runs on:
// named broadcast channels with presence tracking, an in-process broker
// implementation, and a reference-counted channel registry.
package realtime

import (
	"context"

	"github.com/pkg/errors"
)

// Channel names used by the board.
const (
	ChannelNotes    = "notes"
	ChannelPresence = "presence"
)

// ErrTransportClosed is returned by operations on a closed transport; it is
// a sticky condition, recovery requires a fresh connection.
var ErrTransportClosed = errors.New("realtime: transport closed")

// PresenceState is the ephemeral per-client state tracked on a channel. It
// is never persisted and vanishes when its owner disconnects or its
// heartbeat lapses.
type PresenceState struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	// OnlineAt is the unix-millisecond timestamp of the last announcement.
	OnlineAt int64 `json:"onlineAt"`
}

// ChannelOptions configure a channel at acquisition time.
type ChannelOptions struct {
	// SelfBroadcast delivers a client's own broadcasts back to it. The
	// notes channel runs with this off: the sender applies its change from
	// the direct persistence result, so echoing it back would double-apply.
	SelfBroadcast bool
}

// BroadcastHandler receives peer broadcast events.
type BroadcastHandler func(event string, payload []byte)

// PresenceSyncHandler receives the full presence snapshot of a channel.
type PresenceSyncHandler func(snapshot []PresenceState)

// Channel is one client's handle on a named pub/sub topic.
type Channel interface {
	Name() string

	// Subscribe starts event delivery. The registry guarantees it is
	// issued exactly once per channel lifetime.
	Subscribe(ctx context.Context) error
	Unsubscribe() error

	Broadcast(ctx context.Context, event string, payload []byte) error
	OnBroadcast(h BroadcastHandler)

	Track(ctx context.Context, state PresenceState) error
	Untrack(ctx context.Context) error
	OnPresenceSync(h PresenceSyncHandler)
}

// Transport is one client session's connection to the pub/sub layer.
type Transport interface {
	// Channel returns this session's handle for name, creating it on
	// first use. Options are fixed by the first caller.
	Channel(name string, opts ChannelOptions) Channel
	Close() error
}
