package dto

import (
	"encoding/json"

	"github.com/karkow/idea-board/internal/realtime"
)

// ChannelJoinRequest subscribes the session to a named channel.
type ChannelJoinRequest struct {
	Channel string `json:"channel" validate:"required"`
	// SelfBroadcast opts in to receiving the session's own broadcasts.
	// The notes channel leaves this off.
	SelfBroadcast bool `json:"selfBroadcast"`
}

// ChannelLeaveRequest unsubscribes the session from a channel.
type ChannelLeaveRequest struct {
	Channel string `json:"channel" validate:"required"`
}

// BroadcastRequest fans an event out to the channel's other subscribers.
type BroadcastRequest struct {
	Channel string          `json:"channel" validate:"required"`
	Event   string          `json:"event" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

// PresenceTrackRequest announces the session's presence state. The user
// id and announcement time are server-assigned.
type PresenceTrackRequest struct {
	Channel   string `json:"channel" validate:"required"`
	UserName  string `json:"userName"`
	AvatarURL string `json:"avatarUrl"`
}

// PresenceUntrackRequest withdraws the session's presence state.
type PresenceUntrackRequest struct {
	Channel string `json:"channel" validate:"required"`
}

// BroadcastPush is the server-to-client frame for a peer event.
type BroadcastPush struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// PresenceSyncPush carries a channel's full presence snapshot.
type PresenceSyncPush struct {
	Channel  string                   `json:"channel"`
	Presence []realtime.PresenceState `json:"presence"`
}
