package websocket_router

import (
	"strconv"
	"time"

	"github.com/karkow/idea-board/internal/app"
	"github.com/karkow/idea-board/internal/dto"
	"github.com/karkow/idea-board/internal/realtime"
	pkgapp "github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"
	"github.com/karkow/idea-board/pkg/metrics"

	"go.uber.org/zap"
)

// BoardWSHandler serves the channel and presence actions of one board.
type BoardWSHandler struct {
	*WSHandler
}

func NewBoardWSHandler(a *app.App) *BoardWSHandler {
	return &BoardWSHandler{WSHandler: NewWSHandler(a)}
}

// Authorize attaches a fresh broker session to the connection.
func (h *BoardWSHandler) Authorize(c *pkgapp.WebsocketClient) error {
	c.Session = newSession(h.App.Broker().Connect())
	return nil
}

// Disconnect tears the broker session down, which unsubscribes every
// joined channel and withdraws tracked presence. This is the transport's
// dropped-connection detection: a client that never said goodbye
// disappears from peers here or at the stale-presence sweep.
func (h *BoardWSHandler) Disconnect(c *pkgapp.WebsocketClient) {
	if s, ok := sessionOf(c); ok {
		s.close()
	}
}

// ChannelJoin subscribes the session to a channel and starts pushing its
// broadcasts and presence snapshots to the client.
func (h *BoardWSHandler) ChannelJoin(c *pkgapp.WebsocketClient, msg *pkgapp.WSMessage) {
	params := &dto.ChannelJoinRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), "ChannelJoin")
		return
	}

	s, ok := sessionOf(c)
	if !ok {
		c.ToResponse(code.ErrorChannelJoinFailed, "ChannelJoin")
		return
	}

	name := params.Channel
	ch := s.transport.Channel(name, realtime.ChannelOptions{SelfBroadcast: params.SelfBroadcast})
	ch.OnBroadcast(func(event string, payload []byte) {
		c.Send("Broadcast", dto.BroadcastPush{
			Channel: name,
			Event:   event,
			Payload: payload,
		})
	})
	ch.OnPresenceSync(func(snapshot []realtime.PresenceState) {
		c.Send("PresenceSync", dto.PresenceSyncPush{
			Channel:  name,
			Presence: snapshot,
		})
	})

	if err := ch.Subscribe(c.Ctx.Request.Context()); err != nil {
		h.App.Logger().Error("channel join failed",
			zap.String("channel", name), zap.Error(err))
		c.ToResponse(code.ErrorChannelJoinFailed.WithDetails(err.Error()), "ChannelJoin")
		return
	}
	s.putChannel(name, ch)

	h.App.Logger().Info("channel joined",
		zap.Int64("uid", c.User.UID), zap.String("channel", name))
	c.ToResponse(code.Success, "ChannelJoin")
}

// ChannelLeave unsubscribes the session from a channel.
func (h *BoardWSHandler) ChannelLeave(c *pkgapp.WebsocketClient, msg *pkgapp.WSMessage) {
	params := &dto.ChannelLeaveRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), "ChannelLeave")
		return
	}

	s, ok := sessionOf(c)
	if !ok {
		c.ToResponse(code.ErrorChannelNotJoined, "ChannelLeave")
		return
	}
	ch, ok := s.channel(params.Channel)
	if !ok {
		c.ToResponse(code.ErrorChannelNotJoined, "ChannelLeave")
		return
	}

	_ = ch.Unsubscribe()
	s.dropChannel(params.Channel)
	c.ToResponse(code.Success, "ChannelLeave")
}

// Broadcast fans an event out to the channel's other subscribers.
func (h *BoardWSHandler) Broadcast(c *pkgapp.WebsocketClient, msg *pkgapp.WSMessage) {
	params := &dto.BroadcastRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), "Broadcast")
		return
	}

	s, ok := sessionOf(c)
	if !ok {
		c.ToResponse(code.ErrorChannelNotJoined, "Broadcast")
		return
	}
	ch, ok := s.channel(params.Channel)
	if !ok {
		c.ToResponse(code.ErrorChannelNotJoined, "Broadcast")
		return
	}

	if err := ch.Broadcast(c.Ctx.Request.Context(), params.Event, params.Payload); err != nil {
		c.ToResponse(code.ErrorBroadcastFailed.WithDetails(err.Error()), "Broadcast")
		return
	}
	metrics.BroadcastEvents.WithLabelValues(params.Event).Inc()
}

// PresenceTrack announces the session's presence on a channel. The user
// id and announcement time are server-assigned so a client cannot spoof
// another peer.
func (h *BoardWSHandler) PresenceTrack(c *pkgapp.WebsocketClient, msg *pkgapp.WSMessage) {
	params := &dto.PresenceTrackRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), "PresenceTrack")
		return
	}

	s, ok := sessionOf(c)
	if !ok {
		c.ToResponse(code.ErrorChannelNotJoined, "PresenceTrack")
		return
	}
	ch, ok := s.channel(params.Channel)
	if !ok {
		c.ToResponse(code.ErrorChannelNotJoined, "PresenceTrack")
		return
	}

	userName := params.UserName
	if userName == "" {
		userName = c.User.Nickname
	}
	state := realtime.PresenceState{
		UserID:    strconv.FormatInt(c.User.UID, 10),
		UserName:  userName,
		AvatarURL: params.AvatarURL,
		OnlineAt:  time.Now().UnixMilli(),
	}
	if err := ch.Track(c.Ctx.Request.Context(), state); err != nil {
		c.ToResponse(code.ErrorPresenceFailed.WithDetails(err.Error()), "PresenceTrack")
	}
}

// PresenceUntrack withdraws the session's presence from a channel.
func (h *BoardWSHandler) PresenceUntrack(c *pkgapp.WebsocketClient, msg *pkgapp.WSMessage) {
	params := &dto.PresenceUntrackRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), "PresenceUntrack")
		return
	}

	s, ok := sessionOf(c)
	if !ok {
		c.ToResponse(code.ErrorChannelNotJoined, "PresenceUntrack")
		return
	}
	ch, ok := s.channel(params.Channel)
	if !ok {
		c.ToResponse(code.ErrorChannelNotJoined, "PresenceUntrack")
		return
	}

	if err := ch.Untrack(c.Ctx.Request.Context()); err != nil {
		c.ToResponse(code.ErrorPresenceFailed.WithDetails(err.Error()), "PresenceUntrack")
	}
}
