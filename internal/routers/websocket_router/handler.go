// Package websocket_router bridges WebSocket sessions onto the realtime
// broker: clients join named channels, broadcast events to peers and
// track presence state.
package websocket_router

import (
	"sync"

	"github.com/karkow/idea-board/internal/app"
	"github.com/karkow/idea-board/internal/realtime"
	pkgapp "github.com/karkow/idea-board/pkg/app"
)

// WSHandler is the shared base of all WebSocket handlers.
type WSHandler struct {
	App *app.App
}

func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

// session is the per-connection realtime state attached to an authorized
// client.
type session struct {
	transport realtime.Transport

	mu       sync.Mutex
	channels map[string]realtime.Channel
}

func newSession(t realtime.Transport) *session {
	return &session{
		transport: t,
		channels:  make(map[string]realtime.Channel),
	}
}

func (s *session) channel(name string) (realtime.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[name]
	return ch, ok
}

func (s *session) putChannel(name string, ch realtime.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[name] = ch
}

func (s *session) dropChannel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, name)
}

func (s *session) close() {
	_ = s.transport.Close()
}

func sessionOf(c *pkgapp.WebsocketClient) (*session, bool) {
	s, ok := c.Session.(*session)
	return s, ok
}
