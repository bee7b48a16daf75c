package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/karkow/idea-board/pkg/code"
	"github.com/karkow/idea-board/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second
)

// WSMessage is one parsed text frame: "Type|{json payload}".
type WSMessage struct {
	Type string
	Data []byte
}

type WSConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// WebsocketClient stores one WebSocket connection and its session state.
type WebsocketClient struct {
	conn *gws.Conn
	done chan struct{}
	Ctx  *gin.Context
	User *UserEntity
	// Session carries router-owned per-connection state, e.g. the
	// client's realtime transport. Set during authorization, cleaned up
	// on disconnect.
	Session any
}

// BindAndValid decodes and validates a message payload.
func (c *WebsocketClient) BindAndValid(data []byte, obj any) (bool, ValidErrors) {
	return BindJSONAndValid(data, obj)
}

// PingLoop keeps the connection's liveness deadline fresh.
func (c *WebsocketClient) PingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.conn == nil {
				return
			}
			if err := c.conn.WritePing(nil); err != nil {
				return
			}
		}
	}
}

// ToResponse sends a coded result to this client, optionally tagged with
// an action type.
func (c *WebsocketClient) ToResponse(result *code.Code, action ...string) {
	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}
	res := Res{
		Code:    result.Code(),
		Status:  result.Status(),
		Message: result.Msg(),
	}
	if result.HaveData() {
		res.Data = result.Data()
	}
	if result.HaveDetails() {
		res.Details = strings.Join(result.Details(), ",")
	}
	c.Send(actionType, res)
}

// Send writes one framed message to this client.
func (c *WebsocketClient) Send(actionType string, content any) {
	payload, _ := json.Marshal(content)
	if actionType != "" {
		payload = []byte(fmt.Sprintf("%s|%s", actionType, payload))
	}
	_ = c.conn.WriteMessage(gws.OpcodeText, payload)
}

// Close shuts the connection down with a reason.
func (c *WebsocketClient) Close(reason string) {
	c.conn.WriteClose(1000, []byte(reason))
}

// ------------------------------------------------------------- server

// AuthorizeFunc runs after a client's token is verified; it attaches the
// session state. Returning an error rejects the connection.
type AuthorizeFunc func(c *WebsocketClient) error

// DisconnectFunc runs when an authorized client disconnects.
type DisconnectFunc func(c *WebsocketClient)

// TokenParseFunc verifies an authorization token.
type TokenParseFunc func(token string) (*UserEntity, error)

// WebsocketServer is the gws event handler hosting all board clients.
// Clients authorize first; every later frame is dispatched to the
// registered action handler.
type WebsocketServer struct {
	handlers     map[string]func(*WebsocketClient, *WSMessage)
	tokenParse   TokenParseFunc
	onAuthorize  AuthorizeFunc
	onDisconnect DisconnectFunc

	mu      sync.Mutex
	clients map[*gws.Conn]*WebsocketClient

	up     *gws.Upgrader
	config *WSConfig
	logger *zap.Logger
}

func NewWebsocketServer(c WSConfig, tokenParse TokenParseFunc, l *zap.Logger) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if l == nil {
		l = zap.NewNop()
	}
	w := &WebsocketServer{
		handlers:   make(map[string]func(*WebsocketClient, *WSMessage)),
		tokenParse: tokenParse,
		clients:    make(map[*gws.Conn]*WebsocketClient),
		config:     &c,
		logger:     l,
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	return w
}

// Use registers the handler for one action type.
func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WSMessage)) {
	w.handlers[action] = handler
}

// OnAuthorize registers the post-authorization session hook.
func (w *WebsocketServer) OnAuthorize(fn AuthorizeFunc) {
	w.onAuthorize = fn
}

// OnDisconnect registers the session cleanup hook.
func (w *WebsocketServer) OnDisconnect(fn DisconnectFunc) {
	w.onDisconnect = fn
}

// Run returns the gin handler upgrading requests into board sessions.
func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &WebsocketClient{
			conn: socket,
			done: make(chan struct{}),
			Ctx:  c,
		}
		w.addClient(client)
		go socket.ReadLoop()
	}
}

func (w *WebsocketServer) authorize(c *WebsocketClient, msg *WSMessage) {
	reject := func(err error) {
		w.logger.Warn("websocket authorization failed", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken, "Authorization")
		c.Close("AuthorizationFailed")
	}

	user, err := w.tokenParse(string(msg.Data))
	if err != nil {
		reject(err)
		return
	}
	c.User = user

	if w.onAuthorize != nil {
		if err := w.onAuthorize(c); err != nil {
			reject(err)
			return
		}
	}

	c.ToResponse(code.Success, "Authorization")
	w.logger.Info("websocket user enters",
		zap.Int64("uid", user.UID),
		zap.String("nickname", user.Nickname))
	go c.PingLoop(w.config.PingInterval)
}

func (w *WebsocketServer) getClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clients[conn]
}

func (w *WebsocketServer) addClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
	metrics.WSClients.Set(float64(len(w.clients)))
}

func (w *WebsocketServer) removeClient(conn *gws.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.clients, conn)
	metrics.WSClients.Set(float64(len(w.clients)))
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	c := w.getClient(conn)
	w.removeClient(conn)
	if c == nil {
		return
	}
	close(c.done)
	if c.User != nil {
		w.logger.Info("websocket user leaves", zap.Int64("uid", c.User.UID))
		if w.onDisconnect != nil {
			w.onDisconnect(c)
		}
	}
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	if message.Data.String() == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.getClient(conn)
	if c == nil {
		return
	}

	messageStr := message.Data.String()
	index := strings.Index(messageStr, "|")
	if index == -1 {
		w.logger.Warn("websocket illegal message framing")
		return
	}
	msg := WSMessage{
		Type: messageStr[:index],
		Data: []byte(messageStr[index+1:]),
	}

	if msg.Type == "Authorization" {
		w.authorize(c, &msg)
		return
	}
	if c.User == nil {
		c.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	handler, exists := w.handlers[msg.Type]
	if !exists {
		w.logger.Warn("websocket unknown message type", zap.String("type", msg.Type))
		return
	}
	handler(c, &msg)
}
