// Package routers assembles the gin engine: middleware chain, HTTP API
// routes and the WebSocket entry of the realtime board.
package routers

import (
	"time"

	"github.com/karkow/idea-board/global"
	"github.com/karkow/idea-board/internal/app"
	"github.com/karkow/idea-board/internal/middleware"
	"github.com/karkow/idea-board/internal/routers/api_router"
	"github.com/karkow/idea-board/internal/routers/websocket_router"
	pkgapp "github.com/karkow/idea-board/pkg/app"

	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP engine and its WebSocket hub.
func NewRouter(a *app.App) *gin.Engine {
	cfg := a.Config()
	gin.SetMode(cfg.Server.RunMode)

	r := gin.New()
	r.Use(middleware.AppInfoWithConfig(global.Name, app.Version))
	r.Use(middleware.RateLimiter(middleware.BucketRule{
		Key:          "/user/",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	}))
	r.Use(middleware.ContextTimeout(time.Duration(cfg.Server.DefaultContextTimeout) * time.Second))
	r.Use(middleware.Cors())
	r.Use(middleware.AccessLogWithLogger(a.Logger()))
	r.Use(middleware.RecoveryWithLogger(a.Logger()))

	h := api_router.NewHandler(a)
	authRequired := middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/user/register", h.UserRegister)
		api.POST("/user/login", h.UserLogin)
		api.GET("/user/info", authRequired, h.UserInfo)
		api.GET("/notes", authRequired, h.NoteList)
		api.GET("/board/config", h.BoardConfig)
	}

	wss := newWebsocketServer(a)
	r.GET("/api/board/sync", wss.Run())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(middleware.NoFound())

	return r
}

// newWebsocketServer wires the board actions into the WebSocket hub.
func newWebsocketServer(a *app.App) *pkgapp.WebsocketServer {
	wss := pkgapp.NewWebsocketServer(pkgapp.WSConfig{
		GWSOption: gws.ServerOption{
			ParallelEnabled:   true,
			Recovery:          gws.Recovery,
			PermessageDeflate: gws.PermessageDeflate{Enabled: true},
		},
	}, a.TokenManager().Parse, a.Logger())

	board := websocket_router.NewBoardWSHandler(a)
	wss.OnAuthorize(board.Authorize)
	wss.OnDisconnect(board.Disconnect)
	wss.Use("ChannelJoin", board.ChannelJoin)
	wss.Use("ChannelLeave", board.ChannelLeave)
	wss.Use("Broadcast", board.Broadcast)
	wss.Use("PresenceTrack", board.PresenceTrack)
	wss.Use("PresenceUntrack", board.PresenceUntrack)

	return wss
}
