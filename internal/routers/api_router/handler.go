// Package api_router implements the HTTP API surface: accounts, note
// listing and service health.
package api_router

import (
	"github.com/karkow/idea-board/internal/app"
	pkgapp "github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Handler is the shared base of all HTTP handlers.
type Handler struct {
	App *app.App
}

func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// toErrResponse maps a service error onto a coded response. Registered
// codes pass through as-is; anything else is an internal error and gets
// logged with its cause chain.
func (h *Handler) toErrResponse(response *pkgapp.Response, err error, op string) {
	var c *code.Code
	if errors.As(err, &c) {
		response.ToResponse(c)
		return
	}
	h.App.Logger().Error(op+" failed", zap.Error(err))
	response.ToResponse(code.ErrorServerInternal)
}
