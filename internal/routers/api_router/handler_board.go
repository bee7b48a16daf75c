package api_router

import (
	"github.com/karkow/idea-board/internal/dto"
	pkgapp "github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/gin-gonic/gin"
)

// BoardConfig returns the board policy clients build their engines from.
// GET /api/board/config
func (h *Handler) BoardConfig(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()
	response.ToResponse(code.Success.WithData(&dto.BoardConfigResponse{
		NoteLimit:          cfg.Board.NoteLimit,
		PresenceIntervalMs: cfg.GetPresenceInterval().Milliseconds(),
		DragCooldownMs:     cfg.GetDragCooldown().Milliseconds(),
		SpawnMinX:          cfg.Board.SpawnMinX,
		SpawnMaxX:          cfg.Board.SpawnMaxX,
		SpawnMinY:          cfg.Board.SpawnMinY,
		SpawnMaxY:          cfg.Board.SpawnMaxY,
	}))
}
