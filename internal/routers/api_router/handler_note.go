package api_router

import (
	pkgapp "github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoteList returns the most recent notes, newest first.
// GET /api/notes
func (h *Handler) NoteList(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	notes, err := h.App.NoteService().List(c.Request.Context())
	if err != nil {
		h.App.Logger().Error("note list failed", zap.Error(err))
		response.ToResponse(code.ErrorNoteListFailed)
		return
	}
	response.ToResponseList(notes, int64(len(notes)))
}
