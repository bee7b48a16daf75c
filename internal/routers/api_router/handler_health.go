package api_router

import (
	"github.com/karkow/idea-board/internal/app"
	pkgapp "github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and the running build.
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	response.ToResponse(code.Success.WithData(pkgapp.VersionInfo{
		Version:   app.Version,
		GitTag:    app.GitTag,
		BuildTime: app.BuildTime,
	}))
}
