// Package app carries the HTTP/WebSocket plumbing shared by all routers:
// unified responses, request binding, token management and the websocket
// channel hub.
package app

import (
	"github.com/karkow/idea-board/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

// Res is the unified response body: Code/Status/Message plus optional
// Data and Details (omitted when empty).
type Res struct {
	Code    int    `json:"code"`
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ListRes wraps list payloads with their total count.
type ListRes struct {
	List  any   `json:"list"`
	Count int64 `json:"count"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{Ctx: ctx}
}

func (r *Response) ToResponse(c *code.Code) {
	res := Res{
		Code:    c.Code(),
		Status:  c.Status(),
		Message: c.Msg(),
	}
	if c.HaveData() {
		res.Data = c.Data()
	}
	if c.HaveDetails() {
		res.Details = c.Details()
	}
	r.Ctx.JSON(c.StatusCode(), res)
}

func (r *Response) ToResponseList(list any, count int64) {
	r.ToResponse(code.Success.WithData(ListRes{List: list, Count: count}))
}

// GetRequestIP returns the caller address, honoring proxies gin trusts.
func GetRequestIP(c *gin.Context) string {
	return c.ClientIP()
}
