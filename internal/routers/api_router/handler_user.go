package api_router

import (
	"github.com/karkow/idea-board/internal/dto"
	pkgapp "github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/gin-gonic/gin"
)

// UserRegister creates an account.
// POST /api/user/register
func (h *Handler) UserRegister(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserRegisterRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	result, err := h.App.UserService().Register(c.Request.Context(), params)
	if err != nil {
		h.toErrResponse(response, err, "user register")
		return
	}
	response.ToResponse(code.Success.WithData(result))
}

// UserLogin verifies credentials and issues a session token.
// POST /api/user/login
func (h *Handler) UserLogin(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserLoginRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	result, err := h.App.UserService().Login(c.Request.Context(), params)
	if err != nil {
		h.toErrResponse(response, err, "user login")
		return
	}
	response.ToResponse(code.Success.WithData(result))
}

// UserInfo returns the authenticated account.
// GET /api/user/info
func (h *Handler) UserInfo(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	result, err := h.App.UserService().Info(c.Request.Context(), uid)
	if err != nil {
		h.toErrResponse(response, err, "user info")
		return
	}
	response.ToResponse(code.Success.WithData(result))
}
