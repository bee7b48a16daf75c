// Package dto defines the request and response shapes of the HTTP and
// WebSocket boundary.
package dto

type UserRegisterRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=6" validate:"required,min=6"`
	Nickname string `json:"nickname" binding:"required" validate:"required"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type UserTokenResponse struct {
	Token    string `json:"token"`
	UID      int64  `json:"uid"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type UserInfoResponse struct {
	UID      int64  `json:"uid"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}
