// Package service implements the server-side application services over
// the dao layer.
package service

import (
	"context"

	"github.com/karkow/idea-board/internal/dao"
	"github.com/karkow/idea-board/internal/dto"
	"github.com/karkow/idea-board/internal/model"
	"github.com/karkow/idea-board/pkg/code"
	"github.com/karkow/idea-board/pkg/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService handles account registration, login and lookup.
type UserService struct {
	dao             *dao.Dao
	tokens          TokenGenerator
	logger          *zap.Logger
	registerEnabled bool
}

// TokenGenerator is the part of the token manager this service needs.
type TokenGenerator interface {
	Generate(uid int64, nickname, avatar string) (string, error)
}

func NewUserService(d *dao.Dao, tokens TokenGenerator, l *zap.Logger, registerEnabled bool) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{dao: d, tokens: tokens, logger: l, registerEnabled: registerEnabled}
}

// Register creates an account and returns a fresh session token.
func (s *UserService) Register(ctx context.Context, params *dto.UserRegisterRequest) (*dto.UserTokenResponse, error) {
	if !s.registerEnabled {
		return nil, code.ErrorUserRegisterClosed
	}

	if _, err := s.dao.WithContext(ctx).UserGetByEmail(params.Email); err == nil {
		return nil, code.ErrorUserEmailExist
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "check email")
	}

	hash, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user, err := s.dao.WithContext(ctx).UserCreate(&model.User{
		Email:    params.Email,
		Password: hash,
		Nickname: params.Nickname,
		Avatar:   params.Avatar,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	s.logger.Info("user registered",
		zap.Int64("uid", user.UID), zap.String("email", user.Email))
	return s.tokenResponse(user)
}

// Login verifies credentials and returns a session token.
func (s *UserService) Login(ctx context.Context, params *dto.UserLoginRequest) (*dto.UserTokenResponse, error) {
	user, err := s.dao.WithContext(ctx).UserGetByEmail(params.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorUserLoginFailed
		}
		return nil, errors.Wrap(err, "load user")
	}
	if !util.CheckPasswordHash(user.Password, params.Password) {
		return nil, code.ErrorUserLoginFailed
	}
	return s.tokenResponse(user)
}

// Info returns the account behind uid.
func (s *UserService) Info(ctx context.Context, uid int64) (*dto.UserInfoResponse, error) {
	user, err := s.dao.WithContext(ctx).UserGetByUID(uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorUserNotExist
		}
		return nil, errors.Wrap(err, "load user")
	}
	return &dto.UserInfoResponse{
		UID:      user.UID,
		Email:    user.Email,
		Nickname: user.Nickname,
		Avatar:   user.Avatar,
	}, nil
}

func (s *UserService) tokenResponse(user *model.User) (*dto.UserTokenResponse, error) {
	token, err := s.tokens.Generate(user.UID, user.Nickname, user.Avatar)
	if err != nil {
		return nil, errors.Wrap(err, "generate token")
	}
	return &dto.UserTokenResponse{
		Token:    token,
		UID:      user.UID,
		Email:    user.Email,
		Nickname: user.Nickname,
		Avatar:   user.Avatar,
	}, nil
}
