package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/karkow/idea-board/internal/dao"
	"github.com/karkow/idea-board/internal/dto"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTokens issues predictable tokens so tests do not depend on signing.
type stubTokens struct{}

func (stubTokens) Generate(uid int64, nickname, avatar string) (string, error) {
	return fmt.Sprintf("token-%d", uid), nil
}

func newTestDao(t *testing.T) *dao.Dao {
	t.Helper()
	db, err := dao.NewDBEngine(dao.DatabaseConfig{
		Type:         "sqlite",
		Path:         ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	d := dao.New(db, context.Background(), nil)
	require.NoError(t, d.AutoMigrate())
	return d
}

func newTestUserService(t *testing.T, registerEnabled bool) *UserService {
	t.Helper()
	return NewUserService(newTestDao(t), stubTokens{}, nil, registerEnabled)
}

func TestUserRegisterAndLogin(t *testing.T) {
	s := newTestUserService(t, true)
	ctx := context.Background()

	reg, err := s.Register(ctx, &dto.UserRegisterRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
		Nickname: "Alice",
	})
	require.NoError(t, err)
	assert.NotZero(t, reg.UID)
	assert.Equal(t, fmt.Sprintf("token-%d", reg.UID), reg.Token)

	login, err := s.Login(ctx, &dto.UserLoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, reg.UID, login.UID)
	assert.Equal(t, "Alice", login.Nickname)
}

func TestUserRegisterDuplicateEmail(t *testing.T) {
	s := newTestUserService(t, true)
	ctx := context.Background()

	_, err := s.Register(ctx, &dto.UserRegisterRequest{
		Email: "alice@example.com", Password: "s3cret-pass", Nickname: "Alice",
	})
	require.NoError(t, err)

	_, err = s.Register(ctx, &dto.UserRegisterRequest{
		Email: "alice@example.com", Password: "other-pass", Nickname: "Imposter",
	})
	assert.ErrorIs(t, err, code.ErrorUserEmailExist)
}

func TestUserRegisterDisabled(t *testing.T) {
	s := newTestUserService(t, false)
	_, err := s.Register(context.Background(), &dto.UserRegisterRequest{
		Email: "alice@example.com", Password: "s3cret-pass", Nickname: "Alice",
	})
	assert.ErrorIs(t, err, code.ErrorUserRegisterClosed)
}

func TestUserLoginWrongCredentials(t *testing.T) {
	s := newTestUserService(t, true)
	ctx := context.Background()

	_, err := s.Register(ctx, &dto.UserRegisterRequest{
		Email: "alice@example.com", Password: "s3cret-pass", Nickname: "Alice",
	})
	require.NoError(t, err)

	_, err = s.Login(ctx, &dto.UserLoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, code.ErrorUserLoginFailed)

	_, err = s.Login(ctx, &dto.UserLoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, code.ErrorUserLoginFailed)
}

func TestUserInfo(t *testing.T) {
	s := newTestUserService(t, true)
	ctx := context.Background()

	reg, err := s.Register(ctx, &dto.UserRegisterRequest{
		Email: "alice@example.com", Password: "s3cret-pass", Nickname: "Alice",
	})
	require.NoError(t, err)

	info, err := s.Info(ctx, reg.UID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", info.Email)

	_, err = s.Info(ctx, reg.UID+100)
	assert.ErrorIs(t, err, code.ErrorUserNotExist)
}
