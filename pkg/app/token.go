package app

import (
	"fmt"
	"time"

	"github.com/karkow/idea-board/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenIssuer = "idea-board"

// TokenConfig configures the token manager.
type TokenConfig struct {
	SecretKey string        `yaml:"secret-key"`
	Expiry    time.Duration `yaml:"expiry"`
	Issuer    string        `yaml:"issuer"`
}

// TokenManager issues and parses user session tokens.
type TokenManager interface {
	Generate(uid int64, nickname, avatar string) (string, error)
	Parse(token string) (*UserEntity, error)
	Validate(token string) error
}

type tokenManager struct {
	config TokenConfig
}

func NewTokenManager(cfg TokenConfig) TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = 30 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &tokenManager{config: cfg}
}

// UserEntity is the authenticated user as carried inside the JWT.
type UserEntity struct {
	UID      int64  `json:"uid"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	jwt.RegisteredClaims
}

func (t *tokenManager) signingKey() []byte {
	return []byte(t.config.SecretKey + "_" + util.GetMachineID())
}

func (t *tokenManager) Generate(uid int64, nickname, avatar string) (string, error) {
	now := time.Now()
	claims := &UserEntity{
		UID:      uid,
		Nickname: nickname,
		Avatar:   avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    t.config.Issuer,
			Subject:   "user-token",
			ID:        fmt.Sprintf("%d", uid),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.signingKey())
}

func (t *tokenManager) Parse(token string) (*UserEntity, error) {
	return parseToken(token, t.signingKey())
}

func (t *tokenManager) Validate(token string) error {
	_, err := t.Parse(token)
	return err
}

// ParseTokenWithKey parses a token with an explicit secret, for callers
// without a manager instance.
func ParseTokenWithKey(tokenString string, secretKey string) (*UserEntity, error) {
	return parseToken(tokenString, []byte(secretKey+"_"+util.GetMachineID()))
}

func parseToken(tokenString string, key []byte) (*UserEntity, error) {
	claims := &UserEntity{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GetUser extracts the authenticated user from the request context.
func GetUser(ctx *gin.Context) *UserEntity {
	if v, exist := ctx.Get("user_token"); exist {
		if user, ok := v.(*UserEntity); ok {
			return user
		}
	}
	return nil
}

// GetUID extracts the user id from the request context, 0 when absent.
func GetUID(ctx *gin.Context) int64 {
	if user := GetUser(ctx); user != nil {
		return user.UID
	}
	return 0
}
