package utils

import (
	"errors"
	"time"

	"wonderwomen/internal/pkg/config"
	baseModel "wonderwomen/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "wonderwomen"

// Claims 会话令牌携带的用户身份
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Actor 转换为领域层的操作者
func (c *Claims) Actor() baseModel.Actor {
	return baseModel.Actor{ID: baseModel.ID(c.UserID), Name: c.Name, Role: c.Role}
}

func tokenTTL() time.Duration {
	hours := config.GlobalConfig.JWT.Expire
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// GenerateToken 为登录用户签发令牌
func GenerateToken(actor baseModel.Actor) (string, time.Time, error) {
	now := time.Now()
	expireAt := now.Add(tokenTTL())

	claims := Claims{
		UserID: actor.ID.String(),
		Name:   actor.Name,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.GlobalConfig.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expireAt, nil
}

// ParseToken 校验签名、签发者和有效期
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(config.GlobalConfig.JWT.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.Join(jwt.ErrTokenInvalidClaims, errors.New("missing user id"))
	}
	return claims, nil
}
