package utils

import (
	"testing"
	"time"

	"wonderwomen/internal/pkg/config"
	baseModel "wonderwomen/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "0123456789abcdef0123456789abcdef"
	config.GlobalConfig.JWT.Expire = 1
	ada := baseModel.Actor{ID: "u1", Name: "Ada", Role: "admin"}

	t.Run("round trip", func(t *testing.T) {
		token, expireAt, err := GenerateToken(ada)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expireAt, time.Minute)

		claims, err := ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, ada, claims.Actor())
	})

	t.Run("foreign secret", func(t *testing.T) {
		token, _, err := GenerateToken(ada)
		require.NoError(t, err)

		config.GlobalConfig.JWT.Secret = "fedcba9876543210fedcba9876543210"
		defer func() { config.GlobalConfig.JWT.Secret = "0123456789abcdef0123456789abcdef" }()
		_, err = ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("missing user id", func(t *testing.T) {
		token, _, err := GenerateToken(baseModel.Actor{Name: "ghost"})
		require.NoError(t, err)
		_, err = ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Pagination{Page: 2, Limit: 2}
	assert.Equal(t, []int{3, 4}, Paginate(items, &p))

	p = Pagination{Page: 9, Limit: 2}
	assert.Empty(t, Paginate(items, &p))

	p = Pagination{}
	assert.Equal(t, items, Paginate(items, &p))
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
}
