package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	tenantID := id.New().String()

	token, exp, err := svc.GenerateAccessToken("u1", tenantID, "kasir", "STAFF")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
	assert.Equal(t, tenantID, user.TenantID)
	assert.Equal(t, "kasir", user.Username)
	assert.Equal(t, "STAFF", user.Role)
}

func TestJWT_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	tenantID := id.New().String()

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(DefaultJWTConfig("other"))
		token, _, err := other.GenerateAccessToken("u1", tenantID, "", "OWNER")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewJWTService(DefaultJWTConfig("secret"))
		old.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
		token, _, err := old.GenerateAccessToken("u1", tenantID, "", "OWNER")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken("u1", tenantID, "", "CEO")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidClaims))
	})

	t.Run("bad tenant", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken("u1", "shop-1", "", "OWNER")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidClaims))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestJWT_RejectsOtherAlgorithms(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "stockledger",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:   "u1",
		TenantID: id.New().String(),
		Role:     "OWNER",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	claims.ExpiresAt = nil
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err, "tokens without expiry are refused")
}
