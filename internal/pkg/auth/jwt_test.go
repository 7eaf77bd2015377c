package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Storefront"},
		JWT: config.JWTConfig{
			Secret:            "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry: time.Hour,
		},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager(testConfig())

	token, err := manager.GenerateAccessToken(42, "ana@example.com", true)
	require.NoError(t, err)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.IsAdmin)

	identity := IdentityFromClaims(token, claims)
	assert.True(t, identity.Authenticated())
	assert.Equal(t, "ana@example.com", identity.Email)
	assert.False(t, Identity{}.Authenticated())
}

func TestValidateRejects(t *testing.T) {
	cfg := testConfig()
	manager := NewJWTManager(cfg)

	other := testConfig()
	other.JWT.Secret = "ffffffffffffffffffffffffffffffff"
	forged, err := NewJWTManager(other).GenerateAccessToken(1, "x@example.com", false)
	require.NoError(t, err)
	_, err = manager.ValidateAccessToken(forged)
	assert.Error(t, err, "wrong secret")

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:    1,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := refresh.SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)
	_, err = manager.ValidateAccessToken(signed)
	assert.Error(t, err, "refresh tokens are not access tokens")

	cfg.JWT.AccessTokenExpiry = -time.Minute
	expired, err := manager.GenerateAccessToken(1, "x@example.com", false)
	require.NoError(t, err)
	_, err = manager.ValidateAccessToken(expired)
	assert.Error(t, err, "expired")
}

func TestIssuerIsEnforcedWhenConfigured(t *testing.T) {
	issuing := testConfig()
	issuing.JWT.Issuer = "auth-service"
	token, err := NewJWTManager(issuing).GenerateAccessToken(1, "x@example.com", false)
	require.NoError(t, err)

	strict := testConfig()
	strict.JWT.Issuer = "someone-else"
	_, err = NewJWTManager(strict).ValidateAccessToken(token)
	assert.Error(t, err)

	_, err = NewJWTManager(issuing).ValidateAccessToken(token)
	assert.NoError(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Empty(t, ExtractTokenFromHeader("Token abc"))
	assert.Empty(t, ExtractTokenFromHeader("Bearer "))
	assert.Empty(t, ExtractTokenFromHeader(""))
}
