package auth

import (
	"testing"
	"time"

	"github.com/boutique/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func jwtConfig(mutate ...func(*config.JWTConfig)) config.JWTConfig {
	cfg := config.JWTConfig{
		Secret:                 testSecret,
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "boutique-test",
		MaxRefreshCount:        10,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return cfg
}

func staffInput() GenerateTokenInput {
	return GenerateTokenInput{UserID: uuid.New(), Email: "ana@example.com", IsStaff: true}
}

func TestNewJWTService_RefreshSecretFallback(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "only-secret"})
	assert.Equal(t, []byte("only-secret"), svc.refresh.secret)
	assert.Equal(t, TokenTypeRefresh, svc.refresh.kind)
}

func TestGenerateTokenPair(t *testing.T) {
	svc := NewJWTService(jwtConfig())
	in := staffInput()

	pair, err := svc.GenerateTokenPair(in)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	access, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, in.UserID.String(), access.UserID)
	assert.Equal(t, in.UserID.String(), access.Subject)
	assert.Equal(t, in.Email, access.Email)
	assert.True(t, access.IsStaff)
	assert.Equal(t, "boutique-test", access.Issuer)
	assert.Greater(t, access.GetRemainingTTL(), 14*time.Minute)

	id, err := access.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, in.UserID, id)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.False(t, refresh.IsStaff, "refresh tokens carry no staff flag")
	assert.Empty(t, refresh.Email)
	assert.Zero(t, refresh.RefreshCount)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateAccessToken_Rejections(t *testing.T) {
	pair, err := NewJWTService(jwtConfig()).GenerateTokenPair(staffInput())
	require.NoError(t, err)

	expired, err := NewJWTService(jwtConfig(func(c *config.JWTConfig) {
		c.AccessTokenExpiration = -time.Hour
	})).GenerateTokenPair(staffInput())
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID:    uuid.NewString(),
		TokenType: TokenTypeAccess,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		svc   *JWTService
		token string
		want  error
	}{
		{"garbage", NewJWTService(jwtConfig()), "not-a-token", ErrInvalidToken},
		{"foreign secret", NewJWTService(jwtConfig(func(c *config.JWTConfig) {
			c.Secret = "another-secret-key-at-least-32-chars"
		})), pair.AccessToken, ErrInvalidToken},
		{"unsigned", NewJWTService(jwtConfig()), none, ErrInvalidToken},
		{"expired", NewJWTService(jwtConfig()), expired.AccessToken, ErrExpiredToken},
		{"refresh as access", NewJWTService(jwtConfig(func(c *config.JWTConfig) {
			c.RefreshSecret = ""
		})), mustPair(t, func(c *config.JWTConfig) { c.RefreshSecret = "" }).RefreshToken, ErrInvalidTokenType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func mustPair(t *testing.T, mutate func(*config.JWTConfig)) *TokenPair {
	t.Helper()
	pair, err := NewJWTService(jwtConfig(mutate)).GenerateTokenPair(staffInput())
	require.NoError(t, err)
	return pair
}

func TestRefreshTokenPair_RejectsAccessToken(t *testing.T) {
	shared := func(c *config.JWTConfig) { c.RefreshSecret = "" }
	svc := NewJWTService(jwtConfig(shared))
	pair := mustPair(t, shared)

	_, err := svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
	_, err = svc.RefreshTokenPair(pair.AccessToken, "ana@example.com", false)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestRefreshTokenPair_Rotation(t *testing.T) {
	svc := NewJWTService(jwtConfig(func(c *config.JWTConfig) { c.MaxRefreshCount = 2 }))
	in := staffInput()

	pair, err := svc.GenerateTokenPair(in)
	require.NoError(t, err)

	rotated, err := svc.RefreshTokenPair(pair.RefreshToken, "new@example.com", false)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	access, err := svc.ValidateAccessToken(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", access.Email)
	assert.False(t, access.IsStaff, "staff flag comes from the caller")
	assert.Equal(t, in.UserID.String(), access.UserID)

	rotated, err = svc.RefreshTokenPair(rotated.RefreshToken, "new@example.com", false)
	require.NoError(t, err)
	claims, err := svc.ValidateRefreshToken(rotated.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 2, claims.RefreshCount)

	_, err = svc.RefreshTokenPair(rotated.RefreshToken, "new@example.com", false)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	assert.Zero(t, (&Claims{}).GetRemainingTTL())

	past := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}
	assert.Zero(t, past.GetRemainingTTL())
}
