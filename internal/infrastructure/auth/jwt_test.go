package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labelbridge/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.AuthConfig{
		Enabled:  true,
		Secret:   "test-secret-key-at-least-32-chars",
		Issuer:   "test-issuer",
		TokenTTL: 15 * time.Minute,
	})
}

func TestNewJWTService(t *testing.T) {
	cfg := config.AuthConfig{
		Secret:   "test-secret",
		Issuer:   "test-issuer",
		TokenTTL: time.Hour,
	}

	svc := NewJWTService(cfg)

	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.Issuer, svc.issuer)
	assert.Equal(t, cfg.TokenTTL, svc.expiration)
}

func TestGenerateToken(t *testing.T) {
	svc := newTestJWTService()
	before := time.Now()

	token, expiresAt, err := svc.GenerateToken("packing-station-1", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, before.Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "packing-station-1", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, expiresAt, claims.GetExpiresAtTime(), time.Second)
}

func TestGenerateToken_CustomTTL(t *testing.T) {
	svc := newTestJWTService()

	_, expiresAt, err := svc.GenerateToken("cli", 2*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, 5*time.Second)
}

func TestGenerateToken_Errors(t *testing.T) {
	_, _, err := newTestJWTService().GenerateToken("", 0)
	assert.ErrorIs(t, err, ErrMissingSubject)

	_, _, err = NewJWTService(config.AuthConfig{}).GenerateToken("cli", 0)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.GenerateToken("cli", time.Minute)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_NotYetValid(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	token, _, err := svc.GenerateToken("cli", time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidateToken_InvalidToken(t *testing.T) {
	_, err := newTestJWTService().ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_DifferentSecret(t *testing.T) {
	other := NewJWTService(config.AuthConfig{
		Secret:   "another-secret-key-at-least-32-chars",
		Issuer:   "test-issuer",
		TokenTTL: time.Minute,
	})
	token, _, err := other.GenerateToken("cli", 0)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTService(config.AuthConfig{
		Secret:   "test-secret-key-at-least-32-chars",
		Issuer:   "someone-else",
		TokenTTL: time.Minute,
	})
	token, _, err := other.GenerateToken("cli", 0)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "cli", Issuer: "test-issuer"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("test-secret-key-at-least-32-chars"))
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrMissingSubject)
}
