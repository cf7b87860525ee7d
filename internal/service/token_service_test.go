package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("secret", time.Hour)
	token, err := svc.Issue("6f1c2d9e-0000-4000-8000-000000000001")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "6f1c2d9e-0000-4000-8000-000000000001", claims.SessionID())
}

func TestTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.Issue("sid")
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Validate(token)
	require.Error(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestTokenRejectsOtherTokenTypes(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("secret", time.Hour)
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "sid"},
		TokenType:        "admin",
	})
	signed, err := other.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	require.Error(t, err)
}
