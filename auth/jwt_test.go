package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	ts := NewTokenService([]byte("super-secret"), time.Hour)
	tok, err := ts.Issue("user-123")
	require.NoError(t, err)

	id, err := ts.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)
}

func TestTokenService_DefaultTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := NewTokenService([]byte("k"), 0)
	ts.now = func() time.Time { return now }

	tok, err := ts.Issue("u1")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, "u1", claims.ID)
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenService([]byte("secret"), DefaultTokenTTL)
	issuer.now = func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }
	tok, err := issuer.Issue("u1")
	require.NoError(t, err)

	_, err = NewTokenService([]byte("secret"), DefaultTokenTTL).Verify(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("right-secret")
	ts := NewTokenService(secret, time.Hour)
	good, err := ts.Issue("u1")
	require.NoError(t, err)

	// flip a byte well inside the signature segment
	tampered := []byte(good)
	i := len(tampered) - 10
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}

	wrongSecret, err := NewTokenService([]byte("wrong-secret"), time.Hour).Issue("u1")
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		ID:               "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		ID:               "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{ID: "u1"}).SignedString(secret)
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"tampered signature", string(tampered), ErrInvalidSignature},
		{"wrong secret", wrongSecret, ErrInvalidSignature},
		{"hs512", hs512, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
		{"no expiry", noExpiry, ErrMalformedToken},
		{"no id", noID, ErrMalformedToken},
		{"garbage", "not.a.jwt", ErrMalformedToken},
		{"empty", "", ErrMalformedToken},
		{"two segments", strings.Join(strings.Split(good, ".")[:2], "."), ErrMalformedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ts.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Empty(t, id)
		})
	}
}
