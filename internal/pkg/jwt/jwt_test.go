package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	s := New("secret", time.Hour)
	tok, err := s.GenerateToken(7, "teacher")
	require.NoError(t, err)

	claims, err := s.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestValidateToken_Rejects(t *testing.T) {
	s := New("secret", time.Hour)

	expired := New("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldTok, err := expired.GenerateToken(1, "admin")
	require.NoError(t, err)

	foreign, err := New("other", time.Hour).GenerateToken(1, "admin")
	require.NoError(t, err)

	none, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.MapClaims{"role": "admin", "iss": issuer}).
		SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":  oldTok,
		"foreign":  foreign,
		"alg none": none,
		"garbage":  "not-a-token",
		"empty":    "",
	} {
		_, err := s.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestGenerateToken_RequiresRole(t *testing.T) {
	_, err := New("secret", time.Hour).GenerateToken(1, "")
	assert.Error(t, err)
}
