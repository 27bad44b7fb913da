package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestMintAndVerify(t *testing.T) {
	verifier, err := NewJWTVerifier(testSecret, "pt-server")
	require.NoError(t, err)

	token, err := MintToken(testSecret, "pt-server", Identity{Subject: "user-123", Email: "a@b.c"}, time.Hour)
	require.NoError(t, err)

	identity, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{Subject: "user-123", Email: "a@b.c"}, *identity)
}

func TestVerifyRejects(t *testing.T) {
	verifier, err := NewJWTVerifier(testSecret, "pt-server")
	require.NoError(t, err)

	expired, err := MintToken(testSecret, "pt-server", Identity{Subject: "s", Email: "e@x"}, -time.Minute)
	require.NoError(t, err)
	_, err = verifier.Verify(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	wrongSecret, err := MintToken("other", "pt-server", Identity{Subject: "s", Email: "e@x"}, time.Hour)
	require.NoError(t, err)
	_, err = verifier.Verify(wrongSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := MintToken(testSecret, "someone-else", Identity{Subject: "s", Email: "e@x"}, time.Hour)
	require.NoError(t, err)
	_, err = verifier.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noEmail, err := MintToken(testSecret, "pt-server", Identity{Subject: "s"}, time.Hour)
	require.NoError(t, err)
	_, err = verifier.Verify(noEmail)
	assert.ErrorIs(t, err, ErrMissingClaims)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "s"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = verifier.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("", "")
	assert.Error(t, err)
}
