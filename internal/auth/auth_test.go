package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, ComparePassword(hash, "s3cret-password"))
	assert.False(t, ComparePassword(hash, "wrong"))
}

func TestJWTSignAndVerify(t *testing.T) {
	j := NewJWT("0123456789abcdef")

	token, err := j.Sign(42)
	require.NoError(t, err)

	uid, err := j.Verify(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, uid)
}

func TestJWTVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewJWT("0123456789abcdef").Sign(42)
	require.NoError(t, err)

	_, err = NewJWT("another-secret-value").Verify(token)
	assert.Error(t, err)
}

func TestJWTVerifyRejectsGarbage(t *testing.T) {
	_, err := NewJWT("0123456789abcdef").Verify("not.a.token")
	assert.Error(t, err)
}
