package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParse(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("ops@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestParse_Expired(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("ops", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.Error(t, err)
}

func TestParse_WrongSecret(t *testing.T) {
	SetSecret("first")
	token, err := Sign("ops", time.Hour)
	require.NoError(t, err)

	SetSecret("second")
	_, err = Parse(token)
	assert.Error(t, err)
}
