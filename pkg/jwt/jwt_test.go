package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	tok, err := Generate(secret, "u1", "c1", "technician", "taller", 5)
	require.NoError(t, err)

	userID, companyID, role, err := Parse(secret, tok, WithIssuer("taller"))
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "c1", companyID)
	assert.Equal(t, "technician", role)
}

func TestParse_WrongIssuer(t *testing.T) {
	tok, err := Generate(secret, "u1", "c1", "admin", "otro", 5)
	require.NoError(t, err)

	_, _, _, err = Parse(secret, tok, WithIssuer("taller"))
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	tok, err := Generate(secret, "u1", "c1", "admin", "taller", -2)
	require.NoError(t, err)

	_, _, _, err = Parse(secret, tok)
	assert.Error(t, err)

	_, _, _, err = Parse(secret, tok, WithLeeway(5*time.Minute))
	assert.NoError(t, err, "el leeway cubre el desfase")
}

func TestEmptySecret(t *testing.T) {
	_, err := Generate("", "u1", "c1", "admin", "taller", 5)
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, _, _, err = Parse("", "x")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
