package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashAndVerify(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	hash, err := svc.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, svc.Verify(hash, "correct horse battery"))
	assert.Error(t, svc.Verify(hash, "wrong password"))
}

func TestPasswordHashesAreSalted(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	first, err := svc.Hash("same input")
	require.NoError(t, err)
	second, err := svc.Hash("same input")
	require.NoError(t, err)

	// bcrypt salts per hash, so equal inputs never collide in storage.
	assert.NotEqual(t, first, second)
}

func TestPasswordHashRejectsOversizedInput(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	_, err := svc.Hash(strings.Repeat("a", 73))
	assert.Error(t, err)
}

func TestVerifyRejectsGarbageHash(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	assert.Error(t, svc.Verify("not-a-bcrypt-hash", "whatever"))
}
