package oskeyring

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewMemoryService()

	_, err := LoadToken(svc, "http://127.0.0.1:8200")
	assert.IsError(t, err, ErrNotFound)

	assert.NoError(t, SaveToken(svc, "http://127.0.0.1:8200/", "hvs.abc"))

	// trailing slash is not part of the account name
	token, err := LoadToken(svc, "http://127.0.0.1:8200")
	assert.NoError(t, err)
	assert.Equal(t, "hvs.abc", token)

	_, err = LoadToken(svc, "https://vault.example.com")
	assert.IsError(t, err, ErrNotFound)

	assert.NoError(t, DeleteToken(svc, "http://127.0.0.1:8200"))
	_, err = LoadToken(svc, "http://127.0.0.1:8200")
	assert.IsError(t, err, ErrNotFound)

	// deleting twice is not an error
	assert.NoError(t, DeleteToken(svc, "http://127.0.0.1:8200"))
}

func TestSaveTokenRejectsEmpty(t *testing.T) {
	svc := NewMemoryService()
	assert.Error(t, SaveToken(svc, "http://127.0.0.1:8200", ""))
}
