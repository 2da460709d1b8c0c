package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS5HandshakeProof(t *testing.T) {
	secret := "s"
	nonce := "deadbeef"
	token := requestToken(secret, nonce)

	assert.True(t, isValidRequestToken(secret, map[string]any{
		"nonce":         nonce,
		"request_token": token,
	}))

	assert.False(t, isValidRequestToken(secret, map[string]any{
		"nonce":         nonce,
		"request_token": token[:len(token)-1] + "0",
	}))
}

func TestGenerateNonceIsUniqueAndHexEncoded(t *testing.T) {
	n1, err := generateNonce()
	assert.NoError(t, err)
	n2, err := generateNonce()
	assert.NoError(t, err)
	assert.NotEqual(t, n1, n2)
	assert.Len(t, n1, 64) // hex-encoded sha256 digest
}
