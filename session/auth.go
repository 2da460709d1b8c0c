package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/zteradb/zteradb-go/wire"
	"github.com/zteradb/zteradb-go/zterr"
)

// generateNonce produces a 128-bit random nonce, hex-encoded, then
// SHA-256'd. The wire format is a lowercase hex string; the entropy
// behind it is free to widen without changing the protocol.
func generateNonce() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", zterr.Wrap(zterr.KindAuthenticationFailed, err, "failed to generate nonce")
	}
	sum := sha256.Sum256([]byte(hex.EncodeToString(raw)))
	return hex.EncodeToString(sum[:]), nil
}

// requestToken computes hex(sha256(secretKey + nonce)): direct string
// concatenation, secret first.
func requestToken(secretKey, nonce string) string {
	sum := sha256.Sum256([]byte(secretKey + nonce))
	return hex.EncodeToString(sum[:])
}

// clientAuth is the handshake request payload sent as the CONNECT request.
type clientAuth struct {
	AccessKey    string `json:"access_key"`
	ClientKey    string `json:"client_key"`
	Nonce        string `json:"nonce"`
	RequestToken string `json:"request_token"`
	RequestType  int    `json:"request_type"`
}

func newClientAuthRequest(accessKey, clientKey, secretKey string) (*clientAuth, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}
	return &clientAuth{
		AccessKey:    accessKey,
		ClientKey:    clientKey,
		Nonce:        nonce,
		RequestToken: requestToken(secretKey, nonce),
		RequestType:  wire.RequestTypeConnect,
	}, nil
}

// serverAuth is the ServerAuth adopted from a successful handshake's data
// field: the server-issued access token attached to every subsequent
// query.
type serverAuth struct {
	ClientKey         string `json:"client_key"`
	AccessKey         string `json:"access_key"`
	AccessToken       string `json:"access_token"`
	AccessTokenExpire int64  `json:"access_token_expire"`
}

// isValidRequestToken recomputes hex(sha256(secretKey + nonce)) from the
// server's echoed client_auth and compares it to the token the server
// claims is valid — the handshake's proof that it holds the same secret.
func isValidRequestToken(secretKey string, clientAuth map[string]any) bool {
	nonce, _ := clientAuth["nonce"].(string)
	token, _ := clientAuth["request_token"].(string)
	if nonce == "" || token == "" {
		return false
	}
	return requestToken(secretKey, nonce) == token
}
