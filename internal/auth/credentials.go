// Package auth defines the credential shape accepted by the reporting
// endpoints and the validators that decide whether credentials are usable.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrUnauthorized is returned when credentials are missing or rejected
var ErrUnauthorized = errors.New("unauthorized")

// Credentials are either an API key pair or an opaque auth token
type Credentials struct {
	APIKey    string `json:"apiKey,omitempty"`
	APISecret string `json:"apiSecret,omitempty"`
	AuthToken string `json:"authToken,omitempty"`
}

// IsToken reports whether the token form is used
func (c Credentials) IsToken() bool {
	return c.AuthToken != ""
}

// IsEmpty reports whether neither a full key pair nor a token is present
func (c Credentials) IsEmpty() bool {
	return !c.IsToken() && (c.APIKey == "" || c.APISecret == "")
}

// fingerprint identifies the credentials without keeping the secret around
func (c Credentials) fingerprint() string {
	h := sha256.New()
	for _, part := range []string{c.APIKey, c.APISecret, c.AuthToken} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// UserInfo is the account profile returned by a successful validation
type UserInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Timezone string `json:"timezone"`
}
