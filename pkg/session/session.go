package session

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
)

// TokenLength is the random token size in bytes before encoding.
const TokenLength = 32

// GenerateToken mints a new random session token, base64url-encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Session holds the run-scoped shared secret and answers authorization
// checks. Safe for concurrent use.
type Session struct {
	token string
}

// New creates a session around an existing token, typically read from
// the environment on the controller side.
func New(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("session token must not be empty")
	}
	return &Session{token: token}, nil
}

// NewRandom creates a session with a freshly minted token.
func NewRandom() (*Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	return &Session{token: token}, nil
}

// Token returns the shared secret for out-of-band delivery.
func (s *Session) Token() string {
	return s.token
}

// Authorize checks a presented token in constant time.
func (s *Session) Authorize(token string) error {
	if subtle.ConstantTimeCompare([]byte(s.token), []byte(token)) != 1 {
		return capability.ErrUnauthorized
	}
	return nil
}

// DeriveKey derives connection-scoped key material from the session
// token. The connection id salts the derivation so two connections
// never share keys; info separates usage domains within one connection.
func (s *Session) DeriveKey(connectionID, info string, length int) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(s.token), []byte(connectionID), []byte(info))
	key := make([]byte, length)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}
