package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenExpiry = 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks
var ErrInvalidToken = errors.New("invalid identity token")

// Tokens issues and verifies the identity tokens handed out by POST /. The
// token subject is the player id the connection may fly.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens creates a token issuer using an HMAC secret
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for the player id and name
func (t *Tokens) Issue(id, name string) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub": id,
		"usr": name,
		"exp": now.Add(tokenExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns its subject
func (t *Tokens) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" || !token.Valid {
		return "", ErrInvalidToken
	}
	return sub, nil
}
