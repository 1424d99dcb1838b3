// Package auth authenticates player requests on the HTTP and websocket
// gateways.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the token is missing, malformed, expired, or not
// signed with the configured key.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is the authenticated caller.
type Identity struct {
	PlayerID    string
	DisplayName string
}

// Verifier validates bearer tokens.
type Verifier interface {
	// Verify checks a token and returns the caller's identity, or
	// ErrInvalidToken when the token is definitively invalid.
	Verify(token string) (*Identity, error)
}

// JWTVerifier validates HS256-signed tokens carrying the player id in the
// "sub" claim and the display name in "name".
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{PlayerID: c.Subject, DisplayName: c.Name}, nil
}

// Issue signs a token for the given player, valid for ttl. Used by tests and
// the dev tooling; production deployments mint tokens out of band with the
// same secret.
func (v *JWTVerifier) Issue(playerID, displayName string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Name: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
