package stream

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// serverClaims authorizes server-side calls to both Stream products.
type serverClaims struct {
	Server bool `json:"server"`
	jwt.RegisteredClaims
}

// userClaims is what a client SDK presents to connect as a given user.
type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens signs Stream JWTs with the API secret.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens builds a signer for the given API secret.
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

// ServerToken returns a short lived server token.
func (t *Tokens) ServerToken() (string, error) {
	issuedAt := t.now()
	claims := &serverClaims{
		Server: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign server token: %w", err)
	}
	return signed, nil
}

// UserToken returns a token the front-end uses to connect as userID.
// A zero ttl produces a token without expiry.
func (t *Tokens) UserToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	issuedAt := t.now()
	claims := &userClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign user token: %w", err)
	}
	return signed, nil
}
