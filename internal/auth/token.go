// Package auth verifies and issues the bearer tokens that identify will
// authors by email.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EmailClaim is the claim that carries the user's email address.
const EmailClaim = "app:UserEmailKey"

var (
	ErrTokenExpired = errors.New("Token has expired")
	ErrBadSignature = errors.New("Invalid token signature")
	ErrInvalidToken = errors.New("Could not validate credentials")
)

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify returns the email carried by token.
func (v *Verifier) Verify(token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrBadSignature
	default:
		return "", ErrInvalidToken
	}

	email, _ := claims[EmailClaim].(string)
	if email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}

// Issue mints a token for email that expires after ttl.
func (v *Verifier) Issue(email string, ttl time.Duration) (string, error) {
	if email == "" {
		return "", fmt.Errorf("issue token: email is required")
	}
	now := v.now()
	claims := jwt.MapClaims{
		EmailClaim: email,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
