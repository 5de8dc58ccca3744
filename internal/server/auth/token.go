// Package auth implements the service token codec: a signed, stateless
// encoding of the claim that identifies an authenticated user.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any string the codec did not produce:
// corrupted, truncated, signed with another key or another algorithm.
var ErrInvalidToken = errors.New("invalid token")

// ServiceToken is the decoded claim. CreatedAt has second precision and an
// empty AuthenticatedTo decodes as nil.
type ServiceToken struct {
	UserID          int64
	AuthenticatedTo []string
	CreatedAt       time.Time
}

// Claims is the JWT payload carrying a ServiceToken.
type Claims struct {
	jwt.RegisteredClaims
	UserID          int64    `json:"userId"`
	AuthenticatedTo []string `json:"authenticatedTo,omitempty"`
}

// TokenCodec signs and verifies service tokens with a shared HMAC secret.
// It performs no I/O; whether the user still exists is the caller's concern.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secretKey []byte) *TokenCodec {
	return &TokenCodec{secret: secretKey}
}

// Issue builds a claim for userID stamped with the current second.
func (c *TokenCodec) Issue(userID int64, authenticatedTo ...string) (string, *ServiceToken, error) {
	t := &ServiceToken{
		UserID:          userID,
		AuthenticatedTo: authenticatedTo,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	s, err := c.Encode(t)
	if err != nil {
		return "", nil, err
	}
	return s, t, nil
}

// Encode signs t. The same claim always yields the same string. t.CreatedAt
// is normalised in place to UTC at second precision, the form Decode returns.
func (c *TokenCodec) Encode(t *ServiceToken) (string, error) {
	if t == nil || t.UserID <= 0 {
		return "", fmt.Errorf("encode token: user id must be positive")
	}
	if !t.CreatedAt.IsZero() {
		t.CreatedAt = t.CreatedAt.UTC().Truncate(time.Second)
	}

	claims := Claims{UserID: t.UserID}
	if len(t.AuthenticatedTo) > 0 {
		claims.AuthenticatedTo = t.AuthenticatedTo
	}
	if !t.CreatedAt.IsZero() {
		claims.IssuedAt = jwt.NewNumericDate(t.CreatedAt)
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}

	return tokenString, nil
}

// Decode verifies tokenString and returns its claim.
func (c *TokenCodec) Decode(tokenString string) (*ServiceToken, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}

	t := &ServiceToken{UserID: claims.UserID}
	if len(claims.AuthenticatedTo) > 0 {
		t.AuthenticatedTo = claims.AuthenticatedTo
	}
	if claims.IssuedAt != nil {
		t.CreatedAt = claims.IssuedAt.Time.UTC()
	}

	return t, nil
}
