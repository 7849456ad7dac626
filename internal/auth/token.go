package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"daftar/internal/core"
)

// ErrInvalidToken covers every token verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Claims carry the owning user and the access tag. Tokens deliberately have
// no expiry; revocation happens by removing the token row from the user.
type Claims struct {
	UserID string `json:"user_id"`
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with an HMAC secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a token codec. The secret should be a strong random
// string; it comes from configuration, never from code.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue signs a new session token for the given user.
func (c *Codec) Issue(userID string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Access: core.AccessAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and access tag, returning the owning user id.
// It does not consult storage; the caller still has to confirm the token
// has not been revoked.
func (c *Codec) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.secret, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Access != core.AccessAuth || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
