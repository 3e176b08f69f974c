package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier resolves a bearer token to a user id. The engine never issues
// credentials; it only checks what the identity service signed.
type Verifier interface {
	Verify(token string) (int64, error)
}

var ErrInvalidToken = errors.New("invalid token")

// JWTVerifier validates HS256 access tokens carrying a user_id claim.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier over the shared access secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and extracts the user id.
func (v *JWTVerifier) Verify(token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	switch id := claims["user_id"].(type) {
	case float64:
		if id <= 0 {
			return 0, ErrInvalidToken
		}
		return int64(id), nil
	default:
		return 0, ErrInvalidToken
	}
}
