package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer is the "iss" claim of every token this service signs.
const TokenIssuer = "surbminer"

// ErrInvalidToken is returned for any token that fails validation.
var ErrInvalidToken = errors.New("invalid token")

// IssueToken signs an HS256 bearer token for accountID with the given role.
// Admin tokens may have an empty accountID.
func IssueToken(secret, accountID, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":  uuid.New().String(),
		"sub":  accountID,
		"role": role,
		"iss":  TokenIssuer,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a bearer token and returns the caller it names.
func ParseToken(secret, tokenString string) (*UserContext, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	switch role {
	case RoleAdmin:
	case RoleUser:
		if sub == "" {
			return nil, fmt.Errorf("%w: user token without subject", ErrInvalidToken)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}
	return &UserContext{AccountID: sub, Role: role}, nil
}
