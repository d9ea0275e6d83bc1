package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenClaims are the fields read back from a verified token.
type TokenClaims struct {
	UserID int64
	Role   string
}

// NewAccessToken signs a token carrying sub, role, exp and iat.
func NewAccessToken(secret string, userID int64, role string, ttl time.Duration, now time.Time) (AccessToken, error) {
	exp := now.UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.UTC().Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, ExpiresAt: exp}, nil
}

// ParseAccessToken verifies signature and expiry, returning the claims.
func ParseAccessToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return TokenClaims{}, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return TokenClaims{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return TokenClaims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)

	return TokenClaims{UserID: userID, Role: role}, nil
}
