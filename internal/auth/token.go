package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTypeAdmin marks tokens minted for the admin plane. Only tokens
// carrying this type are accepted by the admin middleware.
const tokenTypeAdmin = "admin"

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotAdminToken = errors.New("admin token required")
)

// AdminClaims are the JWT claims carried by admin access tokens.
type AdminClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

// TokenService issues and validates HMAC-SHA256 admin tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService creates a token service. expiry bounds the lifetime of
// issued tokens.
func NewTokenService(secret string, expiry time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &TokenService{secret: []byte(secret), expiry: expiry}, nil
}

// IssueAdminToken creates a signed token for the given admin user ID.
func (s *TokenService) IssueAdminToken(adminUserID int64) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(adminUserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
		TokenType: tokenTypeAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAdminToken parses and validates a token, returning the admin
// user ID it was issued for.
func (s *TokenService) ValidateAdminToken(tokenString string) (int64, error) {
	var claims AdminClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.TokenType != tokenTypeAdmin {
		return 0, ErrNotAdminToken
	}

	adminID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return adminID, nil
}
