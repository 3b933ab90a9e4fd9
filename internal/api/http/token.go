package http

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shorturl-app/shorturl/internal/models"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenManager issues and verifies the HMAC signed bearer tokens used by the
// management API. Tokens are self-contained; a verified token is trusted for
// its full lifetime without a store lookup.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a new instance of TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a token for the user and returns it with its expiry time.
func (m *TokenManager) Issue(user *models.User) (string, time.Time, error) {
	const op = "api.http.TokenManager.Issue"

	now := time.Now()
	expiresAt := now.Add(m.ttl)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: user.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: failed to sign token: %w", op, err)
	}

	return token, expiresAt, nil
}

// Parse verifies the token signature and expiry and returns the principal it
// carries.
func (m *TokenManager) Parse(token string) (models.Principal, error) {
	const op = "api.http.TokenManager.Parse"

	var claims tokenClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: failed to parse token: %w", op, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: invalid token subject: %w", op, err)
	}

	return models.Principal{UserID: userID, Role: claims.Role}, nil
}
