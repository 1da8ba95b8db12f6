// Package token issues and verifies the signed bearer tokens handed to
// clients after registration or login. Tokens are stateless: validity is
// a function of the signature and the embedded expiry only.
package token

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, wrong issuer or audience, expired, or missing claims.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded payload of a verified token.
type Claims struct {
	UserID    int
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Service signs and verifies tokens with a process-wide secret. It holds
// no mutable state and is safe for concurrent use.
type Service struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewService constructs a token Service from the fixed process config.
func NewService(secret []byte, issuer, audience string, ttl time.Duration) *Service {
	return &Service{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}
}

// Issue signs a token for the given account. The subject carries the
// decimal user id; expiry is now plus the configured lifetime.
func (s *Service) Issue(userID int, username string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token string. Any failure, including a
// malformed token, returns ErrInvalidToken; Verify never panics or leaks
// parser internals to the caller.
func (s *Service) Verify(tokenString string) (Claims, error) {
	parsed := tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	userID, err := strconv.Atoi(strings.TrimSpace(parsed.Subject))
	if err != nil || userID < 1 {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(parsed.Username) == "" {
		return Claims{}, ErrInvalidToken
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		UserID:    userID,
		Username:  parsed.Username,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}
