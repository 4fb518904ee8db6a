// Package auth issues and checks the credentials used by the reports API.
//
// Flow:
//  1. A user signs in with email+password (POST /api/auth/login) or through
//     GitHub (/auth/github/login → /auth/github/callback).
//  2. The server issues a signed JWT carrying the user ID and role and stores
//     it in an HttpOnly "token" cookie.
//  3. RequireAuth reads the cookie (or an "Authorization: Bearer" header),
//     validates the token and puts a Principal in the request context.
//
// Tokens are stateless: validating one needs only the HMAC secret, no DB
// lookup.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/user-reports/internal/model"
)

const (
	issuer = "user-reports"

	// DefaultTokenTTL is the lifetime of tokens issued by Generate.
	DefaultTokenTTL = 15 * time.Minute
)

// Principal is the authenticated caller extracted from a valid token.
type Principal struct {
	UserID int64
	Role   model.Role
}

// IsAdmin reports whether the caller has the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// TokenService handles JWT creation and validation with a single HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. Secrets shorter than 16 bytes are
// rejected; use something like `openssl rand -hex 32`.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultTokenTTL}, nil
}

// TTL is how long issued tokens stay valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Generate creates a signed token for the user valid for the default TTL.
func (s *TokenService) Generate(userID int64, role model.Role) (string, error) {
	return s.GenerateWithDuration(userID, role, s.ttl)
}

// GenerateWithDuration creates a token with a custom lifetime. Negative
// durations produce already-expired tokens, which tests rely on.
func (s *TokenService) GenerateWithDuration(userID int64, role model.Role, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies tokenStr and returns the caller it identifies.
func (s *TokenService) Validate(tokenStr string) (Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject "alg: none" and RSA/HMAC confusion.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("auth: token expired")
		}
		return Principal{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Principal{}, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Principal{}, fmt.Errorf("auth: token has no valid subject")
	}
	if !c.Role.Valid() {
		return Principal{}, fmt.Errorf("auth: token has unknown role %q", c.Role)
	}

	return Principal{UserID: userID, Role: c.Role}, nil
}
