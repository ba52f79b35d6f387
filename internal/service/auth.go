package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrAuthDisabled       = errors.New("authentication is not configured")
)

// Issuer is the iss claim of every token this service mints.
const Issuer = "gennetta"

// Principal is the identity carried by a validated token.
type Principal struct {
	Subject   string
	ExpiresAt time.Time
}

// AuthService mints and validates HS256 bearer tokens for the HTTP API.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates an AuthService. An empty secret yields a service
// that is disabled: Enabled reports false and every call fails with
// ErrAuthDisabled.
func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret)}
}

// Enabled reports whether a signing secret is configured.
func (s *AuthService) Enabled() bool {
	return len(s.jwtSecret) > 0
}

// ValidateJWT verifies a bearer token and returns its principal.
func (s *AuthService) ValidateJWT(ctx context.Context, tokenStr string) (*Principal, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidCredentials
	}

	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	p := &Principal{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// IssueJWT creates a new signed token for subject valid for ttl.
func (s *AuthService) IssueJWT(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    Issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
