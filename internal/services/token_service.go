package services

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// DefaultTokenTTL applies when IssueToken is called without a positive ttl.
const DefaultTokenTTL = 15 * time.Minute

// TokenService issues and verifies HS256-signed bearer tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string) *TokenService {
	return NewTokenServiceWithClock(secret, time.Now)
}

// NewTokenServiceWithClock creates a TokenService that reads the current time from now.
func NewTokenServiceWithClock(secret string, now func() time.Time) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		now:    now,
		// Expiry is checked against s.now below, not jwt.TimeFunc.
		parser: &jwt.Parser{
			ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
			SkipClaimsValidation: true,
		},
	}
}

// IssueToken returns a signed token for subject that expires after ttl.
func (s *TokenService) IssueToken(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("failed to generate token: empty subject")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken checks the signature and expiry of tokenString and returns its subject.
func (s *TokenService) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.ExpiresAt == 0 {
		return "", fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return "", fmt.Errorf("%w: token is expired", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return claims.Subject, nil
}
