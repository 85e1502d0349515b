package services

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenManager issues and verifies signed, time-limited bearer tokens whose
// subject is a username.
type TokenManager struct {
	method jwt.SigningMethod
	secret []byte
	expiry time.Duration
}

// NewTokenManager creates a TokenManager for an HMAC algorithm (HS256,
// HS384 or HS512).
func NewTokenManager(algorithm, secret string, expiry time.Duration) (*TokenManager, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	return &TokenManager{
		method: method,
		secret: []byte(secret),
		expiry: expiry,
	}, nil
}

// Expiry returns the default token lifetime.
func (m *TokenManager) Expiry() time.Duration {
	return m.expiry
}

// CreateAccessToken signs a token for subject that expires after expiresIn.
func (m *TokenManager) CreateAccessToken(subject string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(m.method, jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(expiresIn).Unix(),
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// DecodeToken verifies signature and expiry and returns the subject.
func (m *TokenManager) DecodeToken(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.ExpiresAt == 0 {
		return "", fmt.Errorf("%w: token has no expiry", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
