package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Tokens signs and verifies session tokens.
type Tokens struct {
	secret []byte
}

// NewTokens creates an HS256 signer.
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

// Issue signs a token for the session that expires with it.
func (t *Tokens) Issue(sess *models.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sess.ID,
		IssuedAt:  jwt.NewNumericDate(sess.StartedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	})
	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// Parse validates a token and returns the session id it carries.
func (t *Tokens) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithLeeway(5*time.Second))
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("invalid session token: subject missing")
	}
	return claims.Subject, nil
}
