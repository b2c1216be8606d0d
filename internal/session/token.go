package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the provider's access-token claims the session
// layer needs. The token was minted and signed by the provider; we only
// decode it to learn the subject and expiry, we never trust it as the sole
// auth decision (the server-side record is authoritative).
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

func ParseAccessToken(token string) (*Claims, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("access token has no subject")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("access token has no expiry")
	}

	email, _ := claims["email"].(string)

	return &Claims{
		Subject:   sub,
		Email:     email,
		ExpiresAt: exp.Time,
	}, nil
}
