// Package auth validates bearer tokens issued by the platform identity
// service. Token issuance itself lives outside this repository.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken indicates the token failed signature or claim validation.
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier validates structural and contextual properties of JWT tokens.
type Verifier struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Now       func() time.Time
}

// Claims is the identity carried by a verified token. Role comes from
// the private "role" claim and is empty when the claim is absent.
type Claims struct {
	UserID string
	Role   string
}

// Parse verifies the raw token and returns its identity claims.
func (v Verifier) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	if len(v.Secret) == 0 {
		return Claims{}, errors.New("auth: verifier secret not configured")
	}
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, v.Secret),
		jwt.WithValidate(true),
	}
	if v.Now != nil {
		now := v.Now()
		options = append(options, jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })))
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	tok, err := jwt.Parse([]byte(raw), options...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub := strings.TrimSpace(tok.Subject())
	if sub == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	claims := Claims{UserID: sub}
	if val, ok := tok.Get("role"); ok {
		if role, ok := val.(string); ok {
			claims.Role = strings.TrimSpace(role)
		}
	}
	return claims, nil
}

// UserID verifies the raw token and returns the subject claim.
func (v Verifier) UserID(raw string) (string, error) {
	claims, err := v.Parse(raw)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
