// Package token signs and verifies the access and refresh credentials.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"openlingua/internal/model"
)

const (
	AudienceAccess  = "access"
	AudienceRefresh = "refresh"
)

// ErrInvalidOrExpired is the only decode failure. Forged, corrupt, foreign
// and expired tokens all map to it.
var ErrInvalidOrExpired = model.ErrInvalidOrExpired

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret   []byte
	ttl      time.Duration
	audience string
	now      func() time.Time
}

type Option func(*Codec)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCodec(secret string, ttl time.Duration, audience string, opts ...Option) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if audience == "" {
		return nil, errors.New("token audience is required")
	}

	c := &Codec{
		secret:   []byte(secret),
		ttl:      ttl,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Encode(claim model.Claim) (string, error) {
	if claim.Subject == "" {
		return "", errors.New("token subject is required")
	}

	now := c.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: claim.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claim.Subject,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", c.audience, err)
	}

	return signed, nil
}

func (c *Codec) Decode(tokenString string) (model.Claim, error) {
	var parsed claims
	token, err := jwt.ParseWithClaims(
		strings.TrimSpace(tokenString),
		&parsed,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid || parsed.Subject == "" {
		return model.Claim{}, ErrInvalidOrExpired
	}

	return model.Claim{Subject: parsed.Subject, Email: parsed.Email}, nil
}
