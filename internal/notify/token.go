package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "studybot-intake"
	tokenAudience = "studybot-notify"
	tokenTTL      = time.Minute
)

// ErrUnauthorized is returned when a relay token is missing or invalid.
var ErrUnauthorized = errors.New("notify: unauthorized")

// Signer issues and verifies the short-lived HS256 tokens that authenticate
// the relay hop and the action callbacks.
type Signer struct {
	key []byte
	now func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{key: []byte(secret), now: time.Now}
}

// Token returns a signed token valid for one minute.
func (s *Signer) Token() (string, error) {
	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		ID:        uuid.NewString(),
	})
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing relay token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience and expiry.
func (s *Signer) Verify(token string) error {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.key, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}
