// Package clientstate issues and checks the opaque client-state token the
// mail source echoes back in every push notification. A valid token proves
// the notification originates from a subscription this service created.
package clientstate

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "docuflow/pkg/domain-errors"
)

type Claims struct {
	Mailbox string `json:"mailbox"`
	jwt.RegisteredClaims
}

// Service signs and validates client-state tokens with an HMAC secret.
type Service struct {
	secret []byte
	issuer string
}

func New(secret string) *Service {
	return &Service{secret: []byte(secret), issuer: "docuflow"}
}

// Generate builds a token bound to the watched mailbox. The lifetime should
// outlive the subscription it is attached to.
func (s *Service) Generate(mailbox string, lifetime time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Mailbox: mailbox,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	})
	return token.SignedString(s.secret)
}

// Validate checks signature, expiry, and mailbox binding.
func (s *Service) Validate(tokenString, mailbox string) error {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return dErrors.New(dErrors.CodeBadRequest, "invalid client state token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Mailbox != mailbox {
		return dErrors.New(dErrors.CodeBadRequest, "client state token not issued for this mailbox")
	}
	return nil
}
