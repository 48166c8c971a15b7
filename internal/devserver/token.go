// internal/devserver/token.go
package devserver

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// tokenIssuer signs and parses the short-lived bearer tokens the dev
// backend hands out. HS256 with a per-process secret is enough here; the
// real backend owns key management.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

type tokenClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func newTokenIssuer(secret []byte, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{secret: secret, ttl: ttl}
}

func (t *tokenIssuer) Issue(userID, sessionID string) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates the token and returns user id, session id and issue time.
func (t *tokenIssuer) Parse(token string) (userID, sessionID string, issuedAt time.Time, err error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", "", time.Time{}, err
	}
	if !parsed.Valid {
		return "", "", time.Time{}, fmt.Errorf("invalid token")
	}
	var issued time.Time
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	return claims.Subject, claims.SessionID, issued, nil
}
