package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gadgets-backend-go/internal/models"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// AccessClaims is the payload of an access token: email and uid plus the
// issued-at and expiry timestamps.
type AccessClaims struct {
	Email string `json:"email"`
	UID   string `json:"uid"`
	jwt.RegisteredClaims
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns an HS256 TokenService. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &tokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *tokenService) Issue(identity models.Identity) (string, error) {
	issuedAt := s.now()
	claims := AccessClaims{
		Email: identity.Email,
		UID:   identity.UID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *tokenService) Verify(tokenString string) (*models.Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &models.Identity{Email: claims.Email, UID: claims.UID}, nil
}
