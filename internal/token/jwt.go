package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/userauth-api/internal/clock"
	"github.com/ErlanBelekov/userauth-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 24 * time.Hour

// Claims is the identity carried by an access token.
type Claims struct {
	UserID    string
	Name      string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type accessClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 access tokens. Tokens are not tracked
// server side, so a token stays valid until exp even after a password reset.
type JWTIssuer struct {
	key    []byte
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

func NewJWTIssuer(key []byte, ttl time.Duration, clk clock.Clock) *JWTIssuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &JWTIssuer{
		key:   key,
		ttl:   ttl,
		clock: clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clk.Now),
		),
	}
}

func (i *JWTIssuer) TTL() time.Duration { return i.ttl }

func (i *JWTIssuer) Issue(userID, name, email string) (string, error) {
	now := i.clock.Now()
	claims := accessClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %v: %w", err, domain.ErrInternal)
	}
	return signed, nil
}

func (i *JWTIssuer) Verify(raw string) (*Claims, error) {
	var claims accessClaims
	tok, err := i.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrUnauthorized
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}

	out := &Claims{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
