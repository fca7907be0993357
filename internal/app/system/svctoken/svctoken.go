// Package svctoken mints the bearer tokens that identify the signed-in user
// to the availability service.
package svctoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// MinSecretLen is the shortest HS256 secret accepted.
const MinSecretLen = 32

var (
	ErrSecretTooShort = fmt.Errorf("service token secret must be at least %d characters", MinSecretLen)
	ErrNoSubject      = errors.New("service token needs a subject")
)

// Claims carried to the availability service.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A ttl of zero means one hour.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Mint signs a token for the session user. The subject is the Discord id,
// which is how the availability service keys its records.
func (i *Issuer) Mint(u auth.SessionUser) (string, time.Time, error) {
	if u.DiscordID == "" {
		return "", time.Time{}, ErrNoSubject
	}
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Name:    u.Name,
		Picture: u.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.DiscordID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign service token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates a token minted by this issuer and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// TokenSource returns an oauth2.TokenSource for the user. Tokens are reused
// until shortly before expiry.
func (i *Issuer) TokenSource(u auth.SessionUser) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, userSource{issuer: i, user: u})
}

type userSource struct {
	issuer *Issuer
	user   auth.SessionUser
}

func (s userSource) Token() (*oauth2.Token, error) {
	tok, exp, err := s.issuer.Mint(s.user)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer", Expiry: exp}, nil
}
