package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jotlabs/jot-server/domain"
)

// UserSource is the credential lookup the authenticator needs.
type UserSource interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Claims embeds the user's identity in the bearer token. Subject is the
// user id.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the owner identity carried in the token.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Authenticator issues and validates stateless HS256 bearer tokens. There
// is no refresh mechanism; tokens expire ttl after issuance.
type Authenticator struct {
	users  UserSource
	secret []byte
	ttl    time.Duration
}

func New(users UserSource, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{users: users, secret: []byte(secret), ttl: ttl}
}

// Login validates the credentials and issues a token. A missing user and a
// wrong password surface as different errors so the API can report
// different messages, though both map to 401.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

var ErrInvalidToken = errors.New("invalid token")

// ParseToken verifies signature and expiry. Malformed, forged and expired
// tokens all come back as ErrInvalidToken.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword produces a bcrypt hash for storage. Plain-text or reversible
// password storage is never accepted.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
