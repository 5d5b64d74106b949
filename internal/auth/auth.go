// Package auth issues and resolves the signed session tokens that
// authenticate mutation requests.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims carries the authenticated identity inside the token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type Service struct {
	store    store.Store
	secret   []byte
	tokenTTL time.Duration
}

func NewService(st store.Store, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{
		store:    st,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Login validates the email/password pair and returns a session token with
// the matched user. A missing user and a wrong password are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", model.User{}, ErrInvalidCredentials
		}
		return "", model.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", model.User{}, ErrInvalidCredentials
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return "", model.User{}, err
	}
	return token, user, nil
}

// IssueToken signs a fresh session token for the given user.
func (s *Service) IssueToken(user model.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	return token.SignedString(s.secret)
}

// Resolve parses and verifies a session token and returns the identity it
// carries. Expired, malformed, or foreign-signed tokens all resolve to
// ErrInvalidToken.
func (s *Service) Resolve(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return model.Identity{}, ErrInvalidToken
	}
	return model.Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}
