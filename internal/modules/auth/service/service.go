package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"humidity-server/internal/modules/auth/repository"
)

const tokenLifetime = time.Hour

// ErrInvalidCredentials covers both unknown usernames and wrong passwords so
// the response does not reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid username or password")

var ErrInvalidToken = errors.New("invalid or expired token")

type Service struct {
	repository repository.UserRepository
	denylist   TokenDenylist
	secret     []byte
	now        func() time.Time
}

func NewService(repo repository.UserRepository, denylist TokenDenylist, secret string) *Service {
	return &Service{
		repository: repo,
		denylist:   denylist,
		secret:     []byte(secret),
		now:        time.Now,
	}
}

// SetNow overrides the wall clock for tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// Login verifies the credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repository.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": user.UserID,
		"exp": s.now().Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Logout denylists the token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}

	ttl := tokenLifetime
	if exp, ok := claims["exp"].(float64); ok {
		if remaining := time.Unix(int64(exp), 0).Sub(s.now()); remaining > 0 {
			ttl = remaining
		}
	}
	return s.denylist.Add(ctx, token, ttl)
}

// Validate parses and verifies a token and rejects denylisted ones.
func (s *Service) Validate(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	denied, err := s.denylist.Contains(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if denied {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
