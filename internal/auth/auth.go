// Package auth verifies admin credentials against the admin_users table and
// issues HS256 tokens for the X-Admin-Token header guarding catalog
// mutations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenTTL = 7 * 24 * time.Hour

// AdminStore looks up an admin's id and bcrypt hash by username.
type AdminStore interface {
	FindAdmin(ctx context.Context, username string) (id int64, passwordHash string, err error)
}

type Service struct {
	store  AdminStore
	secret []byte
}

func NewService(store AdminStore, secret string) *Service {
	return &Service{store: store, secret: []byte(secret)}
}

// Login checks the password and returns a signed token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	id, hash, err := s.store.FindAdmin(ctx, username)
	if err != nil {
		return "", err
	}
	if id == 0 {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"admin_id": id,
		"username": username,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken validates a token and returns the admin id it was issued to.
func (s *Service) VerifyToken(token string) (int64, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidCredentials
	}
	adminID, ok := claims["admin_id"].(float64)
	if !ok || adminID <= 0 {
		return 0, ErrInvalidCredentials
	}
	return int64(adminID), nil
}
