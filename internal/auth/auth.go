// Package auth отвечает за пароли, сессии и идентичность пользователя в рамках запроса.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity описывает пользователя текущего запроса. Нулевое значение означает анонимный запрос.
type Identity struct {
	UserID   string
	Username string
}

// Anonymous сообщает, что запрос не аутентифицирован
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

type identityKey struct{}

// WithIdentity кладет идентичность в контекст запроса
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext достает идентичность из контекста; для анонимного запроса возвращает нулевое значение
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

// HashPassword возвращает bcrypt-хеш пароля
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сверяет пароль с хешем
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
