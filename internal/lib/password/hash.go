// Package password хеширует и проверяет пароли сотрудников с помощью bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch возвращается, если пароль не совпадает с хэшем.
var ErrMismatch = errors.New("password mismatch")

// GetHash возвращает bcrypt-хэш пароля для хранения в базе.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash сравнивает хэш с введённым паролем.
// Несовпадение возвращается как ErrMismatch, прочие сбои как есть.
func CompareHash(hash, password string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
