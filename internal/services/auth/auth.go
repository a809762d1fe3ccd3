// Package auth отвечает за вход сотрудников и выпуск токенов доступа.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/sales-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/password"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
	"github.com/magabrotheeeer/sales-tracker/internal/storage"
)

// ErrInvalidCredentials возвращается при неизвестном имени или неверном пароле.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет пользователя и возвращает его UUID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает пользователя или storage.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenMaker выпускает токены доступа.
type TokenMaker interface {
	GenerateToken(username, role string) (string, error)
}

// Service проверяет учётные данные и выпускает JWT.
type Service struct {
	users    UserRepository
	jwtMaker TokenMaker
	log      *slog.Logger
}

// NewService создаёт сервис аутентификации.
func NewService(users UserRepository, jwtMaker TokenMaker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Login проверяет пароль и возвращает токен и роль пользователя.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrUserNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// EnsureUser создаёт учётную запись, если пользователя с таким именем ещё нет.
// Существующая запись не меняется. Возвращает true, если пользователь создан.
func (s *Service) EnsureUser(ctx context.Context, username, rawPassword, role string) (bool, error) {
	const op = "auth.EnsureUser"

	if username == "" || rawPassword == "" {
		return false, fmt.Errorf("%s: username and password are required", op)
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		return false, fmt.Errorf("%s: unknown role %q", op, role)
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.users.CreateUser(ctx, models.User{
		UUID:         uuid.NewString(),
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user created", slog.String("uuid", id), slog.String("username", username), slog.String("role", role))
	return true, nil
}

var _ TokenMaker = (*jwt.Maker)(nil)
