// Package jwt выпускает и проверяет токены доступа сотрудников панели продаж.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer значение поля iss во всех выпускаемых токенах.
const Issuer = "sales-tracker"

// ErrInvalidToken возвращается для неподписанных, просроченных и чужих токенов.
var ErrInvalidToken = errors.New("invalid token")

// Claims описывает данные, хранящиеся в токене.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Maker выпускает токены с заданным секретом и временем жизни.
type Maker struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewMaker создаёт Maker.
func NewMaker(secretKey string, ttl time.Duration) *Maker {
	return &Maker{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// GenerateToken создаёт токен HS256 для пользователя с ролью.
func (m *Maker) GenerateToken(username, role string) (string, error) {
	const op = "jwt.GenerateToken"
	now := m.now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ParseToken проверяет подпись, срок действия и издателя токена.
func (m *Maker) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims, nil
}
