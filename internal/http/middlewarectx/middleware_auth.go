// Package middlewarectx содержит HTTP middleware панели продаж:
// проверку JWT, проверку роли и ограничение частоты запросов.
//
// JWTMiddleware проверяет токен из заголовка Authorization и кладёт
// имя пользователя и роль в контекст запроса.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User ключ для имени пользователя в контексте
	User Key = "username"
	// Role ключ для роли пользователя в контексте
	Role Key = "role"
)

// TokenParser проверяет токен и возвращает его данные.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.Claims, error)
}

// JWTMiddleware возвращает middleware, который пропускает только запросы с валидным токеном.
// Иначе отвечает 401 Unauthorized.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только пользователей с одной из ролей roles, иначе отвечает 403.
// Должен стоять после JWTMiddleware.
func RequireRole(log *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(Role).(string)
			if _, ok := allowed[role]; !ok {
				log.Warn("access denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("role", role),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
