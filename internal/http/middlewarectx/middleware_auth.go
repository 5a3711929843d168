// Package middlewarectx содержит HTTP middleware панели.
//
// JWTMiddleware проверяет JWT в заголовке Authorization и кладёт в контекст
// запроса models.Actor оператора. Если передан UserLookup, оператор и его роль
// берутся из хранилища: токен удалённого оператора перестаёт действовать сразу.
// Обработчики получают актора через ActorFrom и передают его в сервисы явно.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-billing/internal/http/response"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// ActorKey ключ актора в контексте.
const ActorKey Key = "actor"

// TokenParser описывает разбор токена.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// UserLookup описывает чтение текущей учётной записи оператора.
type UserLookup interface {
	ActiveUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
// users может быть nil, тогда актор строится только из claims.
func JWTMiddleware(parser TokenParser, users UserLookup, log *slog.Logger) func(http.Handler) http.Handler {
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

			claims, err := parser.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			actor := claims.Actor()
			if users != nil {
				user, err := users.ActiveUser(r.Context(), claims.UserID)
				if errors.Is(err, models.ErrNotFound) {
					log.Warn("token of removed operator", slog.String("user_id", claims.UserID.String()))
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.Error("operator no longer exists"))
					return
				}
				if err != nil {
					log.Error("failed to load operator", sl.Err(err))
					response.WriteError(w, r, err)
					return
				}
				actor = models.NewActor(user.ID, user.Role)
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor кладёт актора в контекст.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFrom достаёт актора из контекста. ok == false, если запрос
// не прошёл через JWTMiddleware.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(models.Actor)
	if !ok || actor.IsSystem() {
		return models.Actor{}, false
	}
	return actor, true
}

// RequireActor отвечает 401, если в контексте нет актора.
func RequireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
	}
	return actor, ok
}
