// Package api предоставляет маршруты и HTTP-сервер панели оператора.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-billing/internal/config"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/audit/auditlist"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/cron/cronrun"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/payment/paymentremove"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/payment/paymentupdate"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/subscriber/create"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/subscriber/enddate"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/subscriber/list"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/subscriber/read"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/subscriber/remove"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/subscriber/status"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/users/usercreate"
	"github.com/magabrotheeeer/subscription-billing/internal/http/handlers/users/userremove"
	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
)

// SubscriberService операции автомата подписчика и платежей.
type SubscriberService interface {
	create.Service
	read.Service
	list.Service
	status.Service
	enddate.Service
	remove.Service
	paymentcreate.Service
	paymentlist.Service
	paymentupdate.Service
	paymentremove.Service
}

// UserService вход и управление операторами.
type UserService interface {
	login.Service
	usercreate.Service
	userremove.Service
	middlewarectx.UserLookup
}

// Services всё, что нужно маршрутам.
type Services struct {
	Subscribers SubscriberService
	Users       UserService
	Audit       auditlist.Service
	Scheduler   cronrun.Service
	Tokens      middlewarectx.TokenParser
	DB          health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, cfg config.HTTPServer) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, svc.Users).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Tokens, svc.Users, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))

			r.Post("/subscribers", create.New(logger, svc.Subscribers).ServeHTTP)
			r.Get("/subscribers", list.New(logger, svc.Subscribers).ServeHTTP)
			r.Get("/subscribers/{id}", read.New(logger, svc.Subscribers).ServeHTTP)
			r.Delete("/subscribers/{id}", remove.New(logger, svc.Subscribers).ServeHTTP)
			r.Put("/subscribers/{id}/status", status.New(logger, svc.Subscribers).ServeHTTP)
			r.Put("/subscribers/{id}/end-date", enddate.New(logger, svc.Subscribers).ServeHTTP)

			r.Post("/subscribers/{id}/payments", paymentcreate.New(logger, svc.Subscribers).ServeHTTP)
			r.Get("/subscribers/{id}/payments", paymentlist.New(logger, svc.Subscribers).ServeHTTP)
			r.Patch("/payments/{id}", paymentupdate.New(logger, svc.Subscribers).ServeHTTP)
			r.Delete("/payments/{id}", paymentremove.New(logger, svc.Subscribers).ServeHTTP)

			r.Get("/audit", auditlist.New(logger, svc.Audit).ServeHTTP)
			r.Post("/cron/run", cronrun.New(logger, svc.Scheduler).ServeHTTP)

			r.Post("/users", usercreate.New(logger, svc.Users).ServeHTTP)
			r.Delete("/users/{id}", userremove.New(logger, svc.Users).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, svc.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
