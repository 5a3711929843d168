// Package cronrun реализует ручной запуск ежедневного прохода.
package cronrun

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-billing/internal/http/response"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Handler обрабатывает POST /cron/run.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает запуск прохода.
type Service interface {
	RunDailyPass(ctx context.Context, trigger models.Actor) (models.RunSummary, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить ежедневный проход
// @Description Синхронно выполняет напоминания и автоотключение, возвращает итог прохода.
// @Tags Cron
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 409 {object} response.ErrorResponse "Проход уже выполняется"
// @Router /cron/run [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cron.run"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.RequireActor(w, r)
	if !ok {
		return
	}

	// Проход ограничен собственным таймаутом и не прерывается отключением клиента.
	summary, err := h.service.RunDailyPass(context.WithoutCancel(r.Context()), actor)
	if err != nil {
		log.Error("manual daily pass failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	log.Info("manual daily pass finished",
		slog.Int("reminders_sent", summary.RemindersSent),
		slog.Int("deactivated", summary.DeactivatedCount),
	)
	render.JSON(w, r, response.StatusOKWithData(summary))
}
