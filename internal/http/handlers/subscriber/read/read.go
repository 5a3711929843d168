// Package read реализует HTTP-обработчик чтения подписчика.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-billing/internal/http/params"
	"github.com/magabrotheeeer/subscription-billing/internal/http/response"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Handler обрабатывает GET /subscribers/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение подписчика.
type Service interface {
	Get(ctx context.Context, actor models.Actor, id int64) (*models.SubscriberView, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить подписчика
// @Tags Subscribers
// @Produce  json
// @Param id path int true "ID подписчика"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Подписчик не найден"
// @Router /subscribers/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.RequireActor(w, r)
	if !ok {
		return
	}
	id, err := params.Int64(r, "id")
	if err != nil {
		log.Warn("failed to decode id from url", sl.Err(err))
		response.WriteBadRequest(w, r, "failed to decode id from url")
		return
	}

	view, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		log.Error("failed to read subscriber", sl.SubscriberID(id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(view))
}
