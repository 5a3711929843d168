// Package remove реализует HTTP-обработчик удаления подписчика.
package remove

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

// Handler обрабатывает DELETE /subscribers/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает удаление подписчика.
type Service interface {
	Delete(ctx context.Context, actor models.Actor, id int64) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить подписчика
// @Tags Subscribers
// @Param id path int true "ID подписчика"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Подписчик не найден"
// @Router /subscribers/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.remove"
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
		response.WriteBadRequest(w, r, "failed to decode id from url")
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		log.Error("failed to delete subscriber", sl.SubscriberID(id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("subscriber deleted", sl.SubscriberID(id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deleted_id": id}))
}
