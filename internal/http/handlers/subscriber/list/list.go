// Package list реализует HTTP-обработчик списка подписчиков.
package list

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

const defaultLimit = 50

// Handler обрабатывает GET /subscribers.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выборку подписчиков.
type Service interface {
	List(ctx context.Context, actor models.Actor, status models.Status, limit, offset int) ([]models.SubscriberView, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список подписчиков
// @Description Фильтр status применяется к хранимому статусу.
// @Tags Subscribers
// @Produce  json
// @Param status query string false "active, inactive или cancelled"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /subscribers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.RequireActor(w, r)
	if !ok {
		return
	}

	status := models.Status(r.URL.Query().Get("status"))
	switch status {
	case "", models.StatusActive, models.StatusInactive, models.StatusCancelled:
	default:
		response.WriteBadRequest(w, r, "unknown status filter")
		return
	}
	limit, offset := params.Page(r, defaultLimit)

	res, err := h.service.List(r.Context(), actor, status, limit, offset)
	if err != nil {
		log.Error("failed to list subscribers", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("list subscribers", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count":  len(res),
		"subscribers": res,
	}))
}
