// Package status реализует ручное переключение статуса подписчика
// между active и inactive.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-billing/internal/http/params"
	"github.com/magabrotheeeer/subscription-billing/internal/http/response"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Request желаемый статус.
type Request struct {
	Status models.Status `json:"status" validate:"required,oneof=active inactive"`
}

// Handler обрабатывает PUT /subscribers/{id}/status.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает переключение статуса.
type Service interface {
	ManualToggle(ctx context.Context, actor models.Actor, id int64, desired models.Status) (*models.SubscriberView, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Переключить статус подписчика
// @Tags Subscribers
// @Accept  json
// @Produce  json
// @Param id path int true "ID подписчика"
// @Param request body Request true "Новый статус"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Переход недопустим"
// @Router /subscribers/{id}/status [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.status"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.WriteBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.WriteValidation(w, r, err)
		return
	}

	view, err := h.service.ManualToggle(r.Context(), actor, id, req.Status)
	if err != nil {
		log.Error("failed to toggle status", sl.SubscriberID(id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("status changed", sl.SubscriberID(id), slog.String("status", string(view.Status)))
	render.JSON(w, r, response.StatusOKWithData(view))
}
