// Package enddate реализует ручную правку даты окончания подписки.
// Дата задаётся в календаре отображения, месяц начинается с нуля.
package enddate

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
	"github.com/magabrotheeeer/subscription-billing/internal/lib/calendar"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Request новая дата окончания.
type Request struct {
	Year  int `json:"year" validate:"required"`
	Month int `json:"month" validate:"gte=0,lte=11"`
	Day   int `json:"day" validate:"required,gte=1"`
}

// Handler обрабатывает PUT /subscribers/{id}/end-date.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает правку даты окончания.
type Service interface {
	UpdateEndDate(ctx context.Context, actor models.Actor, id int64, end calendar.Date) (*models.SubscriberView, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.enddate"
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

	view, err := h.service.UpdateEndDate(r.Context(), actor, id,
		calendar.Date{Year: req.Year, Month: req.Month, Day: req.Day})
	if err != nil {
		log.Error("failed to update end date", sl.SubscriberID(id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(view))
}
