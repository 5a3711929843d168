// Package create реализует HTTP-обработчик создания подписчика.
//
// Handler принимает JSON с данными подписчика, валидирует его и передаёт
// в сервис вместе с актором запроса. Дата окончания первого периода
// вычисляется сервисом.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-billing/internal/http/response"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Handler управляет HTTP-запросами на создание подписчиков.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания подписчика.
type Service interface {
	Create(ctx context.Context, actor models.Actor, req models.NewSubscriber) (*models.SubscriberView, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать подписчика
// @Description Создает подписчика со статусом active и первым оплаченным периодом.
// @Tags Subscribers
// @Accept  json
// @Produce  json
// @Param request body models.NewSubscriber true "Данные подписчика"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /subscribers [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.RequireActor(w, r)
	if !ok {
		return
	}

	var req models.NewSubscriber
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.WriteBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.WriteValidation(w, r, err)
		return
	}

	view, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		log.Error("failed to create subscriber", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("subscriber created", sl.SubscriberID(view.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(view))
}
