// Package paymentcreate реализует регистрацию оплаты подписчика.
//
// Оператор выбирает оплачиваемые месяцы календаря отображения; сумма
// и новая дата окончания вычисляются сервисом, а подписчик становится active.
package paymentcreate

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

// Handler обрабатывает POST /subscribers/{id}/payments.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает регистрацию оплаты.
type Service interface {
	RecordPayment(ctx context.Context, actor models.Actor, id int64, in models.PaymentInput) (*models.Payment, *models.SubscriberView, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать оплату
// @Description Продлевает подписку на выбранные месяцы и активирует подписчика.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param id path int true "ID подписчика"
// @Param request body models.PaymentInput true "Оплачиваемые периоды"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Подписчик не найден"
// @Failure 422 {object} response.ErrorResponse "Некорректные периоды"
// @Router /subscribers/{id}/payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"
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

	var req models.PaymentInput
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

	payment, view, err := h.service.RecordPayment(r.Context(), actor, id, req)
	if err != nil {
		log.Error("failed to record payment", sl.SubscriberID(id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("payment recorded",
		sl.SubscriberID(id),
		slog.Int64("payment_id", payment.ID),
		slog.String("amount", payment.AmountPaid.String()),
	)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment":    payment,
		"subscriber": view,
	}))
}
