// Package paymentupdate реализует правку реквизитов платежа.
// Дата окончания подписки при этом не пересчитывается.
package paymentupdate

import (
	"context"
	"encoding/json"
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

// Handler обрабатывает PATCH /payments/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает правку платежа.
type Service interface {
	UpdatePayment(ctx context.Context, actor models.Actor, paymentID int64, patch models.PaymentPatch) (*models.Payment, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Изменить платёж
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param id path int true "ID платежа"
// @Param request body models.PaymentPatch true "Изменяемые поля"
// @Success 200 {object} response.Response
// @Router /payments/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.update"
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

	var patch models.PaymentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.WriteBadRequest(w, r, "invalid request body")
		return
	}

	payment, err := h.service.UpdatePayment(r.Context(), actor, id, patch)
	if err != nil {
		log.Error("failed to update payment", slog.Int64("payment_id", id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(payment))
}
