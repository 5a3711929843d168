// Package paymentremove реализует удаление платежа.
package paymentremove

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

// Handler обрабатывает DELETE /payments/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает удаление платежа.
type Service interface {
	DeletePayment(ctx context.Context, actor models.Actor, paymentID int64) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.remove"
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

	if err := h.service.DeletePayment(r.Context(), actor, id); err != nil {
		log.Error("failed to delete payment", slog.Int64("payment_id", id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	log.Info("payment deleted", slog.Int64("payment_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deleted_id": id}))
}
