// Package paymentlist реализует историю оплат подписчика.
package paymentlist

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

// Handler обрабатывает GET /subscribers/{id}/payments.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выборку платежей.
type Service interface {
	ListPayments(ctx context.Context, actor models.Actor, subscriberID int64) ([]*models.Payment, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"
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

	payments, err := h.service.ListPayments(r.Context(), actor, id)
	if err != nil {
		log.Error("failed to list payments", sl.SubscriberID(id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(payments),
		"payments":   payments,
	}))
}
