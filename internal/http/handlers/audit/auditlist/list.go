// Package auditlist реализует чтение журнала аудита с учётом роли.
//
// Видимость записей определяет сервис: staff получает пустой список,
// admin видит только системные записи и записи сотрудников.
package auditlist

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-billing/internal/http/params"
	"github.com/magabrotheeeer/subscription-billing/internal/http/response"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

const defaultLimit = 100

// Handler обрабатывает GET /audit.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение журнала.
type Service interface {
	List(ctx context.Context, actor models.Actor, filter models.AuditFilter) ([]*models.AuditRecord, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал аудита
// @Tags Audit
// @Produce  json
// @Param action query string false "Тип действия"
// @Param target_table query string false "Таблица"
// @Param target_id query string false "ID записи"
// @Param from query string false "Начало интервала, RFC3339"
// @Param to query string false "Конец интервала, RFC3339"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /audit [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.audit.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.RequireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := models.AuditFilter{
		ActionType:  models.ActionType(q.Get("action")),
		TargetTable: q.Get("target_table"),
		TargetID:    q.Get("target_id"),
	}
	filter.Limit, filter.Offset = params.Page(r, defaultLimit)
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.WriteBadRequest(w, r, "invalid "+key+" timestamp, expected RFC3339")
			return
		}
		*dst = &t
	}

	records, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		log.Error("failed to list audit records", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(records),
		"records":    records,
	}))
}
