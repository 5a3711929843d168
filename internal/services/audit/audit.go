// Package audit отдаёт журнал аудита с учётом роли читающего и дописывает
// в него записи, не связанные с переходами подписчика.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
	"github.com/magabrotheeeer/subscription-billing/internal/permission"
)

// Repository определяет методы хранилища журнала.
type Repository interface {
	// InsertAudit дописывает запись.
	InsertAudit(ctx context.Context, rec models.AuditRecord) (int64, error)
	// ListAudit возвращает записи с ограничением видимости scope.
	ListAudit(ctx context.Context, scope models.AuditScope, filter models.AuditFilter) ([]*models.AuditRecord, error)
}

// Service читает и пишет журнал аудита.
type Service struct {
	repo Repository
	gate *permission.Gate
	log  *slog.Logger
}

// NewAuditService создает новый экземпляр Service.
func NewAuditService(repo Repository, gate *permission.Gate, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		gate: gate,
		log:  log,
	}
}

// List возвращает записи, видимые актору. Для роли без права на журнал
// возвращается пустой список без обращения к хранилищу.
func (s *Service) List(ctx context.Context, actor models.Actor, filter models.AuditFilter) ([]*models.AuditRecord, error) {
	const op = "audit.List"
	if actor.IsSystem() || !actor.Role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	scope, visible := s.gate.AuditScope(actor.Role)
	if !visible {
		return []*models.AuditRecord{}, nil
	}

	list, err := s.repo.ListAudit(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Record дописывает запись в журнал.
func (s *Service) Record(ctx context.Context, rec models.AuditRecord) error {
	const op = "audit.Record"
	id, err := s.repo.InsertAudit(ctx, rec)
	if err != nil {
		s.log.Error("failed to write audit record", slog.String("action", string(rec.ActionType)), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("audit record written", slog.Int64("id", id), slog.String("action", string(rec.ActionType)))
	return nil
}
