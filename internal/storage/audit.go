package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

func insertAudit(ctx context.Context, q queryer, rec models.AuditRecord) (int64, error) {
	metadata := rec.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("encode audit metadata: %w", err)
	}
	var role sql.NullString
	if rec.ActorRole != nil {
		role = sql.NullString{String: string(*rec.ActorRole), Valid: true}
	}

	query := `INSERT INTO audit_logs (actor_id, actor_role, action_type, description,
				metadata, target_table, target_id)
			  VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
			  RETURNING id`
	var id int64
	err = q.QueryRowContext(ctx, query, nullUUID(rec.ActorID), role, rec.ActionType,
		rec.Description, string(raw), rec.TargetTable, rec.TargetID).Scan(&id)
	return id, err
}

// InsertAudit дописывает запись в журнал вне транзакции перехода.
func (s *Storage) InsertAudit(ctx context.Context, rec models.AuditRecord) (int64, error) {
	const op = "storage.InsertAudit"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	id, err := insertAudit(ctx, s.DB, rec)
	if err != nil {
		return 0, persistErr(op, err)
	}
	return id, nil
}

// ListAudit возвращает записи журнала, новые первыми. Ограничение видимости
// scope применяется в самом запросе.
func (s *Storage) ListAudit(ctx context.Context, scope models.AuditScope, filter models.AuditFilter) ([]*models.AuditRecord, error) {
	const op = "storage.ListAudit"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query, args := buildAuditQuery(scope, filter)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rows.Close()

	list := make([]*models.AuditRecord, 0)
	for rows.Next() {
		var (
			rec     models.AuditRecord
			actorID uuid.NullUUID
			role    sql.NullString
			raw     []byte
		)
		if err := rows.Scan(&rec.ID, &actorID, &role, &rec.ActionType, &rec.Description,
			&raw, &rec.TargetTable, &rec.TargetID, &rec.CreatedAt); err != nil {
			return nil, persistErr(op, err)
		}
		if actorID.Valid {
			id := actorID.UUID
			rec.ActorID = &id
		}
		if role.Valid {
			r := models.Role(role.String)
			rec.ActorRole = &r
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rec.Metadata); err != nil {
				return nil, persistErr(op, err)
			}
		}
		list = append(list, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return list, nil
}

func buildAuditQuery(scope models.AuditScope, filter models.AuditFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !scope.Unrestricted {
		if scope.StaffAndSystemOnly {
			where = append(where, "(actor_id IS NULL OR actor_role = "+arg(string(models.RoleStaff))+")")
		}
		if !scope.IncludeCommunication {
			where = append(where, "action_type <> "+arg(string(models.ActionCommunicationSent)))
		}
	}
	if filter.ActionType != "" {
		where = append(where, "action_type = "+arg(string(filter.ActionType)))
	}
	if filter.TargetTable != "" {
		where = append(where, "target_table = "+arg(filter.TargetTable))
	}
	if filter.TargetID != "" {
		where = append(where, "target_id = "+arg(filter.TargetID))
	}
	if filter.From != nil {
		where = append(where, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "created_at < "+arg(*filter.To))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, actor_id, actor_role, action_type, description, metadata,
		target_table, target_id, created_at FROM audit_logs`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	b.WriteString(" LIMIT " + arg(normalizeLimit(filter.Limit)))
	b.WriteString(" OFFSET " + arg(max(filter.Offset, 0)))
	return b.String(), args
}
