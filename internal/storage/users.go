package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

const userColumns = `id, username, email, password_hash, role, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser сохраняет оператора и запись аудита user_created.
func (s *Storage) CreateUser(ctx context.Context, user models.User, audit models.AuditRecord) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rollback(tx)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `INSERT INTO users (id, username, email, password_hash, role)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + userColumns
	created, err := scanUser(tx.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role))
	if err != nil {
		return nil, persistErr(op, err)
	}

	audit.TargetTable = models.TableUsers
	audit.TargetID = created.ID.String()
	if _, err = insertAudit(ctx, tx, audit); err != nil {
		return nil, persistErr(op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, persistErr(op, err)
	}
	return created, nil
}

// GetUser возвращает оператора по ID.
func (s *Storage) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, persistErr(op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает оператора по имени пользователя.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, persistErr(op, err)
	}
	return u, nil
}

// DeleteUser удаляет оператора и пишет аудит user_deleted.
// Записи журнала удалённого оператора сохраняют его роль.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID, audit models.AuditRecord) error {
	const op = "storage.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return persistErr(op, err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return persistErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistErr(op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	audit.TargetTable = models.TableUsers
	audit.TargetID = id.String()
	if _, err = insertAudit(ctx, tx, audit); err != nil {
		return persistErr(op, err)
	}
	if err = tx.Commit(); err != nil {
		return persistErr(op, err)
	}
	return nil
}
