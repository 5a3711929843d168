package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

const paymentColumns = `id, subscriber_id, amount_paid, payment_date, covered_periods,
	receipt_number, payment_mode, proof_url, recorded_by, created_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p          models.Payment
		periods    []byte
		recordedBy uuid.NullUUID
	)
	err := row.Scan(&p.ID, &p.SubscriberID, &p.AmountPaid, &p.PaymentDate, &periods,
		&p.ReceiptNumber, &p.PaymentMode, &p.ProofURL, &recordedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(periods) > 0 {
		if err := json.Unmarshal(periods, &p.CoveredPeriods); err != nil {
			return nil, fmt.Errorf("decode covered_periods: %w", err)
		}
	}
	if recordedBy.Valid {
		id := recordedBy.UUID
		p.RecordedBy = &id
	}
	return &p, nil
}

func insertPayment(ctx context.Context, q queryer, p models.Payment) (*models.Payment, error) {
	periods, err := json.Marshal(p.CoveredPeriods)
	if err != nil {
		return nil, fmt.Errorf("encode covered_periods: %w", err)
	}
	query := `INSERT INTO payments (subscriber_id, amount_paid, payment_date, covered_periods,
				receipt_number, payment_mode, proof_url, recorded_by)
			  VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8)
			  RETURNING ` + paymentColumns
	return scanPayment(q.QueryRowContext(ctx, query,
		p.SubscriberID, p.AmountPaid, p.PaymentDate, string(periods),
		p.ReceiptNumber, p.PaymentMode, p.ProofURL, nullUUID(p.RecordedBy)))
}

// GetPayment возвращает платёж по ID.
func (s *Storage) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, persistErr(op, err)
	}
	return p, nil
}

// ListPayments возвращает платежи подписчика, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, subscriberID int64) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE subscriber_id = $1
			  ORDER BY payment_date DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, subscriberID)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rows.Close()

	var list []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, persistErr(op, err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return list, nil
}

// UpdatePayment меняет переданные поля платежа и пишет аудит в той же транзакции.
// Дата окончания подписки не пересчитывается.
func (s *Storage) UpdatePayment(ctx context.Context, id int64, patch models.PaymentPatch, audit models.AuditRecord) (*models.Payment, error) {
	const op = "storage.UpdatePayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rollback(tx)

	query := `UPDATE payments
			  SET amount_paid = COALESCE($2, amount_paid),
			      receipt_number = COALESCE($3, receipt_number),
			      payment_mode = COALESCE($4, payment_mode),
			      proof_url = COALESCE($5, proof_url)
			  WHERE id = $1
			  RETURNING ` + paymentColumns
	var amount any
	if patch.AmountPaid != nil {
		amount = *patch.AmountPaid
	}
	p, err := scanPayment(tx.QueryRowContext(ctx, query, id, amount,
		patch.ReceiptNumber, patch.PaymentMode, patch.ProofURL))
	if err != nil {
		return nil, persistErr(op, err)
	}

	audit.TargetTable = models.TablePayments
	audit.TargetID = strconv.FormatInt(id, 10)
	if _, err = insertAudit(ctx, tx, audit); err != nil {
		return nil, persistErr(op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, persistErr(op, err)
	}
	return p, nil
}

// DeletePayment удаляет платёж и пишет аудит в той же транзакции.
func (s *Storage) DeletePayment(ctx context.Context, id int64, audit models.AuditRecord) error {
	const op = "storage.DeletePayment"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return persistErr(op, err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
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

	audit.TargetTable = models.TablePayments
	audit.TargetID = strconv.FormatInt(id, 10)
	if _, err = insertAudit(ctx, tx, audit); err != nil {
		return persistErr(op, err)
	}
	if err = tx.Commit(); err != nil {
		return persistErr(op, err)
	}
	return nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
