package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

const subscriberColumns = `id, name, email, phone, frequency, rate, reminder_days_before,
	subscription_end, status, status_notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := row.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Phone, &sub.Frequency, &sub.Rate,
		&sub.ReminderDaysBefore, &sub.SubscriptionEnd, &sub.Status, &sub.StatusNotes,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.SubscriptionEnd = sub.SubscriptionEnd.UTC()
	return &sub, nil
}

// CreateSubscriber вставляет подписчика и запись аудита в одной транзакции.
// TargetID записи аудита заполняется идентификатором нового подписчика.
func (s *Storage) CreateSubscriber(ctx context.Context, sub models.Subscriber, audit models.AuditRecord) (*models.Subscriber, error) {
	const op = "storage.CreateSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rollback(tx)

	query := `INSERT INTO subscribers (name, email, phone, frequency, rate, reminder_days_before,
				subscription_end, status, status_notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + subscriberColumns
	created, err := scanSubscriber(tx.QueryRowContext(ctx, query,
		sub.Name, sub.Email, sub.Phone, sub.Frequency, sub.Rate, sub.ReminderDaysBefore,
		sub.SubscriptionEnd, sub.Status, sub.StatusNotes))
	if err != nil {
		return nil, persistErr(op, err)
	}

	audit.TargetTable = models.TableSubscribers
	audit.TargetID = strconv.FormatInt(created.ID, 10)
	if _, err = insertAudit(ctx, tx, audit); err != nil {
		return nil, persistErr(op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, persistErr(op, err)
	}
	return created, nil
}

// GetSubscriber возвращает подписчика по ID.
func (s *Storage) GetSubscriber(ctx context.Context, id int64) (*models.Subscriber, error) {
	const op = "storage.GetSubscriber"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE id = $1`
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, persistErr(op, err)
	}
	return sub, nil
}

// ListSubscribersByStatus возвращает всех подписчиков с указанным статусом.
// Используется планировщиком для выборки активных подписчиков.
func (s *Storage) ListSubscribersByStatus(ctx context.Context, status models.Status) ([]*models.Subscriber, error) {
	const op = "storage.ListSubscribersByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE status = $1 ORDER BY id`
	return s.querySubscribers(ctx, op, query, status)
}

// ListSubscribers возвращает страницу подписчиков. Пустой status означает всех.
func (s *Storage) ListSubscribers(ctx context.Context, status models.Status, limit, offset int) ([]*models.Subscriber, error) {
	const op = "storage.ListSubscribers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriberColumns + ` FROM subscribers
			  WHERE ($1 = '' OR status = $1)
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	return s.querySubscribers(ctx, op, query, string(status), normalizeLimit(limit), max(offset, 0))
}

func (s *Storage) querySubscribers(ctx context.Context, op, query string, args ...any) ([]*models.Subscriber, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rows.Close()

	var list []*models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, persistErr(op, err)
		}
		list = append(list, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return list, nil
}

// MutateSubscriber блокирует строку подписчика (SELECT ... FOR UPDATE),
// вызывает fn с текущим состоянием и атомарно записывает результат:
// новое состояние, платёж и записи аудита. Ошибка fn откатывает транзакцию
// и возвращается как есть.
func (s *Storage) MutateSubscriber(ctx context.Context, id int64, fn func(models.Subscriber) (models.Transition, error)) (models.MutationResult, error) {
	const op = "storage.MutateSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return models.MutationResult{}, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.MutationResult{}, persistErr(op, err)
	}
	defer rollback(tx)

	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE id = $1 FOR UPDATE`
	current, err := scanSubscriber(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.MutationResult{}, persistErr(op, err)
	}

	tr, err := fn(*current)
	if err != nil {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if tr.Subscriber == nil && tr.Payment == nil && len(tr.Audit) == 0 && !tr.Delete {
		return models.MutationResult{Subscriber: current}, nil
	}

	res := models.MutationResult{Subscriber: current, Applied: true}
	switch {
	case tr.Delete:
		if _, err = tx.ExecContext(ctx, `DELETE FROM subscribers WHERE id = $1`, id); err != nil {
			return models.MutationResult{}, persistErr(op, err)
		}
		res.Subscriber = nil
	case tr.Subscriber != nil:
		res.Subscriber, err = updateSubscriber(ctx, tx, id, *tr.Subscriber)
		if err != nil {
			return models.MutationResult{}, persistErr(op, err)
		}
	}

	if tr.Payment != nil {
		p := *tr.Payment
		p.SubscriberID = id
		res.Payment, err = insertPayment(ctx, tx, p)
		if err != nil {
			return models.MutationResult{}, persistErr(op, err)
		}
	}

	for _, rec := range tr.Audit {
		if rec.TargetTable == "" {
			rec.TargetTable = models.TableSubscribers
		}
		if rec.TargetID == "" {
			switch {
			case rec.TargetTable == models.TablePayments && res.Payment != nil:
				rec.TargetID = strconv.FormatInt(res.Payment.ID, 10)
			case rec.TargetTable == models.TableSubscribers:
				rec.TargetID = strconv.FormatInt(id, 10)
			}
		}
		if _, err = insertAudit(ctx, tx, rec); err != nil {
			return models.MutationResult{}, persistErr(op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return models.MutationResult{}, persistErr(op, err)
	}
	return res, nil
}

func updateSubscriber(ctx context.Context, q queryer, id int64, sub models.Subscriber) (*models.Subscriber, error) {
	query := `UPDATE subscribers
			  SET name = $2, email = $3, phone = $4, frequency = $5, rate = $6,
			      reminder_days_before = $7, subscription_end = $8, status = $9,
			      status_notes = $10, updated_at = now()
			  WHERE id = $1
			  RETURNING ` + subscriberColumns
	return scanSubscriber(q.QueryRowContext(ctx, query, id,
		sub.Name, sub.Email, sub.Phone, sub.Frequency, sub.Rate, sub.ReminderDaysBefore,
		sub.SubscriptionEnd, sub.Status, sub.StatusNotes))
}
