// Package subscriber реализует конечный автомат подписчика: создание,
// регистрацию оплаты, ручное переключение статуса, автоотключение
// по льготному периоду и правку даты окончания. Каждый переход выполняется
// под блокировкой строки подписчика и пишет аудит в той же транзакции.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/calendar"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/clock"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
	"github.com/magabrotheeeer/subscription-billing/internal/permission"
)

// ErrInvalidAmount сумма платежа не положительна.
var ErrInvalidAmount = errors.New("amount must be positive")

// Repository определяет методы хранилища, нужные автомату.
type Repository interface {
	// CreateSubscriber сохраняет подписчика вместе с записью аудита.
	CreateSubscriber(ctx context.Context, sub models.Subscriber, audit models.AuditRecord) (*models.Subscriber, error)
	// GetSubscriber возвращает подписчика по ID.
	GetSubscriber(ctx context.Context, id int64) (*models.Subscriber, error)
	// ListSubscribers возвращает страницу подписчиков.
	ListSubscribers(ctx context.Context, status models.Status, limit, offset int) ([]*models.Subscriber, error)
	// MutateSubscriber выполняет переход под блокировкой строки.
	MutateSubscriber(ctx context.Context, id int64, fn func(models.Subscriber) (models.Transition, error)) (models.MutationResult, error)
	// GetPayment возвращает платёж по ID.
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	// ListPayments возвращает платежи подписчика.
	ListPayments(ctx context.Context, subscriberID int64) ([]*models.Payment, error)
	// UpdatePayment меняет платёж и пишет аудит.
	UpdatePayment(ctx context.Context, id int64, patch models.PaymentPatch, audit models.AuditRecord) (*models.Payment, error)
	// DeletePayment удаляет платёж и пишет аудит.
	DeletePayment(ctx context.Context, id int64, audit models.AuditRecord) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// SetNX сохраняет значение, только если ключа ещё нет.
	SetNX(key string, value any, expiration time.Duration) (bool, error)
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Calendar операции календаря отображения, нужные автомату.
type Calendar interface {
	ToDisplay(t time.Time) (calendar.Date, error)
	FromDate(d calendar.Date) (time.Time, error)
	StartOfDay(t time.Time) time.Time
	DaysBetween(from, to time.Time) int
}

// Service реализует переходы состояния подписчика.
type Service struct {
	repo      Repository
	cache     Cache
	gate      *permission.Gate
	resolver  *billing.Resolver
	cal       Calendar
	clock     clock.Clock
	opTimeout time.Duration
	log       *slog.Logger
}

// NewSubscriberService создает новый экземпляр Service.
func NewSubscriberService(repo Repository, cache Cache, gate *permission.Gate, resolver *billing.Resolver,
	cal Calendar, clk clock.Clock, opTimeout time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		gate:      gate,
		resolver:  resolver,
		cal:       cal,
		clock:     clk,
		opTimeout: opTimeout,
		log:       log,
	}
}

const (
	cardTTL      = time.Hour
	tombstoneTTL = 5 * time.Minute
)

// cacheEntry запись кеша подписчика. Deleted означает, что подписчик удалён
// и читать его из хранилища до истечения записи не нужно.
type cacheEntry struct {
	Subscriber *models.Subscriber `json:"subscriber,omitempty"`
	Deleted    bool               `json:"deleted,omitempty"`
}

func cacheKey(id int64) string {
	return fmt.Sprintf("subscriber:%d", id)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// DisplayStatus отображаемый статус подписчика на текущий момент.
func (s *Service) DisplayStatus(sub models.Subscriber) models.Status {
	return sub.DisplayStatus(s.clock.Now())
}

func (s *Service) view(sub models.Subscriber) models.SubscriberView {
	v := models.SubscriberView{
		Subscriber:    sub,
		DisplayStatus: s.DisplayStatus(sub),
	}
	if d, err := s.cal.ToDisplay(sub.SubscriptionEnd); err == nil {
		v.EndDisplay = d.String()
	}
	return v
}

func (s *Service) displayDate(t time.Time) string {
	d, err := s.cal.ToDisplay(t)
	if err != nil {
		return t.UTC().Format(time.DateOnly)
	}
	return d.String()
}

// cacheStore записывает подтверждённое состояние после перехода поверх
// любого значения в кеше. Если запись не удалась, старое значение удаляется.
func (s *Service) cacheStore(id int64, entry cacheEntry, ttl time.Duration) {
	key := cacheKey(id)
	err := s.cache.Set(key, entry, ttl)
	if err == nil {
		return
	}
	s.log.Warn("failed to cache subscriber", slog.String("key", key), sl.Err(err))
	if err = s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) cacheCommitted(sub *models.Subscriber) {
	s.cacheStore(sub.ID, cacheEntry{Subscriber: sub}, cardTTL)
}

// cacheFill кладёт в кеш прочитанную из хранилища строку, только если ключ
// пуст. Переход, завершившийся между чтением и заполнением, уже записал
// более свежее значение, и оно не перетирается.
func (s *Service) cacheFill(sub *models.Subscriber) {
	key := cacheKey(sub.ID)
	if _, err := s.cache.SetNX(key, cacheEntry{Subscriber: sub}, cardTTL); err != nil {
		s.log.Warn("failed to cache subscriber", slog.String("key", key), sl.Err(err))
	}
}

// Create создаёт активного подписчика с окончанием через одну единицу периода.
func (s *Service) Create(ctx context.Context, actor models.Actor, req models.NewSubscriber) (*models.SubscriberView, error) {
	const op = "subscriber.Create"
	if err := s.gate.Require(actor, permission.CreateSubscriber); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !req.Rate.IsPositive() {
		return nil, fmt.Errorf("%s: %w", op, billing.ErrInvalidRate)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	end, err := s.resolver.InitialEnd(s.clock.Now(), req.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub := models.Subscriber{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Frequency:          req.Frequency,
		Rate:               req.Rate,
		ReminderDaysBefore: req.ReminderDaysBefore,
		SubscriptionEnd:    end,
		Status:             models.StatusActive,
	}
	audit := models.NewAuditRecord(actor, models.ActionSubscriberCreated,
		fmt.Sprintf("Created subscriber %s", req.Name))
	audit.Metadata = map[string]any{
		"frequency":        req.Frequency,
		"rate":             req.Rate.String(),
		"subscription_end": s.displayDate(end),
	}

	created, err := s.repo.CreateSubscriber(ctx, sub, audit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new subscriber", slog.Int64("id", created.ID))
	s.cacheCommitted(created)

	v := s.view(*created)
	return &v, nil
}

// Get возвращает подписчика с отображаемым статусом, используя кеш или хранилище.
func (s *Service) Get(ctx context.Context, actor models.Actor, id int64) (*models.SubscriberView, error) {
	const op = "subscriber.Get"
	if err := s.gate.Require(actor, permission.ViewSubscriber); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cached cacheEntry
	found, err := s.cache.Get(cacheKey(id), &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	if found && cached.Deleted {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if found && cached.Subscriber != nil {
		v := s.view(*cached.Subscriber)
		return &v, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	sub, err := s.repo.GetSubscriber(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheFill(sub)

	v := s.view(*sub)
	return &v, nil
}

// List возвращает страницу подписчиков. Фильтр status сравнивается с хранимым статусом.
func (s *Service) List(ctx context.Context, actor models.Actor, status models.Status, limit, offset int) ([]models.SubscriberView, error) {
	const op = "subscriber.List"
	if err := s.gate.Require(actor, permission.ViewSubscriber); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	list, err := s.repo.ListSubscribers(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	views := make([]models.SubscriberView, 0, len(list))
	for _, sub := range list {
		views = append(views, s.view(*sub))
	}
	return views, nil
}

// RecordPayment регистрирует оплату за выбранные периоды. Независимо от
// текущего статуса подписчик становится активным, примечание очищается,
// дата окончания берётся из расчёта периода.
func (s *Service) RecordPayment(ctx context.Context, actor models.Actor, id int64, in models.PaymentInput) (*models.Payment, *models.SubscriberView, error) {
	const op = "subscriber.RecordPayment"
	if err := s.gate.Require(actor, permission.CreatePayment); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock.Now()
	paidAt := now
	if in.PaymentDate != nil {
		paidAt = *in.PaymentDate
	}

	res, err := s.repo.MutateSubscriber(ctx, id, func(cur models.Subscriber) (models.Transition, error) {
		calc, err := s.resolver.Resolve(billing.Input{
			Frequency:  cur.Frequency,
			Rate:       cur.Rate,
			CurrentEnd: cur.SubscriptionEnd,
			Periods:    in.Periods,
		})
		if err != nil {
			return models.Transition{}, err
		}

		next := cur
		next.SubscriptionEnd = calc.NewEnd
		next.Status = models.StatusActive
		next.StatusNotes = ""

		payment := &models.Payment{
			SubscriberID:   cur.ID,
			AmountPaid:     calc.AmountDue,
			PaymentDate:    paidAt,
			CoveredPeriods: calc.Periods,
			ReceiptNumber:  in.ReceiptNumber,
			PaymentMode:    in.PaymentMode,
			ProofURL:       in.ProofURL,
			RecordedBy:     actor.ID,
		}

		audit := models.NewAuditRecord(actor, models.ActionPaymentCreated,
			fmt.Sprintf("Recorded payment of %s for %s", calc.AmountDue.StringFixed(2), cur.Name))
		audit.TargetTable = models.TablePayments
		audit.Metadata = map[string]any{
			"subscriber_id":   cur.ID,
			"amount":          calc.AmountDue.String(),
			"covered_periods": calc.Periods,
			"previous_end":    s.displayDate(cur.SubscriptionEnd),
			"new_end":         s.displayDate(calc.NewEnd),
			"previous_status": cur.Status,
		}

		return models.Transition{
			Subscriber: &next,
			Payment:    payment,
			Audit:      []models.AuditRecord{audit},
		}, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheCommitted(res.Subscriber)
	s.log.Info("payment recorded",
		slog.Int64("subscriber_id", id),
		slog.Int64("payment_id", res.Payment.ID),
		slog.String("amount", res.Payment.AmountPaid.String()),
	)

	v := s.view(*res.Subscriber)
	return res.Payment, &v, nil
}

// ManualToggle переключает подписчика между active и inactive.
// Дата окончания не меняется. Отменённого подписчика переключить нельзя.
func (s *Service) ManualToggle(ctx context.Context, actor models.Actor, id int64, desired models.Status) (*models.SubscriberView, error) {
	const op = "subscriber.ManualToggle"
	if err := s.gate.Require(actor, permission.UpdateSubscriber); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if desired != models.StatusActive && desired != models.StatusInactive {
		return nil, fmt.Errorf("%s: %w: cannot set status %q manually", op, models.ErrInconsistentState, desired)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.repo.MutateSubscriber(ctx, id, func(cur models.Subscriber) (models.Transition, error) {
		if cur.Status == models.StatusCancelled {
			return models.Transition{}, fmt.Errorf("%w: subscriber %d is cancelled", models.ErrInconsistentState, cur.ID)
		}
		if cur.Status == desired {
			return models.NoChange, nil
		}
		next := cur
		next.Status = desired
		if desired == models.StatusActive {
			next.StatusNotes = ""
		}
		audit := models.NewAuditRecord(actor, models.ActionSubscriberUpdated,
			fmt.Sprintf("Changed status of %s from %s to %s", cur.Name, cur.Status, desired))
		audit.Metadata = map[string]any{
			"field": "status",
			"from":  cur.Status,
			"to":    desired,
		}
		return models.Transition{Subscriber: &next, Audit: []models.AuditRecord{audit}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.Applied {
		s.cacheCommitted(res.Subscriber)
		s.log.Info("subscriber status changed", slog.Int64("subscriber_id", id), slog.String("status", string(desired)))
	}

	v := s.view(*res.Subscriber)
	return &v, nil
}

// GraceExpire отключает подписчика, просроченного больше чем на graceDays
// на момент asOf. Условие перепроверяется под блокировкой строки: уже
// отключённый подписчик не меняется. Вызывается только планировщиком.
func (s *Service) GraceExpire(ctx context.Context, id int64, asOf time.Time, graceDays int) (*models.Subscriber, bool, error) {
	const op = "subscriber.GraceExpire"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	today := s.cal.StartOfDay(asOf)
	res, err := s.repo.MutateSubscriber(ctx, id, func(cur models.Subscriber) (models.Transition, error) {
		switch cur.Status {
		case models.StatusCancelled:
			return models.Transition{}, fmt.Errorf("%w: subscriber %d is cancelled", models.ErrInconsistentState, cur.ID)
		case models.StatusActive:
		default:
			return models.NoChange, nil
		}

		overdue := -s.cal.DaysBetween(today, s.cal.StartOfDay(cur.SubscriptionEnd))
		if overdue <= graceDays {
			return models.NoChange, nil
		}

		next := cur
		next.Status = models.StatusInactive
		next.StatusNotes = fmt.Sprintf("Auto-deactivated on %s: overdue by %d days (grace period %d days)",
			s.displayDate(asOf), overdue, graceDays)

		audit := models.NewAuditRecord(models.SystemActor, models.ActionSubscriberUpdated,
			fmt.Sprintf("Auto-deactivated %s after grace period", cur.Name))
		audit.Metadata = map[string]any{
			"reason":          "grace_period_expired",
			"overdue_days":    overdue,
			"grace_days":      graceDays,
			"previous_status": cur.Status,
		}
		return models.Transition{Subscriber: &next, Audit: []models.AuditRecord{audit}}, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if res.Applied {
		s.cacheCommitted(res.Subscriber)
	}
	return res.Subscriber, res.Applied, nil
}

// UpdateEndDate задаёт дату окончания напрямую, минуя расчёт периода.
func (s *Service) UpdateEndDate(ctx context.Context, actor models.Actor, id int64, end calendar.Date) (*models.SubscriberView, error) {
	const op = "subscriber.UpdateEndDate"
	if err := s.gate.Require(actor, permission.UpdateSubscriber); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	newEnd, err := s.cal.FromDate(end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.repo.MutateSubscriber(ctx, id, func(cur models.Subscriber) (models.Transition, error) {
		if cur.SubscriptionEnd.Equal(newEnd) {
			return models.NoChange, nil
		}
		next := cur
		next.SubscriptionEnd = newEnd
		audit := models.NewAuditRecord(actor, models.ActionSubscriberUpdated,
			fmt.Sprintf("Changed subscription end of %s to %s", cur.Name, end))
		audit.Metadata = map[string]any{
			"field": "subscription_end",
			"from":  s.displayDate(cur.SubscriptionEnd),
			"to":    end.String(),
		}
		return models.Transition{Subscriber: &next, Audit: []models.AuditRecord{audit}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.Applied {
		s.cacheCommitted(res.Subscriber)
	}

	v := s.view(*res.Subscriber)
	return &v, nil
}

// Delete удаляет подписчика вместе с его платежами.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id int64) error {
	const op = "subscriber.Delete"
	if err := s.gate.Require(actor, permission.DeleteSubscriber); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.repo.MutateSubscriber(ctx, id, func(cur models.Subscriber) (models.Transition, error) {
		audit := models.NewAuditRecord(actor, models.ActionSubscriberDeleted,
			fmt.Sprintf("Deleted subscriber %s", cur.Name))
		audit.Metadata = map[string]any{
			"name":             cur.Name,
			"status":           cur.Status,
			"subscription_end": s.displayDate(cur.SubscriptionEnd),
		}
		return models.Transition{Delete: true, Audit: []models.AuditRecord{audit}}, nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.cacheStore(id, cacheEntry{Deleted: true}, tombstoneTTL)
	s.log.Info("subscriber deleted", slog.Int64("subscriber_id", id))
	return nil
}

// ListPayments возвращает платежи подписчика.
func (s *Service) ListPayments(ctx context.Context, actor models.Actor, subscriberID int64) ([]*models.Payment, error) {
	const op = "subscriber.ListPayments"
	if err := s.gate.Require(actor, permission.ViewPayment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.repo.GetSubscriber(ctx, subscriberID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err := s.repo.ListPayments(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []*models.Payment{}
	}
	return list, nil
}

// UpdatePayment меняет реквизиты или сумму платежа. Дата окончания подписки не меняется.
func (s *Service) UpdatePayment(ctx context.Context, actor models.Actor, paymentID int64, patch models.PaymentPatch) (*models.Payment, error) {
	const op = "subscriber.UpdatePayment"
	if err := s.gate.Require(actor, permission.UpdatePayment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if patch.AmountPaid != nil && !patch.AmountPaid.IsPositive() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	current, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	changes := map[string]any{}
	if patch.AmountPaid != nil {
		changes["amount_paid"] = map[string]string{"from": current.AmountPaid.String(), "to": patch.AmountPaid.String()}
	}
	if patch.ReceiptNumber != nil {
		changes["receipt_number"] = map[string]string{"from": current.ReceiptNumber, "to": *patch.ReceiptNumber}
	}
	if patch.PaymentMode != nil {
		changes["payment_mode"] = map[string]string{"from": current.PaymentMode, "to": *patch.PaymentMode}
	}
	if patch.ProofURL != nil {
		changes["proof_url"] = map[string]string{"from": current.ProofURL, "to": *patch.ProofURL}
	}
	audit := models.NewAuditRecord(actor, models.ActionPaymentUpdated,
		fmt.Sprintf("Updated payment %d", paymentID))
	audit.Metadata = map[string]any{
		"subscriber_id": current.SubscriberID,
		"changes":       changes,
	}

	updated, err := s.repo.UpdatePayment(ctx, paymentID, patch, audit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeletePayment удаляет платёж. Дата окончания подписки не откатывается.
func (s *Service) DeletePayment(ctx context.Context, actor models.Actor, paymentID int64) error {
	const op = "subscriber.DeletePayment"
	if err := s.gate.Require(actor, permission.DeletePayment); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	current, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	audit := models.NewAuditRecord(actor, models.ActionPaymentDeleted,
		fmt.Sprintf("Deleted payment %d", paymentID))
	audit.Metadata = map[string]any{
		"subscriber_id":   current.SubscriberID,
		"amount":          current.AmountPaid.String(),
		"covered_periods": current.CoveredPeriods,
	}
	if err := s.repo.DeletePayment(ctx, paymentID, audit); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
