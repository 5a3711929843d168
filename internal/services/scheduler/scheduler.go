// Package scheduler реализует ежедневный проход: напоминания об окончании
// подписки и автоотключение после льготного периода.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/subscription-billing/internal/config"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/calendar"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/clock"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/metrics"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
	"github.com/magabrotheeeer/subscription-billing/internal/permission"
	"github.com/magabrotheeeer/subscription-billing/internal/services/notify"
)

const lockKey = "billing:daily-pass"

// SubscriberSource отдаёт подписчиков для прохода.
type SubscriberSource interface {
	ListSubscribersByStatus(ctx context.Context, status models.Status) ([]*models.Subscriber, error)
}

// Deactivator выполняет переход по истечении льготного периода.
type Deactivator interface {
	GraceExpire(ctx context.Context, id int64, asOf time.Time, graceDays int) (*models.Subscriber, bool, error)
}

// AuditWriter добавляет запись в журнал.
type AuditWriter interface {
	Record(ctx context.Context, rec models.AuditRecord) error
}

// Dispatcher рассылает пакет по всем каналам.
type Dispatcher interface {
	Broadcast(ctx context.Context, batch notify.Batch) []notify.Result
}

// Locker распределённая блокировка между экземплярами планировщика.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

// Calendar нужная проходу часть адаптера календаря.
type Calendar interface {
	ToDisplay(t time.Time) (calendar.Date, error)
	StartOfDay(t time.Time) time.Time
	DaysBetween(from, to time.Time) int
}

// Deps зависимости сервиса. Locker может быть nil, тогда работает
// только блокировка внутри процесса.
type Deps struct {
	Source      SubscriberSource
	Deactivator Deactivator
	Audit       AuditWriter
	Dispatcher  Dispatcher
	Locker      Locker
	Calendar    Calendar
	Gate        *permission.Gate
	Clock       clock.Clock
	Metrics     *metrics.Scheduler
}

// SchedulerService выполняет ежедневный проход.
type SchedulerService struct {
	deps  Deps
	cfg   config.Scheduler
	group singleflight.Group
	log   *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(deps Deps, cfg config.Scheduler, log *slog.Logger) *SchedulerService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &SchedulerService{
		deps: deps,
		cfg:  cfg,
		log:  log,
	}
}

type decision struct {
	sub        *models.Subscriber
	daysUntil  int
	remind     bool
	deactivate bool
}

// RunDailyPass единственная точка входа прохода. trigger == SystemActor
// для запуска по расписанию; ручной запуск требует TRIGGER_CRON.
// Одновременные вызовы в процессе получают результат одного прохода.
func (s *SchedulerService) RunDailyPass(ctx context.Context, trigger models.Actor) (models.RunSummary, error) {
	const op = "scheduler.RunDailyPass"

	if !trigger.IsSystem() {
		if err := s.deps.Gate.Require(trigger, permission.TriggerCron); err != nil {
			return models.RunSummary{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	v, err, shared := s.group.Do(lockKey, func() (any, error) {
		return s.runLocked(ctx, trigger)
	})
	if shared {
		s.log.Debug("daily pass result shared with concurrent caller", slog.String("op", op))
	}
	summary, _ := v.(models.RunSummary)
	if err != nil {
		return summary, fmt.Errorf("%s: %w", op, err)
	}
	return summary, nil
}

func (s *SchedulerService) runLocked(ctx context.Context, trigger models.Actor) (models.RunSummary, error) {
	log := s.log.With(slog.String("op", "scheduler.runLocked"))

	if s.deps.Locker != nil {
		token, ok, err := s.deps.Locker.TryLock(ctx, lockKey, s.cfg.LockTTL)
		switch {
		case err != nil:
			// Переходы идемпотентны, поэтому без Redis проход продолжается.
			log.Warn("distributed lock unavailable, continuing", sl.Err(err))
		case !ok:
			s.deps.Metrics.Runs.WithLabelValues("skipped").Inc()
			return models.RunSummary{}, models.ErrRunInProgress
		default:
			defer func() {
				if err := s.deps.Locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
					log.Warn("failed to release lock", sl.Err(err))
				}
			}()
		}
	}

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	started := time.Now()
	summary, err := s.run(ctx, trigger)
	s.deps.Metrics.RunDuration.Observe(time.Since(started).Seconds())
	for _, e := range summary.Errors {
		s.deps.Metrics.RunErrors.WithLabelValues(e.Stage).Inc()
	}
	if err != nil {
		s.deps.Metrics.Runs.WithLabelValues("failed").Inc()
		log.Error("daily pass failed", sl.Err(err))
		return summary, err
	}
	s.deps.Metrics.Runs.WithLabelValues("ok").Inc()
	s.deps.Metrics.Reminders.Add(float64(summary.RemindersSent))
	s.deps.Metrics.Deactivations.Add(float64(summary.DeactivatedCount))

	log.Info("daily pass finished",
		slog.Int("reminders_sent", summary.RemindersSent),
		slog.Int("deactivated", summary.DeactivatedCount),
		slog.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

func (s *SchedulerService) run(ctx context.Context, trigger models.Actor) (models.RunSummary, error) {
	now := s.deps.Clock.Now()
	summary := models.RunSummary{RunAt: now, Errors: []models.RunError{}}

	start := models.NewAuditRecord(trigger, models.ActionCronTriggered, "Daily billing pass started")
	start.Metadata = map[string]any{"manual": !trigger.IsSystem()}
	if err := s.deps.Audit.Record(ctx, start); err != nil {
		summary.Errors = append(summary.Errors, models.RunError{Stage: models.StageAudit, Message: err.Error()})
	}

	subs, err := s.deps.Source.ListSubscribersByStatus(ctx, models.StatusActive)
	if err != nil {
		summary.Errors = append(summary.Errors, models.RunError{Stage: models.StageSelect, Message: err.Error()})
		return summary, err
	}

	decisions, err := s.decide(ctx, now, subs)
	if err != nil {
		summary.Errors = append(summary.Errors, models.RunError{Stage: models.StageSelect, Message: err.Error()})
		return summary, err
	}

	reminders := notify.Batch{Kind: notify.KindReminder, RunAt: now, Items: []notify.Item{}}
	var candidates []decision
	for _, d := range decisions {
		if d.remind {
			reminders.Items = append(reminders.Items, s.item(d.sub, d.daysUntil))
		}
		if d.deactivate {
			candidates = append(candidates, d)
		}
	}

	if len(reminders.Items) > 0 {
		if s.dispatch(ctx, reminders, &summary) {
			summary.RemindersSent = len(reminders.Items)
		}
	}

	deactivations := notify.Batch{Kind: notify.KindDeactivation, RunAt: now, Items: []notify.Item{}}
	for _, d := range candidates {
		if err := ctx.Err(); err != nil {
			summary.Errors = append(summary.Errors, models.RunError{Stage: models.StageDeactivate, Message: err.Error()})
			return summary, err
		}
		updated, applied, err := s.deps.Deactivator.GraceExpire(ctx, d.sub.ID, now, s.cfg.GracePeriodDays)
		if err != nil {
			s.log.Error("grace deactivation failed",
				slog.Int64("subscriber_id", d.sub.ID), sl.Err(err))
			summary.Errors = append(summary.Errors, models.RunError{
				Stage:        models.StageDeactivate,
				SubscriberID: d.sub.ID,
				Message:      err.Error(),
			})
			continue
		}
		if !applied {
			continue
		}
		summary.DeactivatedCount++
		if updated == nil {
			updated = d.sub
		}
		deactivations.Items = append(deactivations.Items, s.item(updated, -d.daysUntil))
	}

	if len(deactivations.Items) > 0 {
		s.dispatch(ctx, deactivations, &summary)
	}
	return summary, nil
}

// decide считает решения параллельно. Фаза только читает данные.
func (s *SchedulerService) decide(ctx context.Context, now time.Time, subs []*models.Subscriber) ([]decision, error) {
	today := s.deps.Calendar.StartOfDay(now)
	out := make([]decision, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, sub := range subs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			days := s.deps.Calendar.DaysBetween(today, s.deps.Calendar.StartOfDay(sub.SubscriptionEnd))
			out[i] = decision{
				sub:        sub,
				daysUntil:  days,
				remind:     days == sub.ReminderDaysBefore,
				deactivate: -days > s.cfg.GracePeriodDays,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// dispatch отправляет пакет и пишет communication_sent на каждый канал.
// Возвращает true, если хотя бы один канал доставил пакет.
func (s *SchedulerService) dispatch(ctx context.Context, batch notify.Batch, summary *models.RunSummary) bool {
	delivered := false
	for _, res := range s.deps.Dispatcher.Broadcast(ctx, batch) {
		result := "ok"
		if res.Success {
			delivered = true
		} else {
			result = "failed"
			msg := "channel failed"
			if res.Err != nil {
				msg = res.Err.Error()
			}
			summary.Errors = append(summary.Errors, models.RunError{
				Stage:   models.StageDispatch,
				Channel: res.Channel,
				Message: msg,
			})
		}
		s.deps.Metrics.Dispatches.WithLabelValues(res.Channel, string(batch.Kind), result).Inc()

		rec := models.NewAuditRecord(models.SystemActor, models.ActionCommunicationSent,
			fmt.Sprintf("%s batch via %s", batch.Kind, res.Channel))
		rec.Metadata = map[string]any{
			"channel": res.Channel,
			"kind":    string(batch.Kind),
			"count":   len(batch.Items),
			"success": res.Success,
		}
		if err := s.deps.Audit.Record(context.WithoutCancel(ctx), rec); err != nil {
			summary.Errors = append(summary.Errors, models.RunError{
				Stage:   models.StageAudit,
				Channel: res.Channel,
				Message: err.Error(),
			})
		}
	}
	return delivered
}

func (s *SchedulerService) item(sub *models.Subscriber, days int) notify.Item {
	display := sub.SubscriptionEnd.Format(time.DateOnly)
	if d, err := s.deps.Calendar.ToDisplay(sub.SubscriptionEnd); err == nil {
		display = d.String()
	} else if !errors.Is(err, calendar.ErrInvalidDate) {
		s.log.Warn("failed to convert end date", slog.Int64("subscriber_id", sub.ID), sl.Err(err))
	}
	return notify.Item{
		Name:           sub.Name,
		Contact:        sub.Contact(),
		Days:           days,
		EndDate:        sub.SubscriptionEnd,
		EndDateDisplay: display,
	}
}
