// Package billing переводит выбор оплачиваемых периодов в сумму к оплате
// и новую дату окончания подписки.
//
// Resolver чистая функция от входных данных: несмежные периоды и периоды
// в прошлом относительно текущей даты окончания принимаются без проверки.
package billing

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/calendar"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

var (
	// ErrNoPeriods не выбран ни один период.
	ErrNoPeriods = errors.New("no billing periods selected")
	// ErrDuplicatePeriod один и тот же месяц выбран дважды.
	ErrDuplicatePeriod = errors.New("duplicate billing period")
	// ErrUnknownFrequency неизвестная периодичность.
	ErrUnknownFrequency = errors.New("unknown billing frequency")
	// ErrInvalidRate ставка не положительна.
	ErrInvalidRate = errors.New("rate must be positive")
)

// Calendar операции календаря отображения, нужные резолверу.
type Calendar interface {
	MonthLength(year, month int) (int, error)
	FromDisplay(year, month, day int) (time.Time, error)
	FirstOfNextMonth(year, month int) (time.Time, error)
	ToDisplay(t time.Time) (calendar.Date, error)
	AddMonths(d calendar.Date, n int) (calendar.Date, error)
}

// Input данные для расчёта оплаты.
type Input struct {
	Frequency  models.Frequency
	Rate       decimal.Decimal
	CurrentEnd time.Time
	Periods    []models.Period
}

// Result сумма к оплате и новая дата окончания.
type Result struct {
	AmountDue decimal.Decimal
	NewEnd    time.Time
	Anchor    models.Period   // Хронологически последний выбранный период
	Periods   []models.Period // Периоды для сохранения в платеже, по возрастанию
}

// Resolver рассчитывает оплату по календарю отображения.
type Resolver struct {
	cal Calendar
}

// New создаёт Resolver.
func New(cal Calendar) *Resolver {
	return &Resolver{cal: cal}
}

// Resolve считает сумму и новую дату окончания.
//
// Для помесячной оплаты сумма равна ставке, умноженной на число периодов,
// а подписка действует до первого дня месяца, следующего за последним выбранным.
// Для годовой сумма равна ставке, а окончанием становится первый день того же месяца
// через год после последнего выбранного периода.
func (r *Resolver) Resolve(in Input) (Result, error) {
	const op = "billing.Resolve"

	if !in.Rate.IsPositive() {
		return Result{}, fmt.Errorf("%s: %w", op, ErrInvalidRate)
	}
	periods, err := r.normalize(in.Periods)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	anchor := periods[len(periods)-1]

	switch in.Frequency {
	case models.FrequencyMonthly:
		end, err := r.cal.FirstOfNextMonth(anchor.Year, anchor.Month)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
		return Result{
			AmountDue: in.Rate.Mul(decimal.NewFromInt(int64(len(periods)))),
			NewEnd:    end,
			Anchor:    anchor,
			Periods:   periods,
		}, nil
	case models.FrequencyAnnual:
		end, err := r.cal.FromDisplay(anchor.Year+1, anchor.Month, 1)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
		return Result{
			AmountDue: in.Rate,
			NewEnd:    end,
			Anchor:    anchor,
			Periods:   []models.Period{anchor},
		}, nil
	default:
		return Result{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownFrequency, in.Frequency)
	}
}

// InitialEnd возвращает дату окончания для нового подписчика: тот же день
// календаря отображения через одну единицу периода. Если в целевом месяце
// меньше дней, берётся его последний день.
func (r *Resolver) InitialEnd(now time.Time, freq models.Frequency) (time.Time, error) {
	const op = "billing.InitialEnd"

	var months int
	switch freq {
	case models.FrequencyMonthly:
		months = 1
	case models.FrequencyAnnual:
		months = 12
	default:
		return time.Time{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownFrequency, freq)
	}

	today, err := r.cal.ToDisplay(now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	target, err := r.cal.AddMonths(today, months)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	end, err := r.cal.FromDisplay(target.Year, target.Month, target.Day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return end, nil
}

// normalize проверяет периоды и возвращает их копию по возрастанию.
func (r *Resolver) normalize(in []models.Period) ([]models.Period, error) {
	if len(in) == 0 {
		return nil, ErrNoPeriods
	}
	seen := make(map[models.Period]struct{}, len(in))
	out := make([]models.Period, 0, len(in))
	for _, p := range in {
		if _, err := r.cal.MonthLength(p.Year, p.Month); err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			return nil, fmt.Errorf("%w: %d/%d", ErrDuplicatePeriod, p.Month, p.Year)
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
