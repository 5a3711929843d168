// Package calendar переводит даты между календарём хранения (григорианские
// моменты времени) и календарём отображения Бикрам Самбат, в котором
// пользователи выбирают оплачиваемые периоды.
//
// Длины месяцев берутся из таблицы, а не вычисляются приближённо.
// Месяцы нумеруются с нуля: 0 это Байсакх, 11 это Чайтра.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate возвращается для дат, которых нет в календаре отображения.
var ErrInvalidDate = errors.New("invalid calendar date")

// Date день календаря отображения. Month начинается с нуля.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// String форматирует дату как YYYY-MM-DD с месяцем, начинающимся с единицы.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month+1, d.Day)
}

// Adapter выполняет преобразования в заданной бизнес-таймзоне:
// граница суток определяется по loc, а результаты возвращаются в UTC.
type Adapter struct {
	table *Table
	loc   *time.Location
}

// New создаёт адаптер по таблице и таймзоне. Nil-таймзона означает UTC.
func New(table *Table, loc *time.Location) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	return &Adapter{table: table, loc: loc}
}

// NewDefault создаёт адаптер на встроенной таблице.
func NewDefault(loc *time.Location) (*Adapter, error) {
	t, err := DefaultTable()
	if err != nil {
		return nil, err
	}
	return New(t, loc), nil
}

// Location возвращает бизнес-таймзону адаптера.
func (a *Adapter) Location() *time.Location { return a.loc }

// Table возвращает таблицу, на которой построен адаптер.
func (a *Adapter) Table() *Table { return a.table }

// MonthLength возвращает число дней в месяце календаря отображения.
func (a *Adapter) MonthLength(year, month int) (int, error) {
	const op = "calendar.MonthLength"
	if !a.table.hasYear(year) || month < 0 || month >= monthsInYear {
		return 0, fmt.Errorf("%s: %w: year %d month %d", op, ErrInvalidDate, year, month)
	}
	return a.table.months[year-a.table.firstYear][month], nil
}

// ToDisplay переводит момент времени в день календаря отображения.
// Момент сначала приводится к бизнес-таймзоне и усекается до суток.
func (a *Adapter) ToDisplay(t time.Time) (Date, error) {
	const op = "calendar.ToDisplay"

	days := a.civilDaysSinceAnchor(t)
	if days < 0 || days >= a.table.totalDays() {
		return Date{}, fmt.Errorf("%s: %w: %s is outside of the supported range", op, ErrInvalidDate, t.Format(time.DateOnly))
	}

	yi := len(a.table.yearStart) - 1
	for yi > 0 && a.table.yearStart[yi] > days {
		yi--
	}
	rest := days - a.table.yearStart[yi]
	row := a.table.months[yi]
	month := 0
	for rest >= row[month] {
		rest -= row[month]
		month++
	}
	return Date{Year: a.table.firstYear + yi, Month: month, Day: rest + 1}, nil
}

// FromDisplay возвращает полночь указанного дня в бизнес-таймзоне как момент UTC.
// День вне длины месяца отклоняется, а не обрезается.
func (a *Adapter) FromDisplay(year, month, day int) (time.Time, error) {
	const op = "calendar.FromDisplay"

	length, err := a.MonthLength(year, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if day < 1 || day > length {
		return time.Time{}, fmt.Errorf("%s: %w: day %d, month %d of %d has %d days", op, ErrInvalidDate, day, month, year, length)
	}

	yi := year - a.table.firstYear
	days := a.table.yearStart[yi] + day - 1
	for m := 0; m < month; m++ {
		days += a.table.months[yi][m]
	}
	civil := a.table.anchor.AddDate(0, 0, days)
	return time.Date(civil.Year(), civil.Month(), civil.Day(), 0, 0, 0, 0, a.loc).UTC(), nil
}

// FromDate аналог FromDisplay для значения Date.
func (a *Adapter) FromDate(d Date) (time.Time, error) {
	return a.FromDisplay(d.Year, d.Month, d.Day)
}

// FirstOfNextMonth возвращает первый день месяца, следующего за (year, month).
// После последнего месяца года наступает месяц 0 следующего года.
func (a *Adapter) FirstOfNextMonth(year, month int) (time.Time, error) {
	year, month = NextMonth(year, month)
	return a.FromDisplay(year, month, 1)
}

// AddMonths сдвигает дату на n месяцев отображения. Если в целевом месяце
// меньше дней, день прижимается к его последнему дню.
func (a *Adapter) AddMonths(d Date, n int) (Date, error) {
	const op = "calendar.AddMonths"

	total := d.Year*monthsInYear + d.Month + n
	year, month := total/monthsInYear, total%monthsInYear
	length, err := a.MonthLength(year, month)
	if err != nil {
		return Date{}, fmt.Errorf("%s: %w", op, err)
	}
	return Date{Year: year, Month: month, Day: min(d.Day, length)}, nil
}

// StartOfDay усекает момент до начала суток в бизнес-таймзоне.
func (a *Adapter) StartOfDay(t time.Time) time.Time {
	lt := t.In(a.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, a.loc)
}

// DaysBetween возвращает знаковое число календарных дней от from до to.
func (a *Adapter) DaysBetween(from, to time.Time) int {
	return a.civilDaysSinceAnchor(to) - a.civilDaysSinceAnchor(from)
}

func (a *Adapter) civilDaysSinceAnchor(t time.Time) int {
	lt := t.In(a.loc)
	civil := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
	return int(civil.Sub(a.table.anchor).Hours() / 24)
}

// NextMonth возвращает месяц, следующий за (year, month).
func NextMonth(year, month int) (int, int) {
	if month == monthsInYear-1 {
		return year + 1, 0
	}
	return year, month + 1
}
