package calendar

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed bs_calendar.yaml
var defaultTable []byte

const (
	monthsInYear   = 12
	minMonthLength = 29
	maxMonthLength = 32
)

// Table хранит авторитетные длины месяцев календаря отображения.
type Table struct {
	anchor    time.Time // григорианская дата первого дня first_year, полночь UTC
	firstYear int
	months    [][monthsInYear]int
	// yearStart[i] смещение в днях от anchor до начала года firstYear+i.
	yearStart []int
}

type tableFile struct {
	Anchor    string        `yaml:"anchor"`
	FirstYear int           `yaml:"first_year"`
	Years     map[int][]int `yaml:"years"`
}

// DefaultTable возвращает встроенную таблицу Бикрам Самбат.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTable)
}

// LoadTable читает таблицу из YAML-файла.
func LoadTable(path string) (*Table, error) {
	const op = "calendar.LoadTable"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// ParseTable разбирает YAML и проверяет, что годы идут подряд
// и каждая длина месяца лежит в допустимом диапазоне.
func ParseTable(data []byte) (*Table, error) {
	const op = "calendar.ParseTable"

	var raw tableFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	anchor, err := time.Parse(time.DateOnly, raw.Anchor)
	if err != nil {
		return nil, fmt.Errorf("%s: anchor: %w", op, err)
	}
	if len(raw.Years) == 0 {
		return nil, fmt.Errorf("%s: table has no years", op)
	}

	years := make([]int, 0, len(raw.Years))
	for y := range raw.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	if years[0] != raw.FirstYear {
		return nil, fmt.Errorf("%s: first_year %d does not match first listed year %d", op, raw.FirstYear, years[0])
	}

	t := &Table{
		anchor:    anchor,
		firstYear: raw.FirstYear,
		months:    make([][monthsInYear]int, 0, len(years)),
		yearStart: make([]int, 0, len(years)),
	}
	offset := 0
	for i, y := range years {
		if y != raw.FirstYear+i {
			return nil, fmt.Errorf("%s: year %d missing", op, raw.FirstYear+i)
		}
		lengths := raw.Years[y]
		if len(lengths) != monthsInYear {
			return nil, fmt.Errorf("%s: year %d has %d months", op, y, len(lengths))
		}
		var row [monthsInYear]int
		for m, n := range lengths {
			if n < minMonthLength || n > maxMonthLength {
				return nil, fmt.Errorf("%s: year %d month %d has invalid length %d", op, y, m, n)
			}
			row[m] = n
		}
		t.months = append(t.months, row)
		t.yearStart = append(t.yearStart, offset)
		offset += yearLength(row)
	}
	return t, nil
}

// FirstYear возвращает первый год таблицы.
func (t *Table) FirstYear() int { return t.firstYear }

// LastYear возвращает последний год таблицы.
func (t *Table) LastYear() int { return t.firstYear + len(t.months) - 1 }

func (t *Table) hasYear(year int) bool {
	return year >= t.firstYear && year <= t.LastYear()
}

func (t *Table) totalDays() int {
	last := len(t.months) - 1
	return t.yearStart[last] + yearLength(t.months[last])
}

func yearLength(row [monthsInYear]int) int {
	n := 0
	for _, d := range row {
		n += d
	}
	return n
}
