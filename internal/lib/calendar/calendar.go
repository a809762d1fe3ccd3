// Package calendar содержит календарную дату без времени и часового пояса
// и арифметику календарных месяцев, по которой считаются сроки подписок.
//
// Даты хранятся как тройка год/месяц/день; в строку формата YYYY-MM-DD
// они превращаются только на границе системы (JSON, база данных, CSV).
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Layout формат даты на границе системы.
const Layout = "2006-01-02"

// ErrInvalidDate возвращается, если строка не является реальной календарной датой.
var ErrInvalidDate = errors.New("invalid date")

// Date представляет календарную дату. Нулевое значение считается отсутствующей датой.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New создаёт дату из компонентов без проверки.
func New(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// Parse разбирает строку строго в формате YYYY-MM-DD.
// Несуществующие даты (2024-02-30), неполные записи (2024-2-3) и годы вне 1..9999 отклоняются.
func Parse(s string) (Date, error) {
	const op = "calendar.Parse"
	t, err := time.Parse(Layout, s)
	if err != nil || t.Format(Layout) != s {
		return Date{}, fmt.Errorf("%s: %q: %w", op, s, ErrInvalidDate)
	}
	d := FromTime(t)
	if !d.Valid() {
		return Date{}, fmt.Errorf("%s: %q: %w", op, s, ErrInvalidDate)
	}
	return d, nil
}

// FromTime возвращает календарную дату момента t в его собственной локации.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today возвращает текущую дату по UTC для момента now.
func Today(now time.Time) Date {
	return FromTime(now.UTC())
}

// IsLeap сообщает, является ли год високосным по пролептическому григорианскому правилу.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn возвращает количество дней в месяце.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// Valid сообщает, существует ли такая дата в календаре.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Year > 9999 {
		return false
	}
	if d.Month < time.January || d.Month > time.December {
		return false
	}
	return d.Day >= 1 && d.Day <= DaysIn(d.Year, d.Month)
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time возвращает полночь даты по UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String возвращает дату в виде YYYY-MM-DD с нулями слева,
// поэтому лексический порядок строк совпадает с хронологическим.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// AddMonths прибавляет n календарных месяцев. Если в целевом месяце нет такого дня,
// берётся последний день месяца: 31 января + 1 месяц = 28 (29) февраля.
// n может быть отрицательным; n = 0 возвращает дату без изменений.
func AddMonths(d Date, n int) Date {
	if n == 0 {
		return d
	}
	target := int(d.Month) - 1 + n
	year := d.Year + floorDiv(target, 12)
	month := time.Month(target-floorDiv(target, 12)*12 + 1)

	day := d.Day
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

// DaysBetween возвращает число целых дней от from до to (отрицательное, если to раньше).
func DaysBetween(from, to Date) int {
	return int((to.Time().Unix() - from.Time().Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
