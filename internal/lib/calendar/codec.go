package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MarshalJSON кодирует дату строкой YYYY-MM-DD, незаданную дату как null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON принимает только строку YYYY-MM-DD.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("calendar.UnmarshalJSON: %w", ErrInvalidDate)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value передаёт дату драйверу как time.Time в UTC (колонка DATE).
func (d Date) Value() (driver.Value, error) {
	return d.Time(), nil
}

// Scan читает колонку DATE. NULL для Date недопустим, используйте *Date через NullDate.
func (d *Date) Scan(src any) error {
	const op = "calendar.Scan"
	switch v := src.(type) {
	case time.Time:
		*d = FromTime(v)
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case nil:
		return fmt.Errorf("%s: NULL into Date", op)
	default:
		return fmt.Errorf("%s: unsupported type %T", op, src)
	}
}

// NullDate дата, которая может отсутствовать в базе.
type NullDate struct {
	Date  Date
	Valid bool
}

// Scan реализует sql.Scanner.
func (n *NullDate) Scan(src any) error {
	if src == nil {
		n.Date, n.Valid = Date{}, false
		return nil
	}
	if err := n.Date.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr возвращает nil для отсутствующей даты.
func (n NullDate) Ptr() *Date {
	if !n.Valid {
		return nil
	}
	d := n.Date
	return &d
}

// PtrValue превращает необязательную дату в аргумент запроса (nil → NULL).
func PtrValue(d *Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}
