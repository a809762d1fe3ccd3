// Package validation собирает ошибки проверки входных данных по полям.
package validation

import (
	"sort"
	"strings"

	"github.com/go-playground/validator"
)

// Общие ограничения длины полей.
const (
	MaxVarchar = 255
	MaxText    = 65535
	MaxURL     = 2083
)

var validate = validator.New()

// Error ошибки проверки, сгруппированные по имени JSON-поля.
type Error struct {
	Fields map[string]string
}

// New возвращает пустой набор ошибок.
func New() *Error {
	return &Error{Fields: make(map[string]string)}
}

// Error перечисляет поля с ошибками в алфавитном порядке.
func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// Add запоминает первую ошибку поля; последующие для того же поля игнорируются.
func (e *Error) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Has сообщает, есть ли ошибка у поля.
func (e *Error) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Err возвращает nil, если ошибок нет.
func (e *Error) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsEmail проверяет адрес правилом email валидатора.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// TooLong сообщает, длиннее ли строка max символов.
func TooLong(s string, max int) bool {
	return len([]rune(s)) > max
}
