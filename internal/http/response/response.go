// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (при неуспехе).
// Поле Errors: ошибки по полям запроса (при неуспешной валидации).
// Поле Data: данные ответа (при успехе).
type Response struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
	Data   any               `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// FieldErrors возвращает ответ с ошибками, сгруппированными по полям.
func FieldErrors(fields map[string]string) Response {
	return Response{
		Status: StatusError,
		Error:  "validation failed",
		Errors: fields,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидатора.
// Каждое нарушение описывается человеко‑читаемым текстом, сообщения объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min", "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is out of range", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
