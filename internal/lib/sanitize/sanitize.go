// Package sanitize очищает свободный текст от разметки перед сохранением.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text удаляет HTML-теги и обрезает пробелы по краям.
// Сущности раскрываются обратно, чтобы "Tom & Jerry" не превращался в "Tom &amp; Jerry".
func Text(s string) string {
	cleaned := strict.Sanitize(strings.TrimSpace(s))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// Optional возвращает nil для пустой после очистки строки.
func Optional(s string) *string {
	cleaned := Text(s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
