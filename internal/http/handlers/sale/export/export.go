// Package export отдаёт журнал продаж CSV-файлом.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
)

// Service пишет журнал продаж в CSV.
type Service interface {
	ExportCSV(ctx context.Context, w io.Writer) error
}

// Handler отдаёт CSV-выгрузку.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		now:     time.Now,
	}
}

// FileName возвращает имя файла выгрузки для момента t.
func FileName(t time.Time) string {
	return fmt.Sprintf("sales_export_%s.csv", t.Format("20060102_150405"))
}

// ServeHTTP godoc
// @Summary Выгрузка продаж в CSV
// @Tags Sales
// @Produce  text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 500 {object} response.ErrorResponse
// @Router /sales/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sale.export"

	// Собираем файл целиком, чтобы при ошибке отдать 500, а не обрезанный CSV.
	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf); err != nil {
		h.log.Error("failed to export sales",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export sales"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, FileName(h.now())))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("failed to write export", slog.String("op", op), sl.Err(err))
	}
}
