package expiry

import (
	"strconv"

	"github.com/magabrotheeeer/sales-tracker/internal/lib/calendar"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// DisplayLayout формат даты для отображения: 05 Jun 2025.
const DisplayLayout = "02 Jan 2006"

// Placeholder выводится вместо отсутствующего значения.
const Placeholder = "-"

// FormatDaysRemaining возвращает подпись для количества оставшихся дней.
// Любое неположительное значение отображается как "Today".
func FormatDaysRemaining(n int) string {
	switch {
	case n <= 0:
		return "Today"
	case n == 1:
		return "1 day"
	default:
		return strconv.Itoa(n) + " days"
	}
}

// FormatDate форматирует дату для отображения; nil и некорректные даты дают Placeholder.
func FormatDate(d *calendar.Date) string {
	if d == nil || !d.Valid() {
		return Placeholder
	}
	return d.Time().Format(DisplayLayout)
}

// Present добавляет к отобранным подпискам подписи для отображения.
func Present(items []models.AnnotatedSale) []models.ExpiringSale {
	out := make([]models.ExpiringSale, 0, len(items))
	for _, item := range items {
		purchase := item.PurchaseDate
		end := item.EffectiveEndDate
		out = append(out, models.ExpiringSale{
			AnnotatedSale:     item,
			PurchaseDateLabel: FormatDate(&purchase),
			EndDateLabel:      FormatDate(&end),
			DaysLeftLabel:     FormatDaysRemaining(item.DaysRemaining),
		})
	}
	return out
}
