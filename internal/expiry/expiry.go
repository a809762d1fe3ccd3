// Package expiry вычисляет сроки окончания подписок и выбирает те, что скоро истекают.
//
// Это единственное место, где определено правило вычисления даты окончания:
// и запись продажи, и представления «скоро истекает», и планировщик уведомлений
// используют ResolveEndDate, а не пересчитывают срок сами.
package expiry

import (
	"cmp"
	"errors"
	"slices"

	"github.com/magabrotheeeer/sales-tracker/internal/lib/calendar"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// DefaultWindowDays окно «скоро истекает» по умолчанию: сегодня и ещё три дня.
const DefaultWindowDays = 4

// ErrInsufficientData возвращается, если по записи нельзя определить дату окончания.
var ErrInsufficientData = errors.New("insufficient data to resolve end date")

// ResolveEndDate возвращает действующую дату окончания подписки.
//
// Сохранённый EndDate, если он задан и корректен, возвращается как есть, даже если
// расходится с вычисленным значением. Иначе дата считается как PurchaseDate + Duration
// календарных месяцев.
func ResolveEndDate(sale models.Sale) (calendar.Date, error) {
	if sale.EndDate != nil && sale.EndDate.Valid() {
		return *sale.EndDate, nil
	}
	if sale.PurchaseDate.Valid() && sale.Duration >= 1 {
		return calendar.AddMonths(sale.PurchaseDate, sale.Duration), nil
	}
	return calendar.Date{}, ErrInsufficientData
}

// Selection результат отбора подписок, истекающих в ближайшие дни.
type Selection struct {
	Items    []models.AnnotatedSale
	Excluded int // Записи, для которых не удалось определить дату окончания
}

// SelectExpiringSoon отбирает подписки, у которых до окончания осталось
// от 0 до windowDays-1 дней включительно, считая от today.
//
// Записи без вычислимой даты окончания пропускаются и учитываются в Excluded.
// Результат отсортирован по оставшимся дням, затем по дате окончания; сортировка
// устойчивая, поэтому при равных ключах сохраняется исходный порядок.
func SelectExpiringSoon(sales []models.Sale, today calendar.Date, windowDays int) Selection {
	var sel Selection
	for _, sale := range sales {
		end, err := ResolveEndDate(sale)
		if err != nil {
			sel.Excluded++
			continue
		}
		days := calendar.DaysBetween(today, end)
		if days < 0 || days >= windowDays {
			continue
		}
		sel.Items = append(sel.Items, models.AnnotatedSale{
			Sale:             sale,
			EffectiveEndDate: end,
			DaysRemaining:    days,
		})
	}

	slices.SortStableFunc(sel.Items, func(a, b models.AnnotatedSale) int {
		return cmp.Or(
			cmp.Compare(a.DaysRemaining, b.DaysRemaining),
			cmp.Compare(a.EffectiveEndDate.String(), b.EffectiveEndDate.String()),
		)
	})
	return sel
}
