// Package models содержит доменные структуры: проданные подписки, товары каталога
// и пользователей, а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import (
	"github.com/magabrotheeeer/sales-tracker/internal/lib/calendar"
)

// Sale представляет проданную подписку: товар, купленный клиентом на Duration
// календарных месяцев начиная с PurchaseDate.
// EndDate может быть nil: тогда дата окончания вычисляется из даты покупки и срока.
// Если EndDate задан, он считается авторитетным (например, ручное продление).
type Sale struct {
	ID           int            `json:"id"`
	ProductName  string         `json:"product_name"`
	Duration     int            `json:"duration"` // Срок в месяцах
	Customer     string         `json:"customer"`
	Email        *string        `json:"gmail"`
	PurchaseDate calendar.Date  `json:"purchase_date"`
	EndDate      *calendar.Date `json:"end_date"`
	Seller       *string        `json:"seller"`
	Note         *string        `json:"note"`
	Price        float64        `json:"price"`
	Profit       float64        `json:"profit"`
}

// AnnotatedSale подписка с вычисленной датой окончания и количеством оставшихся дней.
type AnnotatedSale struct {
	Sale
	EffectiveEndDate calendar.Date `json:"effective_end_date"`
	DaysRemaining    int           `json:"days_remaining"`
}

// SaleRequest используется для приёма данных продажи из JSON-запроса.
// Даты приходят строками и разбираются в сервисе, чтобы вернуть понятную ошибку по полю.
type SaleRequest struct {
	ProductName  string   `json:"product_name"`
	Duration     int      `json:"duration"`
	Customer     string   `json:"customer"`
	Email        string   `json:"gmail"`
	PurchaseDate string   `json:"purchase_date"`
	EndDate      string   `json:"end_date"`
	Seller       string   `json:"seller"`
	Note         string   `json:"note"`
	Price        *float64 `json:"price"`
	Profit       *float64 `json:"profit"`
}

// ExpiringSale строка представления «скоро истекает» с готовыми подписями.
type ExpiringSale struct {
	AnnotatedSale
	PurchaseDateLabel string `json:"purchase_date_label"`
	EndDateLabel      string `json:"end_date_label"`
	DaysLeftLabel     string `json:"days_left_label"`
}

// ExpiryNotice сообщение в очередь уведомлений о скором окончании подписки.
type ExpiryNotice struct {
	SaleID        int           `json:"sale_id"`
	ProductName   string        `json:"product_name"`
	Customer      string        `json:"customer"`
	Email         string        `json:"email"`
	EndDate       calendar.Date `json:"end_date"`
	DaysRemaining int           `json:"days_remaining"`
}
