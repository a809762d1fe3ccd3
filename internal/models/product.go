package models

// Product позиция каталога: продукт с фиксированным сроком подписки,
// закупочной (WCPrice) и розничной ценой.
type Product struct {
	ID          int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Duration    int     `json:"duration"`
	Supplier    *string `json:"supplier"`
	WCPrice     float64 `json:"wc_price"`
	RetailPrice float64 `json:"retail_price"`
	Notes       *string `json:"notes"`
	Link        *string `json:"link"`
}

// ProductOption сокращённое представление товара для формы продажи.
type ProductOption struct {
	ID          int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Duration    int     `json:"duration"`
	WCPrice     float64 `json:"wc_price"`
	RetailPrice float64 `json:"retail_price"`
}

// ProductRequest используется для приёма данных товара из JSON-запроса.
type ProductRequest struct {
	ProductName string   `json:"product_name"`
	Duration    int      `json:"duration"`
	Supplier    string   `json:"supplier"`
	WCPrice     *float64 `json:"wc_price"`
	RetailPrice *float64 `json:"retail_price"`
	Notes       string   `json:"notes"`
	Link        string   `json:"link"`
}
