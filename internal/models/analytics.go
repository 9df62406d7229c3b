package models

import "time"

// SalesFilter описывает интервал и лимиты для аналитики продаж
type SalesFilter struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	TopLimit int       `json:"top_limit"`
}

// TopProduct представляет товар из топа продаж
type TopProduct struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

// SalesKPIs представляет агрегированные показатели магазина
type SalesKPIs struct {
	From         time.Time    `json:"from"`
	To           time.Time    `json:"to"`
	Revenue      int64        `json:"revenue"`
	OrdersCount  int          `json:"orders_count"`
	AverageCheck float64      `json:"average_check"`
	TopProducts  []TopProduct `json:"top_products"`
	GeneratedAt  time.Time    `json:"generated_at"`
}
