package product

import "time"

// Product представляет товар каталога.
type Product struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	PriceDiscount *float64 `json:"price_discount,omitempty"`
	Image         string   `json:"image,omitempty"`
	Category      string   `json:"category,omitempty"`
	Material      string   `json:"material,omitempty"`
	Color         string   `json:"color,omitempty"`
	Style         string   `json:"style,omitempty"`
	Occasion      string   `json:"occasion,omitempty"`
	Stock         int      `json:"stock"`
	Active        bool     `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LowStockProduct is a row of the low_stock_products view.
type LowStockProduct struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Stock    int    `json:"stock"`
}
