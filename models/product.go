package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one price-break row for a marketplace SKU.
// A SKU may have several rows, one per quantity tier, so the
// (sku, qty) pair is unique rather than the SKU alone.
type Product struct {
	ID             uint            `gorm:"primaryKey"`
	SKU            string          `gorm:"column:sku;not null;uniqueIndex:idx_products_sku_qty"`
	MPID           string          `gorm:"column:mpid"`
	ProductName    string          `gorm:"not null"`
	ProductURL     string          `gorm:"column:product_url"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2)"`
	MinimumPrice   decimal.Decimal `gorm:"type:decimal(10,2)"`
	Qty            int             `gorm:"not null;uniqueIndex:idx_products_sku_qty"`
	UpdateInterval int             `gorm:"column:update_interval"`
	Inventory      int
	Active         int
	UpdatedAt      time.Time
}

func (p *Product) TableName() string {
	return "products"
}
