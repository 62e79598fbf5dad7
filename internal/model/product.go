package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the shared catalog entry sales are recorded against.
// QtyInStock is the authoritative stock count: it is decremented when a sale
// is created (before approval) and restored when the sale is rejected.
// Price and CostPrice are snapshotted into each sale at creation time, so
// later price changes never affect existing sales.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU         string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	Category    string          `gorm:"not null"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	QtyInStock  int             `gorm:"not null;default:0"`
	// MinStockLevel is the threshold for low/critical stock classification.
	MinStockLevel int `gorm:"not null;default:5"`

	// Running aggregates, incremented only when a sale is approved.
	TotalSales   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TotalProfit  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	LastSaleDate *time.Time

	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockStatus classifies the product against its minimum stock level.
func (p *Product) StockStatus() string {
	switch {
	case p.QtyInStock == 0:
		return "critical"
	case p.QtyInStock <= p.MinStockLevel:
		return "low"
	default:
		return "ok"
	}
}
