package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types. "out" is written when a sale is created, "in" when a sale
// is rejected or stock is manually restocked.
const (
	MovementOut = "out"
	MovementIn  = "in"
)

// StockMovement is the append-only audit row recording one stock quantity
// change. It mirrors what the caller already validated and is never mutated
// after insert.
type StockMovement struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Type       string    `gorm:"type:varchar(10);not null"` // "in" | "out"
	Quantity   int       `gorm:"not null"`                  // always positive; Type carries direction
	StockBefore int      `gorm:"not null"`
	StockAfter  int      `gorm:"not null"`
	Reason     string
	UserID     uuid.UUID  `gorm:"type:uuid;not null"`
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // sale id when the movement belongs to a sale
	CreatedAt  time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
	User    *User    `gorm:"foreignKey:UserID"`
}
