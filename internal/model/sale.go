package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale status values. A sale starts pending and resolves to exactly one of
// approved or rejected; both resolved states are terminal.
const (
	SaleStatusPending  = "pending"
	SaleStatusApproved = "approved"
	SaleStatusRejected = "rejected"
)

// Sale is one unit of work in the approval lifecycle. All economic fields
// are fixed at creation and never recomputed; after creation only Status,
// ApprovedByID, ApprovedAt and Notes change.
type Sale struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Number comes from the sales_number_seq Postgres sequence. The visible
	// "SALE-NNNNNN" format is derived from it, never from a row count.
	Number int `gorm:"uniqueIndex;not null"`

	ProductID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	SoldByID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ApprovedByID *uuid.UUID `gorm:"type:uuid"`

	QtySold    int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Profit     decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Status        string `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod string `gorm:"not null;default:'cash'"`

	CustomerName  *string
	CustomerPhone *string
	// Notes holds the rejection reason or an admin note set on resolution.
	Notes         *string
	EmployeeNotes *string

	// SalesDate is the business date of the sale, set at creation.
	SalesDate  time.Time `gorm:"not null"`
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Product    *Product `gorm:"foreignKey:ProductID"`
	SoldBy     *User    `gorm:"foreignKey:SoldByID"`
	ApprovedBy *User    `gorm:"foreignKey:ApprovedByID"`
}

// SaleNumber renders the human-readable sequential number.
func (s *Sale) SaleNumber() string {
	return fmt.Sprintf("SALE-%06d", s.Number)
}

// IsResolved reports whether the sale has reached a terminal status.
func (s *Sale) IsResolved() bool {
	return s.Status != SaleStatusPending
}
