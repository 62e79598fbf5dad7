package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSaleRequest struct {
	ProductID     string  `json:"product_id"     validate:"required,uuid"`
	QtySold       int     `json:"qty_sold"       validate:"required,min=1"`
	PaymentMethod string  `json:"payment_method" validate:"omitempty,oneof=cash card transfer mobile"`
	CustomerName  *string `json:"customer_name"  validate:"omitempty,max=120"`
	CustomerPhone *string `json:"customer_phone" validate:"omitempty,max=30"`
	EmployeeNotes *string `json:"employee_notes" validate:"omitempty,max=500"`
	// SalesDate is the business date (YYYY-MM-DD); empty = today.
	SalesDate string `json:"sales_date" validate:"omitempty,datetime=2006-01-02"`
}

type ApproveSaleRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=500"`
}

type RejectSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

type BulkApproveRequest struct {
	SaleIDs []string `json:"sale_ids" validate:"required,min=1,dive,uuid"`
	Notes   string   `json:"notes"    validate:"omitempty,max=500"`
}

// ─── Filter ─────────────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Status     string `form:"status"` // pending | approved | rejected | all
	Date       string `form:"date"`   // YYYY-MM-DD; empty = no date filter
	EmployeeID string `form:"employee_id"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// SaleResponse is the fully materialized sale returned by every lifecycle
// operation, including its resolved product and employee references.
type SaleResponse struct {
	ID         string `json:"id"`
	SaleNumber string `json:"sale_number"`

	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`

	QtySold    int             `json:"qty_sold"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Profit     decimal.Decimal `json:"profit"`

	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	CustomerName  *string `json:"customer_name,omitempty"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	EmployeeNotes *string `json:"employee_notes,omitempty"`

	SoldByID       string  `json:"sold_by_id"`
	SoldByName     string  `json:"sold_by_name"`
	ApprovedByID   *string `json:"approved_by_id,omitempty"`
	ApprovedByName *string `json:"approved_by_name,omitempty"`

	SalesDate  string  `json:"sales_date"`
	ApprovedAt *string `json:"approved_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type PendingCountResponse struct {
	Count int64 `json:"count"`
}

// ─── Bulk approval ───────────────────────────────────────────────────────────

// BulkApproveResult is the per-sale outcome inside a bulk approval. Exactly
// one of Data / Error is set.
type BulkApproveResult struct {
	SaleID  string        `json:"sale_id"`
	Success bool          `json:"success"`
	Data    *SaleResponse `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type BulkApprovalResponse struct {
	TotalProcessed int                 `json:"total_processed"`
	SuccessCount   int                 `json:"success_count"`
	FailureCount   int                 `json:"failure_count"`
	Results        []BulkApproveResult `json:"results"`
}
