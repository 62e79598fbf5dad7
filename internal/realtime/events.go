// Package realtime translates committed sale lifecycle transitions into
// addressed notification payloads and delivers them best-effort to connected
// clients. It owns no persisted state; every event is a projection of a
// transition the store already committed.
package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Room topology. Rooms are logical multicast groups of connected clients.
const AdminRoom = "admin_room"

// EmployeeRoom is the single-owner room for sale lifecycle events addressed
// to the employee who created the sale.
func EmployeeRoom(id uuid.UUID) string { return fmt.Sprintf("employee_%s_room", id) }

// UserRoom is the single-recipient channel for user-specific system
// messages, independent of sales.
func UserRoom(id uuid.UUID) string { return fmt.Sprintf("user_%s_room", id) }

// Event names — fixed wire contracts. Consumers must tolerate additive
// fields but every field below is always present.
const (
	EventNewSalePending        = "new_sale_pending"
	EventSaleCreated           = "sale_created"
	EventSaleStatusUpdated     = "sale_status_updated"
	EventSaleApproved          = "sale_approved"
	EventSaleRejected          = "sale_rejected"
	EventPendingCountUpdated   = "pending_count_updated"
	EventBulkApprovalCompleted = "bulk_approval_completed"
)

// Priority controls UI treatment only; it is presentation metadata, not
// correctness metadata.
type Priority string

const (
	PriorityInfo    Priority = "info"
	PrioritySuccess Priority = "success"
	PriorityWarning Priority = "warning"
)

// Notification is the structured block intended for direct UI rendering.
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
	AutoHide bool     `json:"auto_hide"`
}

// Envelope is one addressed event. The Envelope is what travels through the
// outbox queue and the per-room pub/sub channel.
type Envelope struct {
	Room  string      `json:"room"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Publisher is the injected delivery capability. The lifecycle engine
// depends on this interface, never on a transport singleton, so it can be
// tested without any transport at all.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// ─── Event payloads ──────────────────────────────────────────────────────────

// SaleSnapshot is the full sale+product+employee projection carried by
// creation-time events.
type SaleSnapshot struct {
	SaleID       string          `json:"sale_id"`
	SaleNumber   string          `json:"sale_number"`
	Status       string          `json:"status"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	QtySold      int             `json:"qty_sold"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Profit       decimal.Decimal `json:"profit"`
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	CustomerName *string         `json:"customer_name,omitempty"`
	SalesDate    string          `json:"sales_date"`
	CreatedAt    string          `json:"created_at"`
}

// NewSalePending goes to admin_room when a sale is created.
type NewSalePending struct {
	Sale         SaleSnapshot `json:"sale"`
	Notification Notification `json:"notification"`
}

// SaleCreatedAck goes to the owning employee's room as creation acknowledgment.
type SaleCreatedAck struct {
	Sale         SaleSnapshot `json:"sale"`
	Notification Notification `json:"notification"`
}

// SaleStatusUpdated goes to the owning employee's room on approve/reject.
// StockRestored and Reason are set only for rejections.
type SaleStatusUpdated struct {
	SaleID         string       `json:"sale_id"`
	SaleNumber     string       `json:"sale_number"`
	Status         string       `json:"status"`
	ApprovedByID   string       `json:"approved_by_id"`
	ApprovedByName string       `json:"approved_by_name"`
	ApprovedAt     string       `json:"approved_at"`
	StockRestored  *int         `json:"stock_restored,omitempty"`
	Reason         *string      `json:"reason,omitempty"`
	Notification   Notification `json:"notification"`
}

// SaleResolvedBroadcast is the compact admin_room event for list
// reconciliation after an approve or reject.
type SaleResolvedBroadcast struct {
	SaleID         string          `json:"sale_id"`
	SaleNumber     string          `json:"sale_number"`
	Status         string          `json:"status"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Profit         decimal.Decimal `json:"profit"`
	ProductName    string          `json:"product_name"`
	EmployeeName   string          `json:"employee_name"`
	ApprovedByName string          `json:"approved_by_name"`
	StockRestored  *int            `json:"stock_restored,omitempty"`
	Reason         *string         `json:"reason,omitempty"`
}

// PendingCountUpdated pushes the recomputed pending aggregate to admin_room,
// tagged with the action that caused the change. Delta is the signed change
// where meaningful; receivers treat Count as last-write-wins.
type PendingCountUpdated struct {
	Count  int64  `json:"count"`
	Action string `json:"action"`
	Delta  *int   `json:"delta,omitempty"`
}

// BulkApprovalCompleted is the single summary event emitted to admin_room
// after a whole bulk batch finishes.
type BulkApprovalCompleted struct {
	TotalProcessed int          `json:"total_processed"`
	SuccessCount   int          `json:"success_count"`
	FailureCount   int          `json:"failure_count"`
	ApprovedByName string       `json:"approved_by_name"`
	Notification   Notification `json:"notification"`
}
