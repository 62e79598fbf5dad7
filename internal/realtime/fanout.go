package realtime

import (
	"context"
	"fmt"
	"time"

	"stocksync/internal/model"

	"github.com/rs/zerolog/log"
)

// Router maps committed lifecycle transitions to the room topology and hands
// the resulting envelopes to the Publisher. Delivery is fire-and-forget
// relative to the caller: a publish failure is logged and swallowed, it
// never changes the outcome of the already-committed transition.
type Router struct {
	pub Publisher
}

func NewRouter(pub Publisher) *Router { return &Router{pub: pub} }

func (r *Router) emit(ctx context.Context, room, event string, data interface{}) {
	if err := r.pub.Publish(ctx, Envelope{Room: room, Event: event, Data: data}); err != nil {
		log.Error().Err(err).Str("room", room).Str("event", event).
			Msg("realtime: publish failed, event dropped")
	}
}

// SaleCreated notifies admin_room of the new pending sale and acknowledges
// the owning employee. The sale must carry its Product and SoldBy preloads.
func (r *Router) SaleCreated(ctx context.Context, sale *model.Sale) {
	snap := snapshotOf(sale)

	r.emit(ctx, AdminRoom, EventNewSalePending, NewSalePending{
		Sale: snap,
		Notification: Notification{
			Title:    "New sale pending",
			Message:  fmt.Sprintf("%s submitted %s for approval", snap.EmployeeName, snap.SaleNumber),
			Priority: PriorityInfo,
			AutoHide: false,
		},
	})

	r.emit(ctx, EmployeeRoom(sale.SoldByID), EventSaleCreated, SaleCreatedAck{
		Sale: snap,
		Notification: Notification{
			Title:    "Sale created",
			Message:  fmt.Sprintf("%s was submitted and is awaiting approval", snap.SaleNumber),
			Priority: PrioritySuccess,
			AutoHide: true,
		},
	})
}

// SaleResolved notifies the owning employee and admin_room after an approve
// or reject commit. stockRestored and reason are non-nil only for rejections.
func (r *Router) SaleResolved(ctx context.Context, sale *model.Sale, stockRestored *int, reason *string) {
	approverID, approverName := "", ""
	if sale.ApprovedByID != nil {
		approverID = sale.ApprovedByID.String()
	}
	if sale.ApprovedBy != nil {
		approverName = sale.ApprovedBy.Name
	}
	approvedAt := ""
	if sale.ApprovedAt != nil {
		approvedAt = sale.ApprovedAt.UTC().Format(time.RFC3339)
	}

	notif := Notification{
		Title:    "Sale approved",
		Message:  fmt.Sprintf("%s was approved by %s", sale.SaleNumber(), approverName),
		Priority: PrioritySuccess,
		AutoHide: true,
	}
	adminEvent := EventSaleApproved
	if sale.Status == model.SaleStatusRejected {
		msg := fmt.Sprintf("%s was rejected by %s", sale.SaleNumber(), approverName)
		if reason != nil {
			msg = fmt.Sprintf("%s: %s", msg, *reason)
		}
		notif = Notification{
			Title:    "Sale rejected",
			Message:  msg,
			Priority: PriorityWarning,
			AutoHide: false,
		}
		adminEvent = EventSaleRejected
	}

	r.emit(ctx, EmployeeRoom(sale.SoldByID), EventSaleStatusUpdated, SaleStatusUpdated{
		SaleID:         sale.ID.String(),
		SaleNumber:     sale.SaleNumber(),
		Status:         sale.Status,
		ApprovedByID:   approverID,
		ApprovedByName: approverName,
		ApprovedAt:     approvedAt,
		StockRestored:  stockRestored,
		Reason:         reason,
		Notification:   notif,
	})

	productName, employeeName := "", ""
	if sale.Product != nil {
		productName = sale.Product.Name
	}
	if sale.SoldBy != nil {
		employeeName = sale.SoldBy.Name
	}
	r.emit(ctx, AdminRoom, adminEvent, SaleResolvedBroadcast{
		SaleID:         sale.ID.String(),
		SaleNumber:     sale.SaleNumber(),
		Status:         sale.Status,
		TotalPrice:     sale.TotalPrice,
		Profit:         sale.Profit,
		ProductName:    productName,
		EmployeeName:   employeeName,
		ApprovedByName: approverName,
		StockRestored:  stockRestored,
		Reason:         reason,
	})
}

// StatusUpdate emits only the per-employee status event, used by the bulk
// coordinator which rolls its admin-facing traffic into one summary.
func (r *Router) StatusUpdate(ctx context.Context, sale *model.Sale, notes string) {
	approverID, approverName := "", ""
	if sale.ApprovedByID != nil {
		approverID = sale.ApprovedByID.String()
	}
	if sale.ApprovedBy != nil {
		approverName = sale.ApprovedBy.Name
	}
	approvedAt := ""
	if sale.ApprovedAt != nil {
		approvedAt = sale.ApprovedAt.UTC().Format(time.RFC3339)
	}
	r.emit(ctx, EmployeeRoom(sale.SoldByID), EventSaleStatusUpdated, SaleStatusUpdated{
		SaleID:         sale.ID.String(),
		SaleNumber:     sale.SaleNumber(),
		Status:         sale.Status,
		ApprovedByID:   approverID,
		ApprovedByName: approverName,
		ApprovedAt:     approvedAt,
		Notification: Notification{
			Title:    "Sale approved",
			Message:  fmt.Sprintf("%s was approved by %s", sale.SaleNumber(), approverName),
			Priority: PrioritySuccess,
			AutoHide: true,
		},
	})
}

// PendingCount pushes the freshly recomputed pending aggregate to admin_room.
func (r *Router) PendingCount(ctx context.Context, count int64, action string, delta *int) {
	r.emit(ctx, AdminRoom, EventPendingCountUpdated, PendingCountUpdated{
		Count:  count,
		Action: action,
		Delta:  delta,
	})
}

// BulkCompleted emits the single batch summary to admin_room.
func (r *Router) BulkCompleted(ctx context.Context, approverName string, total, success, failure int) {
	r.emit(ctx, AdminRoom, EventBulkApprovalCompleted, BulkApprovalCompleted{
		TotalProcessed: total,
		SuccessCount:   success,
		FailureCount:   failure,
		ApprovedByName: approverName,
		Notification: Notification{
			Title:    "Bulk approval completed",
			Message:  fmt.Sprintf("%d approved, %d failed", success, failure),
			Priority: PrioritySuccess,
			AutoHide: true,
		},
	})
}

func snapshotOf(sale *model.Sale) SaleSnapshot {
	snap := SaleSnapshot{
		SaleID:       sale.ID.String(),
		SaleNumber:   sale.SaleNumber(),
		Status:       sale.Status,
		ProductID:    sale.ProductID.String(),
		QtySold:      sale.QtySold,
		UnitPrice:    sale.UnitPrice,
		TotalPrice:   sale.TotalPrice,
		Profit:       sale.Profit,
		EmployeeID:   sale.SoldByID.String(),
		CustomerName: sale.CustomerName,
		SalesDate:    sale.SalesDate.Format("2006-01-02"),
		CreatedAt:    sale.CreatedAt.UTC().Format(time.RFC3339),
	}
	if sale.Product != nil {
		snap.ProductName = sale.Product.Name
		snap.ProductSKU = sale.Product.SKU
	}
	if sale.SoldBy != nil {
		snap.EmployeeName = sale.SoldBy.Name
	}
	return snap
}
