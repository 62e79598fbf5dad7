package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"stocksync/internal/domain"
	"stocksync/internal/dto"
	"stocksync/internal/model"
	"stocksync/internal/realtime"
	"stocksync/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleService owns the sale state machine and the transactional side
// effects of each transition. Every transition runs in a single store
// transaction; realtime fan-out happens only after commit and never alters
// the caller-visible outcome.
type SaleService interface {
	Create(ctx context.Context, actorID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	Approve(ctx context.Context, adminID uuid.UUID, saleID uuid.UUID, notes string) (*dto.SaleResponse, error)
	Reject(ctx context.Context, adminID uuid.UUID, saleID uuid.UUID, reason string) (*dto.SaleResponse, error)
	BulkApprove(ctx context.Context, adminID uuid.UUID, req dto.BulkApproveRequest) (*dto.BulkApprovalResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	PendingCount(ctx context.Context, employeeID *uuid.UUID) (int64, error)
}

type saleService struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	users     repository.UserRepository
	fanout    *realtime.Router
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	users repository.UserRepository,
	fanout *realtime.Router,
) SaleService {
	return &saleService{
		sales:     sales,
		products:  products,
		movements: movements,
		users:     users,
		fanout:    fanout,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Create ────────────────────────────────────────────────────────────────────
// One atomic transaction: draw the sale number, snapshot product economics,
// insert the pending sale, decrement stock, and append the "out" movement.
// Stock must never go negative, so the product row is locked before the
// check; a failed precondition leaves no mutation behind.

func (s *saleService) Create(ctx context.Context, actorID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	// Enforced here, not only in HTTP binding: a non-positive quantity
	// would inflate stock and record negative economics.
	if req.QtySold < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}

	salesDate := time.Now().UTC()
	if req.SalesDate != "" {
		if d, err := time.Parse("2006-01-02", req.SalesDate); err == nil {
			salesDate = d
		}
	}
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	var sale model.Sale
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		product, err := s.products.FindByIDForUpdate(tx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrProductNotFound
			}
			return err
		}
		if !product.Active {
			return domain.ErrProductNotFound
		}
		if product.QtyInStock < req.QtySold {
			return &domain.InsufficientStockError{
				ProductName: product.Name,
				Available:   product.QtyInStock,
				Requested:   req.QtySold,
			}
		}

		number, err := s.sales.NextNumber(ctx, tx)
		if err != nil {
			return err
		}

		qty := decimal.NewFromInt(int64(req.QtySold))
		totalPrice := product.Price.Mul(qty)
		totalCost := product.CostPrice.Mul(qty)

		sale = model.Sale{
			Number:        number,
			ProductID:     productID,
			SoldByID:      actorID,
			QtySold:       req.QtySold,
			UnitPrice:     product.Price,
			UnitCost:      product.CostPrice,
			TotalPrice:    totalPrice,
			TotalCost:     totalCost,
			Profit:        totalPrice.Sub(totalCost),
			Status:        model.SaleStatusPending,
			PaymentMethod: paymentMethod,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			EmployeeNotes: req.EmployeeNotes,
			SalesDate:     salesDate,
		}
		if err := s.sales.Create(ctx, tx, &sale); err != nil {
			return err
		}

		if err := s.products.AdjustStockTx(tx, productID, -req.QtySold); err != nil {
			return err
		}

		return s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   productID,
			Type:        model.MovementOut,
			Quantity:    req.QtySold,
			StockBefore: product.QtyInStock,
			StockAfter:  product.QtyInStock - req.QtySold,
			Reason:      "Sale " + sale.SaleNumber(),
			UserID:      actorID,
			ReferenceID: &sale.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	full := s.materialize(ctx, &sale)
	s.fanout.SaleCreated(ctx, full)
	s.pushPendingCount(ctx, "sale_created", 1)
	return saleToResponse(full), nil
}

// ── Approve ───────────────────────────────────────────────────────────────────

func (s *saleService) Approve(ctx context.Context, adminID uuid.UUID, saleID uuid.UUID, notes string) (*dto.SaleResponse, error) {
	sale, err := s.approveTx(ctx, adminID, saleID, notes)
	if err != nil {
		return nil, err
	}

	full := s.materialize(ctx, sale)
	s.fanout.SaleResolved(ctx, full, nil, nil)
	s.pushPendingCount(ctx, "sale_approved", -1)
	return saleToResponse(full), nil
}

// approveTx performs the approval transaction without emitting any events.
// The bulk coordinator uses it directly and handles its own fan-out.
//
// The locked read and the status write share one transaction: of two
// concurrent resolutions, exactly one commits and the other observes the
// terminal status, never a stale pending read.
func (s *saleService) approveTx(ctx context.Context, adminID uuid.UUID, saleID uuid.UUID, notes string) (*model.Sale, error) {
	var sale *model.Sale
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindByIDForUpdate(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSaleNotFound
			}
			return err
		}
		if sale.IsResolved() {
			return &domain.InvalidTransitionError{SaleNumber: sale.SaleNumber(), Current: sale.Status}
		}

		now := time.Now().UTC()
		sale.Status = model.SaleStatusApproved
		sale.ApprovedByID = &adminID
		sale.ApprovedAt = &now
		if notes != "" {
			sale.Notes = &notes
		}
		if err := s.sales.UpdateTx(tx, sale); err != nil {
			return err
		}

		// Stock moved at creation time; approval only folds the sale into
		// the product's running aggregates.
		return s.products.ApplyApprovalTx(tx, sale.ProductID, sale.TotalPrice, sale.Profit, now)
	})
	if txErr != nil {
		return nil, txErr
	}
	return sale, nil
}

// ── Reject ────────────────────────────────────────────────────────────────────

func (s *saleService) Reject(ctx context.Context, adminID uuid.UUID, saleID uuid.UUID, reason string) (*dto.SaleResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}

	var sale *model.Sale
	var restored int
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindByIDForUpdate(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSaleNotFound
			}
			return err
		}
		if sale.IsResolved() {
			return &domain.InvalidTransitionError{SaleNumber: sale.SaleNumber(), Current: sale.Status}
		}

		admin, err := s.users.FindByID(ctx, adminID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		sale.Status = model.SaleStatusRejected
		sale.ApprovedByID = &adminID
		sale.ApprovedAt = &now
		sale.Notes = &reason
		if err := s.sales.UpdateTx(tx, sale); err != nil {
			return err
		}

		// Restore exactly the quantity decremented at creation.
		product, err := s.products.FindByIDForUpdate(tx, sale.ProductID)
		if err != nil {
			return err
		}
		if err := s.products.AdjustStockTx(tx, sale.ProductID, sale.QtySold); err != nil {
			return err
		}
		restored = sale.QtySold

		return s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   sale.ProductID,
			Type:        model.MovementIn,
			Quantity:    sale.QtySold,
			StockBefore: product.QtyInStock,
			StockAfter:  product.QtyInStock + sale.QtySold,
			Reason:      "Rejected " + sale.SaleNumber() + " by " + admin.Name + ": " + reason,
			UserID:      adminID,
			ReferenceID: &sale.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	full := s.materialize(ctx, sale)
	s.fanout.SaleResolved(ctx, full, &restored, &reason)
	s.pushPendingCount(ctx, "sale_rejected", -1)
	return saleToResponse(full), nil
}

// ── Bulk approval ─────────────────────────────────────────────────────────────
// Sequential, one independent transaction per sale ID. A failure on one ID
// is recorded and processing continues; there is no cross-sale atomicity.
// Per-item status events go to each owning employee; admin_room gets exactly
// one summary and one pending-count push after the whole batch.

func (s *saleService) BulkApprove(ctx context.Context, adminID uuid.UUID, req dto.BulkApproveRequest) (*dto.BulkApprovalResponse, error) {
	if len(req.SaleIDs) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	resp := &dto.BulkApprovalResponse{
		Results: make([]dto.BulkApproveResult, 0, len(req.SaleIDs)),
	}

	for _, rawID := range req.SaleIDs {
		saleID, err := uuid.Parse(rawID)
		if err != nil {
			resp.FailureCount++
			resp.Results = append(resp.Results, dto.BulkApproveResult{
				SaleID: rawID, Success: false, Error: "invalid sale id",
			})
			continue
		}

		sale, err := s.approveTx(ctx, adminID, saleID, req.Notes)
		if err != nil {
			resp.FailureCount++
			resp.Results = append(resp.Results, dto.BulkApproveResult{
				SaleID: rawID, Success: false, Error: err.Error(),
			})
			continue
		}

		full := s.materialize(ctx, sale)
		s.fanout.StatusUpdate(ctx, full, req.Notes)
		resp.SuccessCount++
		resp.Results = append(resp.Results, dto.BulkApproveResult{
			SaleID: rawID, Success: true, Data: saleToResponse(full),
		})
	}

	resp.TotalProcessed = len(req.SaleIDs)

	approverName := ""
	if admin, err := s.users.FindByID(ctx, adminID); err == nil {
		approverName = admin.Name
	}
	s.fanout.BulkCompleted(ctx, approverName, resp.TotalProcessed, resp.SuccessCount, resp.FailureCount)
	s.pushPendingCount(ctx, "bulk_approval", -resp.SuccessCount)

	return resp, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *saleService) PendingCount(ctx context.Context, employeeID *uuid.UUID) (int64, error) {
	return s.sales.CountPending(ctx, employeeID)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// materialize reloads the sale with its product/employee references for
// responses and events. If the reload fails the bare sale is used; the
// transaction already committed and must not be reported as failed.
func (s *saleService) materialize(ctx context.Context, sale *model.Sale) *model.Sale {
	full, err := s.sales.FindByID(ctx, sale.ID)
	if err != nil {
		log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("sale reload after commit failed")
		return sale
	}
	return full
}

// pushPendingCount recomputes the pending aggregate by a fresh query and
// pushes it to admin_room. Recomputed, never incremented, so interleaved
// pushes each reflect a real committed state.
func (s *saleService) pushPendingCount(ctx context.Context, action string, delta int) {
	count, err := s.sales.CountPending(ctx, nil)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("pending count recompute failed")
		return
	}
	s.fanout.PendingCount(ctx, count, action, &delta)
}

func saleToResponse(sale *model.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:            sale.ID.String(),
		SaleNumber:    sale.SaleNumber(),
		ProductID:     sale.ProductID.String(),
		QtySold:       sale.QtySold,
		UnitPrice:     sale.UnitPrice,
		UnitCost:      sale.UnitCost,
		TotalPrice:    sale.TotalPrice,
		TotalCost:     sale.TotalCost,
		Profit:        sale.Profit,
		Status:        sale.Status,
		PaymentMethod: sale.PaymentMethod,
		CustomerName:  sale.CustomerName,
		CustomerPhone: sale.CustomerPhone,
		Notes:         sale.Notes,
		EmployeeNotes: sale.EmployeeNotes,
		SoldByID:      sale.SoldByID.String(),
		SalesDate:     sale.SalesDate.Format("2006-01-02"),
		CreatedAt:     sale.CreatedAt.UTC().Format(time.RFC3339),
	}
	if sale.Product != nil {
		resp.ProductName = sale.Product.Name
		resp.ProductSKU = sale.Product.SKU
	}
	if sale.SoldBy != nil {
		resp.SoldByName = sale.SoldBy.Name
	}
	if sale.ApprovedByID != nil {
		id := sale.ApprovedByID.String()
		resp.ApprovedByID = &id
	}
	if sale.ApprovedBy != nil {
		name := sale.ApprovedBy.Name
		resp.ApprovedByName = &name
	}
	if sale.ApprovedAt != nil {
		at := sale.ApprovedAt.UTC().Format(time.RFC3339)
		resp.ApprovedAt = &at
	}
	return resp
}
