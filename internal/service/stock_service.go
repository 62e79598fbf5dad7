package service

import (
	"context"
	"errors"
	"time"

	"stocksync/internal/domain"
	"stocksync/internal/dto"
	"stocksync/internal/model"
	"stocksync/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockService covers stock operations outside the sale lifecycle: manual
// adjustments, the movement audit trail, and low-stock alerts. Every stock
// change is paired with exactly one movement row in the same transaction.
type StockService interface {
	Adjust(ctx context.Context, actorID uuid.UUID, productID uuid.UUID, req dto.AdjustStockRequest) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	Alerts(ctx context.Context) ([]dto.StockAlertResponse, error)
}

type stockService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

func NewStockService(products repository.ProductRepository, movements repository.StockMovementRepository) StockService {
	return &stockService{products: products, movements: movements}
}

func (s *stockService) Adjust(ctx context.Context, actorID uuid.UUID, productID uuid.UUID, req dto.AdjustStockRequest) (*dto.MovementResponse, error) {
	var movement model.StockMovement
	txErr := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
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
		if req.Delta < 0 && product.QtyInStock+req.Delta < 0 {
			return &domain.InsufficientStockError{
				ProductName: product.Name,
				Available:   product.QtyInStock,
				Requested:   -req.Delta,
			}
		}

		if err := s.products.AdjustStockTx(tx, productID, req.Delta); err != nil {
			return err
		}

		movType := model.MovementIn
		qty := req.Delta
		if req.Delta < 0 {
			movType = model.MovementOut
			qty = -req.Delta
		}
		movement = model.StockMovement{
			ProductID:   productID,
			Type:        movType,
			Quantity:    qty,
			StockBefore: product.QtyInStock,
			StockAfter:  product.QtyInStock + req.Delta,
			Reason:      req.Reason,
			UserID:      actorID,
		}
		return s.movements.CreateTx(tx, &movement)
	})
	if txErr != nil {
		return nil, txErr
	}
	return movementToResponse(&movement), nil
}

func (s *stockService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, *movementToResponse(&movements[i]))
	}
	return &dto.MovementListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *stockService) Alerts(ctx context.Context) ([]dto.StockAlertResponse, error) {
	products, err := s.products.ListBelowMinStock(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.StockAlertResponse, 0, len(products))
	for i := range products {
		p := &products[i]
		alerts = append(alerts, dto.StockAlertResponse{
			ProductID:     p.ID.String(),
			ProductName:   p.Name,
			SKU:           p.SKU,
			QtyInStock:    p.QtyInStock,
			MinStockLevel: p.MinStockLevel,
			Status:        p.StockStatus(),
		})
	}
	return alerts, nil
}

func movementToResponse(m *model.StockMovement) *dto.MovementResponse {
	resp := &dto.MovementResponse{
		ID:          m.ID.String(),
		ProductID:   m.ProductID.String(),
		Type:        m.Type,
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reason:      m.Reason,
		UserID:      m.UserID.String(),
		CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.Product != nil {
		resp.ProductName = m.Product.Name
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}
