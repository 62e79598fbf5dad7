package service_test

import (
	"context"
	"testing"
	"time"

	"stocksync/internal/domain"
	"stocksync/internal/dto"
	"stocksync/internal/model"
	"stocksync/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStockFixture() (service.StockService, *stubProductRepo, *stubMovementRepo) {
	products := newStubProductRepo()
	movements := &stubMovementRepo{}
	return service.NewStockService(products, movements), products, movements
}

func seedStockProduct(products *stubProductRepo, name string, stock, minLevel int) *model.Product {
	p := &model.Product{
		ID:            uuid.New(),
		SKU:           "SKU-" + name,
		Name:          name,
		Category:      "general",
		CostPrice:     decimal.NewFromInt(10),
		Price:         decimal.NewFromInt(20),
		QtyInStock:    stock,
		MinStockLevel: minLevel,
		Active:        true,
	}
	products.products[p.ID] = p
	return p
}

func TestAdjustStock_Restock(t *testing.T) {
	svc, products, movements := buildStockFixture()
	p := seedStockProduct(products, "Tea Box", 4, 5)
	actor := uuid.New()

	resp, err := svc.Adjust(context.Background(), actor, p.ID, dto.AdjustStockRequest{
		Delta:  10,
		Reason: "weekly restock",
	})
	require.NoError(t, err)

	assert.Equal(t, 14, products.products[p.ID].QtyInStock)
	assert.Equal(t, model.MovementIn, resp.Type)
	assert.Equal(t, 10, resp.Quantity)
	assert.Equal(t, 4, resp.StockBefore)
	assert.Equal(t, 14, resp.StockAfter)
	assert.Equal(t, "weekly restock", resp.Reason)

	// Timestamps go out in RFC 3339, the format clients parse
	_, parseErr := time.Parse(time.RFC3339, resp.CreatedAt)
	assert.NoError(t, parseErr)

	require.Len(t, movements.movements, 1)
	assert.Equal(t, actor, movements.movements[0].UserID)
}

func TestAdjustStock_NegativeDelta(t *testing.T) {
	svc, products, _ := buildStockFixture()
	p := seedStockProduct(products, "Coffee Bag", 10, 3)

	resp, err := svc.Adjust(context.Background(), uuid.New(), p.ID, dto.AdjustStockRequest{
		Delta:  -4,
		Reason: "breakage",
	})
	require.NoError(t, err)

	assert.Equal(t, 6, products.products[p.ID].QtyInStock)
	assert.Equal(t, model.MovementOut, resp.Type)
	assert.Equal(t, 4, resp.Quantity) // quantity stays positive, type carries direction
}

func TestAdjustStock_WouldGoNegative(t *testing.T) {
	svc, products, movements := buildStockFixture()
	p := seedStockProduct(products, "Sugar Pack", 3, 1)

	_, err := svc.Adjust(context.Background(), uuid.New(), p.ID, dto.AdjustStockRequest{
		Delta:  -5,
		Reason: "oops",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 3, products.products[p.ID].QtyInStock)
	assert.Empty(t, movements.movements)
}

func TestAdjustStock_UnknownProduct(t *testing.T) {
	svc, _, _ := buildStockFixture()

	_, err := svc.Adjust(context.Background(), uuid.New(), uuid.New(), dto.AdjustStockRequest{
		Delta:  1,
		Reason: "x",
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestStockAlerts(t *testing.T) {
	svc, products, _ := buildStockFixture()
	seedStockProduct(products, "Empty Item", 0, 5)
	seedStockProduct(products, "Low Item", 3, 5)
	seedStockProduct(products, "Healthy Item", 50, 5)
	inactive := seedStockProduct(products, "Inactive Item", 0, 5)
	inactive.Active = false

	alerts, err := svc.Alerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	byName := make(map[string]string)
	for _, a := range alerts {
		byName[a.ProductName] = a.Status
	}
	assert.Equal(t, "critical", byName["Empty Item"])
	assert.Equal(t, "low", byName["Low Item"])
}
