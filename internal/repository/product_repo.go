package repository

import (
	"context"
	"time"

	"stocksync/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products. Services
// depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDForUpdate locks the product row inside a sale transaction so
	// stock checks and decrements serialize with concurrent sales.
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	// AdjustStockTx applies a stock delta inside the caller's transaction.
	AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error
	// ApplyApprovalTx folds an approved sale into the product's running
	// aggregates; stock is untouched (it moved at creation time).
	ApplyApprovalTx(tx *gorm.DB, id uuid.UUID, totalPrice, profit decimal.Decimal, at time.Time) error
	ListBelowMinStock(ctx context.Context) ([]model.Product, error)
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	return &p, err
}

func (r *productRepo) AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("qty_in_stock", gorm.Expr("qty_in_stock + ?", delta)).Error
}

func (r *productRepo) ApplyApprovalTx(tx *gorm.DB, id uuid.UUID, totalPrice, profit decimal.Decimal, at time.Time) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_sales":    gorm.Expr("total_sales + ?", totalPrice),
		"total_profit":   gorm.Expr("total_profit + ?", profit),
		"last_sale_date": at,
	}).Error
}

func (r *productRepo) ListBelowMinStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("qty_in_stock <= min_stock_level AND active = true").
		Order("qty_in_stock ASC").
		Find(&products).Error
	return products, err
}
