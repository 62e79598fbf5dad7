package repository

import (
	"context"

	"stocksync/internal/dto"
	"stocksync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// FindByIDForUpdate locks the sale row for the duration of the
	// transaction. Concurrent resolutions of the same sale serialize here.
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	UpdateTx(tx *gorm.DB, s *model.Sale) error
	// NextNumber draws from the sales_number_seq Postgres sequence; the
	// SALE-NNNNNN format is derived from this value, never from a row count.
	NextNumber(ctx context.Context, tx *gorm.DB) (int, error)
	// CountPending recomputes the pending aggregate by direct query,
	// optionally scoped to one employee.
	CountPending(ctx context.Context, employeeID *uuid.UUID) (int64, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Product").Preload("SoldBy").Preload("ApprovedBy").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error
	return &s, err
}

func (r *saleRepo) UpdateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Save(s).Error
}

func (r *saleRepo) NextNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('sales_number_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) CountPending(ctx context.Context, employeeID *uuid.UUID) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("status = ?", model.SaleStatusPending)
	if employeeID != nil {
		q = q.Where("sold_by_id = ?", *employeeID)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(sales_date) = ?", filter.Date)
	}
	if filter.EmployeeID != "" {
		q = q.Where("sold_by_id = ?", filter.EmployeeID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Product").Preload("SoldBy").Preload("ApprovedBy").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}
