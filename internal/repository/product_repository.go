package repository

import (
	"context"
	"time"

	"github.com/shinyyama/unimart-backend/internal/model"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := forUpdate(r.db.WithContext(ctx)).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, limit, offset int, status model.ProductStatus) ([]model.Product, int64, error) {
	var (
		items []model.Product
		total int64
	)
	byStatus := func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(byStatus).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Scopes(byStatus).
		Order("created_at DESC").
		Limit(clampLimit(limit, 20, 100)).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *productRepository) Reserve(ctx context.Context, id string) error {
	return r.transition(ctx, id, model.ProductStatusReserved, nil, model.ProductStatusAvailable)
}

func (r *productRepository) Release(ctx context.Context, id string) error {
	return r.transition(ctx, id, model.ProductStatusAvailable, nil, model.ProductStatusReserved)
}

func (r *productRepository) MarkSold(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, id, model.ProductStatusSold, &at, model.ProductStatusAvailable, model.ProductStatusReserved)
}

func (r *productRepository) transition(ctx context.Context, id string, to model.ProductStatus, soldAt *time.Time, from ...model.ProductStatus) error {
	updates := map[string]interface{}{"status": to}
	if soldAt != nil {
		updates["sold_at"] = *soldAt
	}
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
