package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type TenantRepository interface {
	// Найти тенанта по slug (используется при разрешении тенанта из запроса).
	GetBySlug(ctx context.Context, slug string) (*model.Tenant, error)
}

type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

func (r *GormTenantRepository) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.WithContext(ctx).First(&t, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
