package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type ProviderRepository interface {
	// Все специалисты тенанта.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.Provider, error)
}

type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.Provider, error) {
	var ps []model.Provider
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("display_name ASC").
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return ps, nil
}
