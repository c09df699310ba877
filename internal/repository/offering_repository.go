package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type OfferingRepository interface {
	// Активные услуги тенанта.
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]model.Offering, error)
}

type GormOfferingRepository struct {
	db *gorm.DB
}

func NewGormOfferingRepository(db *gorm.DB) *GormOfferingRepository {
	return &GormOfferingRepository{db: db}
}

func (r *GormOfferingRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]model.Offering, error) {
	var os []model.Offering
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("name ASC").
		Find(&os).Error
	if err != nil {
		return nil, err
	}
	return os, nil
}
