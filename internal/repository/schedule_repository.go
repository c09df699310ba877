package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type ScheduleRepository interface {
	// ListByProvider возвращает расписания специалиста тенанта.
	ListByProvider(ctx context.Context, tenantID, providerID uuid.UUID) ([]model.Schedule, error)
	// Создать расписание.
	Create(ctx context.Context, schedule *model.Schedule) error
}

type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) ListByProvider(ctx context.Context, tenantID, providerID uuid.UUID) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider_id = ?", tenantID, providerID).
		Order("created_at DESC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *GormScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}
