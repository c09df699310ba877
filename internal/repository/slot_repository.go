package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type SlotRepository interface {
	// Доступные для записи слоты специалиста в интервале.
	// Читает занятость без блокировки: значения могут быть слегка
	// устаревшими, но никогда не оптимистичнее реальных.
	ListAvailable(ctx context.Context, tenantID, providerID uuid.UUID, from, to time.Time) ([]model.TimeSlot, error)
	// Все слоты специалиста в интервале (любые статусы).
	ListByProviderRange(ctx context.Context, tenantID, providerID uuid.UUID, from, to time.Time) ([]model.TimeSlot, error)
	// Слот тенанта по ID.
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.TimeSlot, error)
	// Пометить слот недоступным (снятие с записи без удаления).
	MarkUnavailable(ctx context.Context, tenantID, id uuid.UUID) error
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) ListAvailable(
	ctx context.Context,
	tenantID, providerID uuid.UUID,
	from, to time.Time,
) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider_id = ?", tenantID, providerID).
		Where("starts_at >= ? AND ends_at <= ?", from, to).
		Where("status = ?", model.TimeSlotStatusAvailable).
		Where("booked < capacity").
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) ListByProviderRange(
	ctx context.Context,
	tenantID, providerID uuid.UUID,
	from, to time.Time,
) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider_id = ?", tenantID, providerID).
		Where("starts_at >= ? AND ends_at <= ?", from, to).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) MarkUnavailable(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("status", model.TimeSlotStatusUnavailable).
		Error
}
