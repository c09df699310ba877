package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type ReservationRepository interface {
	// Бронь тенанта по ID.
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Reservation, error)
	// Список броней клиента за период с пагинацией, по возрастанию времени.
	ListByUserRange(ctx context.Context, tenantID, userID uuid.UUID, from, to time.Time, limit, offset int) ([]model.Reservation, int64, error)
	// Список броней специалиста за период с пагинацией, по возрастанию времени.
	ListByProviderRange(ctx context.Context, tenantID, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]model.Reservation, int64, error)
}

type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormReservationRepository) ListByUserRange(
	ctx context.Context,
	tenantID, userID uuid.UUID,
	from, to time.Time,
	limit, offset int,
) ([]model.Reservation, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Where("starts_at >= ? AND starts_at < ?", from, to)
	return listReservations(q, limit, offset)
}

func (r *GormReservationRepository) ListByProviderRange(
	ctx context.Context,
	tenantID, providerID uuid.UUID,
	from, to time.Time,
	limit, offset int,
) ([]model.Reservation, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("tenant_id = ? AND provider_id = ?", tenantID, providerID).
		Where("starts_at >= ? AND starts_at < ?", from, to)
	return listReservations(q, limit, offset)
}

func listReservations(q *gorm.DB, limit, offset int) ([]model.Reservation, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var out []model.Reservation
	if err := q.Order("starts_at ASC").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
