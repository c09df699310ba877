package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type MembershipRepository interface {
	// Привязка по внешнему LINE-идентификатору (через таблицу users).
	GetByTenantAndLineUserID(ctx context.Context, tenantID uuid.UUID, lineUserID string) (*model.Membership, error)
	// Участники тенанта с заданной ролью (персонал, админы).
	ListByTenantAndRole(ctx context.Context, tenantID uuid.UUID, role model.MembershipRole) ([]model.Membership, error)
}

type GormMembershipRepository struct {
	db *gorm.DB
}

func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

func (r *GormMembershipRepository) GetByTenantAndLineUserID(ctx context.Context, tenantID uuid.UUID, lineUserID string) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.tenant_id = ? AND users.line_user_id = ?", tenantID, lineUserID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormMembershipRepository) ListByTenantAndRole(ctx context.Context, tenantID uuid.UUID, role model.MembershipRole) ([]model.Membership, error) {
	var ms []model.Membership
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role = ?", tenantID, role).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return ms, nil
}
