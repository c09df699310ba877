package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type UserRepository interface {
	// Найти пользователя по внешнему LINE-идентификатору.
	FindByLineUserID(ctx context.Context, lineUserID string) (*model.User, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByLineUserID(ctx context.Context, lineUserID string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("line_user_id = ?", lineUserID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
