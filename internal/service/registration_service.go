package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// RegistrationService атомарно привязывает внешнюю LINE-учётку к тенанту:
// find-or-create пользователя и membership в одной транзакции.
type RegistrationService struct {
	db          *gorm.DB
	log         *zap.Logger
	memberships repository.MembershipRepository
}

func NewRegistrationService(db *gorm.DB, log *zap.Logger, memberships repository.MembershipRepository) *RegistrationService {
	return &RegistrationService{db: db, log: log, memberships: memberships}
}

// RegisterInput — анкета онбординга плюс данные профиля от провайдера.
type RegisterInput struct {
	LineUserID  string
	DisplayName string
	AvatarURL   string
	TenantID    uuid.UUID
	RealName    string
	Phone       string
}

// RegistrationStatus — результат проверки привязки.
// Registered=false и Membership=nil — обычный случай нового клиента
// конкретной клиники, не ошибка.
type RegistrationStatus struct {
	Registered bool
	Membership *model.Membership
}

// Register выполняет идемпотентный upsert привязки.
// Неактивный или отсутствующий тенант — бизнес-отказ ErrTenantInactive.
// Частичное применение (пользователь создан, membership нет) исключено:
// обе записи пишутся в одной транзакции.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*model.Membership, error) {
	if strings.TrimSpace(in.LineUserID) == "" {
		return nil, fmt.Errorf("%w: line_user_id is required", ErrInvalidArgument)
	}
	if in.TenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant_id is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(in.RealName) == "" {
		return nil, fmt.Errorf("%w: real_name is required", ErrInvalidArgument)
	}
	phone := normalizePhone(in.Phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalidArgument)
	}

	var membership model.Membership

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if err := tx.First(&tenant, "id = ?", in.TenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTenantInactive
			}
			return err
		}
		if !tenant.Active {
			return ErrTenantInactive
		}

		// Upsert пользователя по внешнему идентификатору: конкурентные
		// повторные регистрации сходятся к одной строке.
		user := model.User{
			ID:          uuid.New(),
			LineUserID:  in.LineUserID,
			DisplayName: in.DisplayName,
			AvatarURL:   in.AvatarURL,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "line_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "avatar_url", "updated_at"}),
		}).Create(&user).Error
		if err != nil {
			return err
		}
		// Перечитываем: при конфликте канонический ID остаётся у старой строки.
		if err := tx.Where("line_user_id = ?", in.LineUserID).First(&user).Error; err != nil {
			return err
		}

		// Upsert привязки. Роль при конфликте не трогаем: повторная
		// регистрация сотрудника не понижает его до клиента.
		m := model.Membership{
			ID:         uuid.New(),
			TenantID:   tenant.ID,
			UserID:     user.ID,
			Role:       model.MembershipRoleCustomer,
			RealName:   in.RealName,
			Phone:      phone,
			Registered: true,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"real_name", "phone", "registered", "updated_at"}),
		}).Create(&m).Error
		if err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ? AND user_id = ?", tenant.ID, user.ID).First(&membership).Error; err != nil {
			return err
		}

		event := model.Event{
			ID:        uuid.New(),
			TenantID:  tenant.ID,
			EventType: model.EventTypeMemberRegistered,
			UserID:    &user.ID,
			Details:   fmt.Sprintf("line_user_id=%s role=%s", in.LineUserID, membership.Role),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("member registered",
		zap.String("tenant_id", membership.TenantID.String()),
		zap.String("membership_id", membership.ID.String()),
		zap.String("role", string(membership.Role)))

	return &membership, nil
}

// CheckRegistration проверяет привязку принципала к тенанту.
// Пользователь без membership в этом тенанте — Registered=false, не ошибка.
func (s *RegistrationService) CheckRegistration(ctx context.Context, lineUserID string, tenantID uuid.UUID) (*RegistrationStatus, error) {
	if strings.TrimSpace(lineUserID) == "" {
		return nil, fmt.Errorf("%w: line_user_id is required", ErrInvalidArgument)
	}
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant_id is required", ErrInvalidArgument)
	}

	m, err := s.memberships.GetByTenantAndLineUserID(ctx, tenantID, lineUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &RegistrationStatus{}, nil
		}
		return nil, err
	}

	return &RegistrationStatus{Registered: m.Registered, Membership: m}, nil
}

// normalizePhone оставляет в номере только цифры и ведущий "+".
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	b := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		c := phone[i]
		if c >= '0' && c <= '9' {
			b = append(b, c)
			continue
		}
		if c == '+' && len(b) == 0 {
			b = append(b, c)
		}
	}
	if len(b) == 0 || (len(b) == 1 && b[0] == '+') {
		return ""
	}
	return string(b)
}
