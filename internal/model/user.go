package model

import (
	"time"

	"github.com/google/uuid"
)

// users — глобальные пользователи, привязанные к внешней LINE-учётке.
// Пользователь не принадлежит тенанту: один и тот же человек может быть
// клиентом нескольких клиник (см. Membership).
type User struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	// Стабильный внешний идентификатор от провайдера (LINE userId).
	LineUserID string `gorm:"type:varchar(64);not null;uniqueIndex"`

	DisplayName string `gorm:"type:varchar(255)"`
	AvatarURL   string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Memberships []Membership `gorm:"foreignKey:UserID"`
}

// Роль участника внутри тенанта.
type MembershipRole string

const (
	MembershipRoleCustomer MembershipRole = "customer"
	MembershipRoleStaff    MembershipRole = "staff"
	MembershipRoleAdmin    MembershipRole = "admin"
)

// memberships — привязка пользователя к конкретной клинике.
// Не более одной строки на пару (tenant, user); признаком завершённой
// регистрации считается флаг Registered, а не сам факт наличия строки —
// строка может существовать в недозаполненном состоянии.
type Membership struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_memberships_tenant_user;index"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_memberships_tenant_user;index"`

	Role MembershipRole `gorm:"type:varchar(32);not null;default:'customer'"`

	// Профиль в рамках клиники (анкета онбординга).
	RealName string `gorm:"type:varchar(255)"`
	Phone    string `gorm:"type:varchar(32)"`

	Registered bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant *Tenant `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User   *User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
