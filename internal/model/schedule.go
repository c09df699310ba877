package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// schedules — рабочие окна специалиста, из которых генерируются слоты.
type Schedule struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Чистые даты без времени — datatypes.Date
	StartDate *datatypes.Date `gorm:"type:date"`
	EndDate   *datatypes.Date `gorm:"type:date"`

	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	// Правило повторения в виде JSON (хранится как JSONB в Postgres).
	Rules datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant   *Tenant   `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
