package model

import (
	"time"

	"github.com/google/uuid"
)

// offerings — услуги клиники (процедуры).
// Бронировать можно только активные услуги своего тенанта.
type Offering struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	// Длительность процедуры в минутах; от неё считается конец брони.
	DurationMin int64 `gorm:"not null"`

	PriceCents int64 `gorm:"not null;default:0"`

	Active bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant *Tenant `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
