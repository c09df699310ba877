package model

import (
	"time"

	"github.com/google/uuid"
)

// Тип события аудита.
type EventType string

const (
	EventTypeMemberRegistered         EventType = "member_registered"
	EventTypeReservationCreated       EventType = "reservation_created"
	EventTypeReservationStatusChanged EventType = "reservation_status_changed"
	EventTypeReservationCancelled     EventType = "reservation_cancelled"
)

// events — события аудита. Пишутся в той же транзакции,
// что и изменение, которое они описывают.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	UserID        *uuid.UUID `gorm:"type:uuid;index"`
	ReservationID *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`

	Tenant      *Tenant      `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User        *User        `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Reservation *Reservation `gorm:"foreignKey:ReservationID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
