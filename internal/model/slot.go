package model

import (
	"time"

	"github.com/google/uuid"
)

// Статус слота расписания.
type TimeSlotStatus string

const (
	TimeSlotStatusAvailable   TimeSlotStatus = "available"
	TimeSlotStatusUnavailable TimeSlotStatus = "unavailable"
)

// time_slots — окна записи с конечной вместимостью.
// Инвариант 0 <= Booked <= Capacity поддерживается транзакцией
// бронирования (блокировка строки), а не только прикладным кодом.
type TimeSlot struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_time_slots_tenant_provider"`
	ProviderID uuid.UUID  `gorm:"type:uuid;not null;index:idx_time_slots_tenant_provider"`
	ScheduleID *uuid.UUID `gorm:"type:uuid;index"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	// Максимум одновременных броней и текущая занятость.
	Capacity int `gorm:"not null;default:1"`
	Booked   int `gorm:"not null;default:0"`

	Status TimeSlotStatus `gorm:"type:varchar(32);not null;default:'available';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant   *Tenant   `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Schedule *Schedule `gorm:"foreignKey:ScheduleID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// Remaining возвращает остаток вместимости слота.
func (s *TimeSlot) Remaining() int {
	return s.Capacity - s.Booked
}

// Contains проверяет, что интервал [from, to] целиком лежит в окне слота.
func (s *TimeSlot) Contains(from, to time.Time) bool {
	return !from.Before(s.StartsAt) && !to.After(s.EndsAt)
}
