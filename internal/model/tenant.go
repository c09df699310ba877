package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// tenants — клиники (арендаторы платформы).
// Деактивация — мягкий флаг Active, строки никогда не удаляются:
// на тенанта ссылаются записи всех остальных таблиц.
type Tenant struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name string `gorm:"type:varchar(255);not null"`
	Slug string `gorm:"type:varchar(64);not null;uniqueIndex"`

	Active bool `gorm:"not null;default:true;index"`

	// Настройки брендинга (логотип, цвета, LIFF id и т.п.) в виде JSON.
	Branding datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
