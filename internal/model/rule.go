package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// availability_rules — правило доступности терапевта, по одной записи
// на терапевта. Списки дней и слотов хранятся как JSON.
type AvailabilityRule struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TherapistID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	// Дни, в которые терапевт доступен: JSON-массив строк ("mon".."fri").
	AvailableDays datatypes.JSON `gorm:"type:jsonb"`

	// Дни работы из дома; имеют приоритет над AvailableDays.
	WFHDays datatypes.JSON `gorm:"type:jsonb"`

	// Доступные слоты: JSON-массив строк ("am", "pm").
	AvailableSlots datatypes.JSON `gorm:"type:jsonb"`

	// 1 или 2 слота в день.
	MaxConsecutivePerDay int `gorm:"not null;default:2"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Therapist *Therapist `gorm:"foreignKey:TherapistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (r *AvailabilityRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
