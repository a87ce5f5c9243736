package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Room — кабинет. Порядок колонок в сетке — пользовательская настройка,
// хранится в SortOrder.
type Room struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name string `gorm:"type:varchar(255);not null"`

	SortOrder int `gorm:"not null;default:0;index"`

	Active bool `gorm:"not null;default:true;index"`

	// Временное окно кабинета: JSON-массив пар {day, slot}.
	// Пустое окно означает отсутствие ограничений.
	TimeWindow datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
