package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// rosters — сетка одной недели. На неделю хранится одна запись,
// повторная генерация перезаписывает сетку и курсор.
type Roster struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	// Понедельник недели, чистая дата без времени.
	WeekStart *datatypes.Date `gorm:"type:date;uniqueIndex"`

	// Сетка назначений: JSON день → слот → кабинет → терапевт.
	Grid datatypes.JSON `gorm:"type:jsonb"`

	// Курсор кругового обхода после последней генерации. Следующая
	// неделя продолжает ротацию с этого места.
	Cursor int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (r *Roster) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
