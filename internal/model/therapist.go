package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Therapist — терапевт справочника. Порядок в ростере задаётся порядком
// создания: генератор обходит терапевтов в стабильном порядке.
type Therapist struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	// Имя/отображаемое название в интерфейсе.
	DisplayName string `gorm:"type:varchar(255);not null"`

	// Должность, например «Психотерапевт».
	Position string `gorm:"type:varchar(255)"`

	// Неактивные терапевты остаются в справочнике, но не попадают
	// в генерацию.
	Active bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// BeforeCreate заполняет ID, когда СУБД не генерирует его сама
// (например, sqlite в тестах).
func (t *Therapist) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
