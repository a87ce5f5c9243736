package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeRosterGenerated EventType = "roster_generated"
	EventTypeRosterReset     EventType = "roster_reset"
	EventTypeCellEdited      EventType = "cell_edited"
	EventTypeCellMoved       EventType = "cell_moved"
	EventTypeRulesUpdated    EventType = "rules_updated"
)

// events — события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	RosterID    *uuid.UUID `gorm:"type:uuid;index"`
	TherapistID *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`

	// Навигационные поля
	Roster    *Roster    `gorm:"foreignKey:RosterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Therapist *Therapist `gorm:"foreignKey:TherapistID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
