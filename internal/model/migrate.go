package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ростерного ядра.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Therapist{},
		&Room{},
		&AvailabilityRule{},
		&Roster{},
		&Event{},
	)
}
