package service

import "errors"

// Ошибки уровня сервисов. Транспорт переводит их в коды ответов,
// не разбирая текст.
var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidWeek       = errors.New("invalid week start")
	ErrNameRequired      = errors.New("display name is required")
	ErrInvalidWindow     = errors.New("invalid time window")
	ErrTherapistNotFound = errors.New("therapist not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRosterNotFound    = errors.New("roster not found")
)
