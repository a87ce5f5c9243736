package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/roster-platform/internal/model"
	"github.com/Leganyst/roster-platform/internal/repository"
	"github.com/Leganyst/roster-platform/internal/roster"
)

// DirectoryService управляет справочниками терапевтов и кабинетов.
type DirectoryService struct {
	therapists repository.TherapistRepository
	rooms      repository.RoomRepository
}

func NewDirectoryService(
	therapists repository.TherapistRepository,
	rooms repository.RoomRepository,
) *DirectoryService {
	return &DirectoryService{therapists: therapists, rooms: rooms}
}

// ListTherapists возвращает терапевтов в порядке обхода генератора.
func (s *DirectoryService) ListTherapists(ctx context.Context, includeInactive bool) ([]TherapistView, error) {
	rows, err := s.therapists.List(ctx, !includeInactive)
	if err != nil {
		return nil, err
	}
	views := make([]TherapistView, 0, len(rows))
	for i := range rows {
		views = append(views, *mapTherapist(&rows[i]))
	}
	return views, nil
}

// CreateTherapist добавляет терапевта в справочник.
func (s *DirectoryService) CreateTherapist(ctx context.Context, displayName, position string) (*TherapistView, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrNameRequired
	}

	row := &model.Therapist{
		DisplayName: displayName,
		Position:    strings.TrimSpace(position),
		Active:      true,
	}
	if err := s.therapists.Create(ctx, row); err != nil {
		return nil, err
	}
	return mapTherapist(row), nil
}

// UpdateTherapist обновляет имя, должность и активность.
func (s *DirectoryService) UpdateTherapist(ctx context.Context, id, displayName, position string, active bool) (*TherapistView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrNameRequired
	}

	row, err := s.therapists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTherapistNotFound, id)
		}
		return nil, err
	}

	row.DisplayName = displayName
	row.Position = strings.TrimSpace(position)
	row.Active = active
	if err := s.therapists.Update(ctx, row); err != nil {
		return nil, err
	}
	return mapTherapist(row), nil
}

// ListRooms возвращает кабинеты в пользовательском порядке.
func (s *DirectoryService) ListRooms(ctx context.Context, includeInactive bool) ([]RoomView, error) {
	rows, err := s.rooms.List(ctx, !includeInactive)
	if err != nil {
		return nil, err
	}
	views := make([]RoomView, 0, len(rows))
	for i := range rows {
		v, err := mapRoom(&rows[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// CreateRoom добавляет кабинет в справочник.
func (s *DirectoryService) CreateRoom(ctx context.Context, name string, sortOrder int) (*RoomView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	row := &model.Room{
		Name:      name,
		SortOrder: sortOrder,
		Active:    true,
	}
	if err := s.rooms.Create(ctx, row); err != nil {
		return nil, err
	}
	return mapRoom(row)
}

// UpdateRoom обновляет имя, порядок и активность кабинета.
func (s *DirectoryService) UpdateRoom(ctx context.Context, id, name string, sortOrder int, active bool) (*RoomView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	row, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
		}
		return nil, err
	}

	row.Name = name
	row.SortOrder = sortOrder
	row.Active = active
	if err := s.rooms.Update(ctx, row); err != nil {
		return nil, err
	}
	return mapRoom(row)
}

// SetRoomWindow заменяет временное окно кабинета. Пустое окно снимает
// ограничения. Каждая пара проверяется на известные день и слот.
func (s *DirectoryService) SetRoomWindow(ctx context.Context, id string, window roster.RoomTimeWindow) (*RoomView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	if _, err := s.rooms.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
		}
		return nil, err
	}

	if err := s.rooms.SetTimeWindow(ctx, id, marshalList(window)); err != nil {
		return nil, err
	}

	row, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapRoom(row)
}

// validateWindow проверяет, что каждая пара окна состоит из известных
// дня и слота и не повторяется.
func validateWindow(window roster.RoomTimeWindow) error {
	shape := roster.DefaultCalendar(nil)
	seen := make(map[roster.DaySlot]bool, len(window))
	for _, pair := range window {
		if !slices.Contains(shape.Days, pair.Day) || !slices.Contains(shape.Slots, pair.Slot) {
			return fmt.Errorf("%w: %s/%s", ErrInvalidWindow, pair.Day, pair.Slot)
		}
		if seen[pair] {
			return fmt.Errorf("%w: duplicate %s/%s", ErrInvalidWindow, pair.Day, pair.Slot)
		}
		seen[pair] = true
	}
	return nil
}
