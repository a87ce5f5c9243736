package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/roster-platform/internal/model"
)

type RoomRepository interface {
	// Список кабинетов в пользовательском порядке.
	List(ctx context.Context, activeOnly bool) ([]model.Room, error)
	// Найти кабинет по ID.
	GetByID(ctx context.Context, id string) (*model.Room, error)
	// Создать кабинет.
	Create(ctx context.Context, room *model.Room) error
	// Обновить имя, порядок и активность.
	Update(ctx context.Context, room *model.Room) error
	// Заменить временное окно кабинета.
	SetTimeWindow(ctx context.Context, id string, window datatypes.JSON) error
	// Удалить кабинет.
	Delete(ctx context.Context, id string) error
}

type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) List(ctx context.Context, activeOnly bool) ([]model.Room, error) {
	var rooms []model.Room
	q := r.db.WithContext(ctx).Model(&model.Room{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("sort_order ASC, created_at ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *GormRoomRepository) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *GormRoomRepository) Create(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *GormRoomRepository) Update(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).
		Model(&model.Room{}).
		Where("id = ?", room.ID).
		Updates(map[string]any{
			"name":       room.Name,
			"sort_order": room.SortOrder,
			"active":     room.Active,
		}).
		Error
}

func (r *GormRoomRepository) SetTimeWindow(ctx context.Context, id string, window datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&model.Room{}).
		Where("id = ?", id).
		Update("time_window", window).
		Error
}

func (r *GormRoomRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Room{}, "id = ?", id).Error
}
