package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/roster-platform/internal/model"
)

type RosterRepository interface {
	// Ростер недели по дате понедельника.
	GetByWeek(ctx context.Context, weekStart datatypes.Date) (*model.Roster, error)
	// Последний сохранённый ростер.
	GetLatest(ctx context.Context) (*model.Roster, error)
	// Создать ростер недели либо перезаписать сетку и курсор существующего.
	Save(ctx context.Context, roster *model.Roster) error
	// Список ростеров по убыванию недели с пагинацией.
	List(ctx context.Context, limit, offset int) ([]model.Roster, int64, error)
}

type GormRosterRepository struct {
	db *gorm.DB
}

func NewGormRosterRepository(db *gorm.DB) *GormRosterRepository {
	return &GormRosterRepository{db: db}
}

func (r *GormRosterRepository) GetByWeek(ctx context.Context, weekStart datatypes.Date) (*model.Roster, error) {
	var roster model.Roster
	if err := r.db.WithContext(ctx).First(&roster, "week_start = ?", weekStart).Error; err != nil {
		return nil, err
	}
	return &roster, nil
}

func (r *GormRosterRepository) GetLatest(ctx context.Context) (*model.Roster, error) {
	var roster model.Roster
	if err := r.db.WithContext(ctx).Order("week_start DESC").First(&roster).Error; err != nil {
		return nil, err
	}
	return &roster, nil
}

func (r *GormRosterRepository) Save(ctx context.Context, roster *model.Roster) error {
	var existing model.Roster
	tx := r.db.WithContext(ctx).First(&existing, "week_start = ?", roster.WeekStart)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return r.db.WithContext(ctx).Create(roster).Error
		}
		return tx.Error
	}
	roster.ID = existing.ID
	return r.db.WithContext(ctx).
		Model(&model.Roster{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"grid":   roster.Grid,
			"cursor": roster.Cursor,
		}).
		Error
}

func (r *GormRosterRepository) List(ctx context.Context, limit, offset int) ([]model.Roster, int64, error) {
	var (
		rosters []model.Roster
		total   int64
	)

	q := r.db.WithContext(ctx).Model(&model.Roster{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("week_start DESC").Find(&rosters).Error; err != nil {
		return nil, 0, err
	}

	return rosters, total, nil
}
