package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/roster-platform/internal/model"
)

type TherapistRepository interface {
	// Список терапевтов в стабильном порядке обхода (по дате создания).
	List(ctx context.Context, activeOnly bool) ([]model.Therapist, error)
	// Найти терапевта по ID.
	GetByID(ctx context.Context, id string) (*model.Therapist, error)
	// Создать терапевта.
	Create(ctx context.Context, therapist *model.Therapist) error
	// Обновить имя, должность и активность.
	Update(ctx context.Context, therapist *model.Therapist) error
	// Удалить терапевта.
	Delete(ctx context.Context, id string) error
}

type GormTherapistRepository struct {
	db *gorm.DB
}

func NewGormTherapistRepository(db *gorm.DB) *GormTherapistRepository {
	return &GormTherapistRepository{db: db}
}

func (r *GormTherapistRepository) List(ctx context.Context, activeOnly bool) ([]model.Therapist, error) {
	var therapists []model.Therapist
	q := r.db.WithContext(ctx).Model(&model.Therapist{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	// порядок создания определяет порядок обхода генератора,
	// id добивает ничью при равных created_at
	if err := q.Order("created_at ASC, id ASC").Find(&therapists).Error; err != nil {
		return nil, err
	}
	return therapists, nil
}

func (r *GormTherapistRepository) GetByID(ctx context.Context, id string) (*model.Therapist, error) {
	var t model.Therapist
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormTherapistRepository) Create(ctx context.Context, therapist *model.Therapist) error {
	return r.db.WithContext(ctx).Create(therapist).Error
}

func (r *GormTherapistRepository) Update(ctx context.Context, therapist *model.Therapist) error {
	return r.db.WithContext(ctx).
		Model(&model.Therapist{}).
		Where("id = ?", therapist.ID).
		Updates(map[string]any{
			"display_name": therapist.DisplayName,
			"position":     therapist.Position,
			"active":       therapist.Active,
		}).
		Error
}

func (r *GormTherapistRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Therapist{}, "id = ?", id).Error
}
