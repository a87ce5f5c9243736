package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/roster-platform/internal/model"
)

type RuleRepository interface {
	// Все правила доступности.
	ListAll(ctx context.Context) ([]model.AvailabilityRule, error)
	// Правило конкретного терапевта.
	GetByTherapist(ctx context.Context, therapistID string) (*model.AvailabilityRule, error)
	// Создать или обновить правило терапевта.
	Upsert(ctx context.Context, rule *model.AvailabilityRule) error
	// Заменить весь набор правил одной транзакцией.
	ReplaceAll(ctx context.Context, rules []model.AvailabilityRule) error
}

type GormRuleRepository struct {
	db *gorm.DB
}

func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

func (r *GormRuleRepository) ListAll(ctx context.Context) ([]model.AvailabilityRule, error) {
	var rules []model.AvailabilityRule
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *GormRuleRepository) GetByTherapist(ctx context.Context, therapistID string) (*model.AvailabilityRule, error) {
	var rule model.AvailabilityRule
	if err := r.db.WithContext(ctx).First(&rule, "therapist_id = ?", therapistID).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *GormRuleRepository) Upsert(ctx context.Context, rule *model.AvailabilityRule) error {
	var existing model.AvailabilityRule
	tx := r.db.WithContext(ctx).First(&existing, "therapist_id = ?", rule.TherapistID)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return r.db.WithContext(ctx).Create(rule).Error
		}
		return tx.Error
	}
	return r.db.WithContext(ctx).
		Model(&model.AvailabilityRule{}).
		Where("therapist_id = ?", rule.TherapistID).
		Updates(map[string]any{
			"available_days":          rule.AvailableDays,
			"wfh_days":                rule.WFHDays,
			"available_slots":         rule.AvailableSlots,
			"max_consecutive_per_day": rule.MaxConsecutivePerDay,
		}).
		Error
}

func (r *GormRuleRepository) ReplaceAll(ctx context.Context, rules []model.AvailabilityRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// старый набор стирается целиком: правило без записи означает
		// «полностью доступен», хранить его не нужно
		if err := tx.Where("1 = 1").Delete(&model.AvailabilityRule{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		return tx.Create(&rules).Error
	})
}
