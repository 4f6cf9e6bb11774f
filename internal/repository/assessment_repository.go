package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"infosec-dashboard/internal/model"
)

// AssessmentRepository serves assessment history from MySQL.
type AssessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) ListAssessments(ctx context.Context) ([]model.Assessment, error) {
	var items []model.Assessment
	if err := r.db.WithContext(ctx).Order("completion_date DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list assessments failed: %w", err)
	}
	return items, nil
}

func (r *AssessmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Assessment{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count assessments failed: %w", err)
	}
	return n, nil
}

func (r *AssessmentRepository) Upsert(ctx context.Context, item *model.Assessment) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("save assessment failed: %w", err)
	}
	return nil
}
