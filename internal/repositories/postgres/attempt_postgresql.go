package postgres

import (
	"context"
	"fmt"

	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (r *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.AssessmentAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (r *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.AssessmentAttempt) error {
	if err := r.db.WithContext(ctx).Save(attempt).Error; err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}
	return nil
}

func (r *AttemptPostgreSQL) GetByID(ctx context.Context, id string) (*models.AssessmentAttempt, error) {
	var attempt models.AssessmentAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptPostgreSQL) GetByDefinition(ctx context.Context, definitionID string, filters repositories.AttemptFilters) ([]*models.AssessmentAttempt, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("definition_id = ?", definitionID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.RespondentID != nil {
		query = query.Where("respondent_id = ?", *filters.RespondentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	query = query.Order("started_at desc")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var attempts []*models.AssessmentAttempt
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}

func (r *AttemptPostgreSQL) GetStats(ctx context.Context, definitionID string) (*repositories.AttemptStats, error) {
	var stats repositories.AttemptStats

	base := r.db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("definition_id = ?", definitionID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	stats.TotalAttempts = int(total)

	var completed int64
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", models.AttemptCompleted).
		Count(&completed).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed attempts: %w", err)
	}
	stats.CompletedAttempts = int(completed)

	row := struct {
		AvgScore   float64
		AvgPercent float64
	}{}
	err := r.db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Select("COALESCE(AVG(score), 0) AS avg_score, COALESCE(AVG(percent), 0) AS avg_percent").
		Where("definition_id = ? AND status = ?", definitionID, models.AttemptCompleted).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attempt scores: %w", err)
	}
	stats.AverageScore = row.AvgScore
	stats.AveragePercent = row.AvgPercent

	return &stats, nil
}
