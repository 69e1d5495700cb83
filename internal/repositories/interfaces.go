package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/dta-platform/assessment-engine/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type DefinitionFilters struct {
	FormType  *models.FormType         `json:"form_type"`
	Status    *models.DefinitionStatus `json:"status"`
	CreatedBy *string                  `json:"created_by"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "created_at", "title"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status       *models.AttemptStatus `json:"status"`
	RespondentID *string               `json:"respondent_id"`
	DateFrom     *time.Time            `json:"date_from"`
	DateTo       *time.Time            `json:"date_to"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type AttemptStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
	AveragePercent    float64 `json:"average_percent"`
}

// ===== REPOSITORY INTERFACES =====

// DefinitionRepository is the persistence collaborator for form
// definitions. The engine only ever hands it fully built submission
// payloads and hydrated definitions.
type DefinitionRepository interface {
	Create(ctx context.Context, def *models.FormDefinition, createdBy string) (*models.FormDefinitionRecord, error)
	Update(ctx context.Context, id string, def *models.FormDefinition) (*models.FormDefinitionRecord, error)
	GetByID(ctx context.Context, id string) (*models.FormDefinition, error)
	GetRecord(ctx context.Context, id string) (*models.FormDefinitionRecord, error)
	List(ctx context.Context, filters DefinitionFilters) ([]*models.FormDefinitionRecord, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.DefinitionStatus) error
	Delete(ctx context.Context, id string) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.AssessmentAttempt) error
	Update(ctx context.Context, attempt *models.AssessmentAttempt) error
	GetByID(ctx context.Context, id string) (*models.AssessmentAttempt, error)
	GetByDefinition(ctx context.Context, definitionID string, filters AttemptFilters) ([]*models.AssessmentAttempt, int64, error)
	GetStats(ctx context.Context, definitionID string) (*AttemptStats, error)
}

// Repository aggregates all repositories behind one injection point.
type Repository interface {
	Definition() DefinitionRepository
	Attempt() AttemptRepository
}

// IsNotFoundError reports whether err is the datastore's missing-row error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
