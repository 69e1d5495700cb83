package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefinitionPostgreSQL struct {
	db *gorm.DB
}

func NewDefinitionPostgreSQL(db *gorm.DB) repositories.DefinitionRepository {
	return &DefinitionPostgreSQL{db: db}
}

// Create stores a new definition as a JSON document row.
func (r *DefinitionPostgreSQL) Create(ctx context.Context, def *models.FormDefinition, createdBy string) (*models.FormDefinitionRecord, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	assignServerIDs(def)

	doc, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal definition document: %w", err)
	}

	record := &models.FormDefinitionRecord{
		ID:        def.ID,
		FormType:  def.FormType,
		Title:     def.WelcomeScreen.Title,
		Status:    models.DefinitionDraft,
		MaxScore:  def.MaxPossibleScore,
		Document:  doc,
		CreatedBy: createdBy,
		Version:   1,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create form definition: %w", err)
	}
	return record, nil
}

// Update rewrites the stored document and bumps the version.
func (r *DefinitionPostgreSQL) Update(ctx context.Context, id string, def *models.FormDefinition) (*models.FormDefinitionRecord, error) {
	var record models.FormDefinitionRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}

	def.ID = id
	assignServerIDs(def)

	doc, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal definition document: %w", err)
	}

	record.Title = def.WelcomeScreen.Title
	record.MaxScore = def.MaxPossibleScore
	record.Document = doc
	record.Version++

	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to update form definition: %w", err)
	}
	return &record, nil
}

// GetByID hydrates the editable definition from its document row.
func (r *DefinitionPostgreSQL) GetByID(ctx context.Context, id string) (*models.FormDefinition, error) {
	record, err := r.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	var def models.FormDefinition
	if err := json.Unmarshal(record.Document, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition document: %w", err)
	}
	def.ID = record.ID
	def.Status = record.Status
	return &def, nil
}

func (r *DefinitionPostgreSQL) GetRecord(ctx context.Context, id string) (*models.FormDefinitionRecord, error) {
	var record models.FormDefinitionRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *DefinitionPostgreSQL) List(ctx context.Context, filters repositories.DefinitionFilters) ([]*models.FormDefinitionRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FormDefinitionRecord{})

	if filters.FormType != nil {
		query = query.Where("form_type = ?", *filters.FormType)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count form definitions: %w", err)
	}

	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortColumn(filters.SortBy), sortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var records []*models.FormDefinitionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list form definitions: %w", err)
	}
	return records, total, nil
}

// sortColumn maps a sort_by query value onto a known column. Anything
// outside the whitelist falls back to created_at so user input never
// reaches the ORDER BY clause verbatim.
func sortColumn(requested string) string {
	switch requested {
	case "created_at", "updated_at", "title", "status", "form_type", "version":
		return requested
	default:
		return "created_at"
	}
}

func (r *DefinitionPostgreSQL) UpdateStatus(ctx context.Context, id string, status models.DefinitionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.FormDefinitionRecord{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update definition status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DefinitionPostgreSQL) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.FormDefinitionRecord{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete form definition: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// assignServerIDs promotes temp-keyed entities to server ids so identity
// stays stable across subsequent edit sessions.
func assignServerIDs(def *models.FormDefinition) {
	for i := range def.Modules {
		if def.Modules[i].ID == "" {
			def.Modules[i].ID = uuid.NewString()
		}
	}
	for i := range def.Questions {
		if def.Questions[i].ID == "" {
			def.Questions[i].ID = uuid.NewString()
		}
	}
	for i := range def.ServiceRecommendations {
		if def.ServiceRecommendations[i].ID == "" {
			def.ServiceRecommendations[i].ID = uuid.NewString()
		}
	}
}
