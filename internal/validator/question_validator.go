package validator

import (
	"fmt"

	"github.com/dta-platform/assessment-engine/internal/models"
)

// QuestionValidator handles type-specific question content validation.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a complete question object. Dispatch over the
// question type is exhaustive: an unknown type is an error, never a silent
// fallthrough to some default variant.
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.Text == "" {
		return fmt.Errorf("question text is required")
	}

	switch question.Type {
	case models.MultipleChoice:
		return v.validateChoiceContent(question, false)
	case models.Checkbox:
		return v.validateChoiceContent(question, true)
	case models.Dropdown:
		return v.validateChoiceContent(question, false)
	case models.ShortText:
		return v.validateTextContent(question)
	case models.LongText:
		if err := v.validateTextContent(question); err != nil {
			return err
		}
		return v.validateKeywordScoring(question)
	case models.MultipleChoiceGrid:
		return v.validateGridContent(question)
	case models.FileUpload:
		return v.validateFileUploadContent(question)
	case models.ServiceRecommendations:
		return v.validateRecommendationsContent(question)
	default:
		return fmt.Errorf("unsupported question type: %s", question.Type)
	}
}

// ValidateBatch validates multiple questions.
func (v *QuestionValidator) ValidateBatch(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question batch cannot be empty")
	}

	for i := range questions {
		if err := v.ValidateQuestion(&questions[i]); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}

	return nil
}

// ValidateRecommendation validates one configured service recommendation.
func (v *QuestionValidator) ValidateRecommendation(rec *models.ServiceRecommendation) error {
	if rec.ServiceID == "" || rec.ServiceName == "" {
		return fmt.Errorf("recommendation must reference a service")
	}
	if rec.MaxPoints < rec.MinPoints {
		return fmt.Errorf("recommendation %q: max_points must be >= min_points", rec.ServiceName)
	}
	if len(rec.Levels) == 0 {
		return fmt.Errorf("recommendation %q: must target at least 1 maturity level", rec.ServiceName)
	}
	return nil
}

// Private validation methods per question type

func (v *QuestionValidator) validateChoiceContent(q *models.Question, selectionBounds bool) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}

	if len(q.Options) > 26 {
		return fmt.Errorf("cannot have more than 26 options")
	}

	// Labels must be unique and lettered in order
	labels := make(map[string]bool, len(q.Options))
	for i, option := range q.Options {
		if option.Label == "" {
			return fmt.Errorf("option %d: label cannot be empty", i+1)
		}
		if labels[option.Label] {
			return fmt.Errorf("duplicate option label: %s", option.Label)
		}
		labels[option.Label] = true
		if option.PointValue < 0 {
			return fmt.Errorf("option %s: point value cannot be negative", option.Label)
		}
	}

	if selectionBounds {
		if q.MinSelections != nil && *q.MinSelections < 0 {
			return fmt.Errorf("min_selections cannot be negative")
		}
		if q.MaxSelections != nil && *q.MaxSelections > len(q.Options) {
			return fmt.Errorf("max_selections cannot exceed option count")
		}
		if q.MinSelections != nil && q.MaxSelections != nil && *q.MinSelections > *q.MaxSelections {
			return fmt.Errorf("min_selections cannot exceed max_selections")
		}
	}

	return nil
}

func (v *QuestionValidator) validateTextContent(q *models.Question) error {
	if q.MinLength != nil && *q.MinLength < 0 {
		return fmt.Errorf("min length cannot be negative")
	}
	if q.MinLength != nil && q.MaxLength != nil && *q.MinLength > *q.MaxLength {
		return fmt.Errorf("min length cannot exceed max length")
	}
	if q.CompletionPoints != nil && *q.CompletionPoints < 0 {
		return fmt.Errorf("completion points cannot be negative")
	}
	return nil
}

func (v *QuestionValidator) validateKeywordScoring(q *models.Question) error {
	seen := make(map[string]bool, len(q.KeywordScoring))
	for i, ks := range q.KeywordScoring {
		if ks.Keyword == "" {
			return fmt.Errorf("keyword %d: keyword cannot be empty", i+1)
		}
		if seen[ks.Keyword] {
			return fmt.Errorf("duplicate keyword: %s", ks.Keyword)
		}
		seen[ks.Keyword] = true
		if ks.Points < 0 {
			return fmt.Errorf("keyword %q: points cannot be negative", ks.Keyword)
		}
	}
	return nil
}

func (v *QuestionValidator) validateGridContent(q *models.Question) error {
	if len(q.Columns) < 2 {
		return fmt.Errorf("grid must have at least 2 columns")
	}
	if len(q.Rows) < 1 {
		return fmt.Errorf("grid must have at least 1 row")
	}

	columnIDs := make(map[string]bool, len(q.Columns))
	for i, col := range q.Columns {
		if col.ID == "" || col.Text == "" {
			return fmt.Errorf("column %d: id and text are required", i+1)
		}
		if columnIDs[col.ID] {
			return fmt.Errorf("duplicate column id: %s", col.ID)
		}
		columnIDs[col.ID] = true
	}

	rowIDs := make(map[string]bool, len(q.Rows))
	for i, row := range q.Rows {
		if row.ID == "" || row.Text == "" {
			return fmt.Errorf("row %d: id and text are required", i+1)
		}
		if rowIDs[row.ID] {
			return fmt.Errorf("duplicate row id: %s", row.ID)
		}
		rowIDs[row.ID] = true
		if row.Weight != nil && *row.Weight < 0 {
			return fmt.Errorf("row %q: weight cannot be negative", row.Text)
		}
	}

	return nil
}

func (v *QuestionValidator) validateFileUploadContent(q *models.Question) error {
	if len(q.AcceptedTypes) == 0 {
		return fmt.Errorf("must accept at least 1 file type")
	}
	if q.MaxFileSizeMB != nil && *q.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max file size must be positive")
	}
	if q.MaxFiles != nil && *q.MaxFiles <= 0 {
		return fmt.Errorf("max files must be positive")
	}
	return nil
}

func (v *QuestionValidator) validateRecommendationsContent(q *models.Question) error {
	for i := range q.Recommendations {
		if err := v.ValidateRecommendation(&q.Recommendations[i]); err != nil {
			return fmt.Errorf("recommendation %d: %w", i+1, err)
		}
	}
	return nil
}
