package engine

import (
	"fmt"
	"unicode/utf8"

	"github.com/dta-platform/assessment-engine/internal/models"
)

// FieldError is one human-readable validation message.
type FieldError struct {
	Message string `json:"message"`
}

// FieldResult is the per-question outcome of a step validation pass.
type FieldResult struct {
	Field   string       `json:"field"`
	IsValid bool         `json:"isValid"`
	Errors  []FieldError `json:"errors"`
}

// StepValid reports whether every field in a result set passed.
func StepValid(results []FieldResult) bool {
	for _, r := range results {
		if !r.IsValid {
			return false
		}
	}
	return true
}

// ValidateStep checks the current step's questions against the accumulated
// responses. Validation is step-scoped: questions outside the step are
// never re-validated here. Advancing is blocked unless every result is
// valid; callers must additionally run HasNullResponses before trusting a
// valid result.
func ValidateStep(questions []models.Question, responses models.ResponseMap) []FieldResult {
	results := make([]FieldResult, 0, len(questions))
	for i := range questions {
		results = append(results, validateField(&questions[i], responses))
	}
	return results
}

// HasNullResponses scans a step for required questions whose stored answer
// is missing or empty. Kept as an independent guard alongside ValidateStep:
// the remote validator may or may not catch null answers, so both checks
// run before every advance.
func HasNullResponses(questions []models.Question, responses models.ResponseMap) bool {
	for i := range questions {
		q := &questions[i]
		if !q.IsRequired || q.Type == models.ServiceRecommendations {
			continue
		}
		answer, ok := responses.Get(q.Key())
		if !ok || answer.Empty() {
			return true
		}
	}
	return false
}

func validateField(q *models.Question, responses models.ResponseMap) FieldResult {
	result := FieldResult{Field: q.Key(), IsValid: true}
	fail := func(format string, args ...any) {
		result.IsValid = false
		result.Errors = append(result.Errors, FieldError{Message: fmt.Sprintf(format, args...)})
	}

	answer, answered := responses.Get(q.Key())
	if !answered || answer.Empty() {
		if q.IsRequired && q.Type != models.ServiceRecommendations {
			fail("this question is required")
		}
		return result
	}

	switch q.Type {
	case models.MultipleChoice, models.Dropdown:
		if answer.Text == nil || *answer.Text == "" {
			fail("select an option")
		}
	case models.Checkbox:
		count := len(answer.Selections)
		if q.MinSelections != nil && count < *q.MinSelections {
			fail("select at least %d options", *q.MinSelections)
		}
		if q.MaxSelections != nil && count > *q.MaxSelections {
			fail("select at most %d options", *q.MaxSelections)
		}
	case models.ShortText, models.LongText:
		length := 0
		if answer.Text != nil {
			length = utf8.RuneCountInString(*answer.Text)
		}
		if q.MinLength != nil && length < *q.MinLength {
			fail("answer must be at least %d characters", *q.MinLength)
		}
		if q.MaxLength != nil && length > *q.MaxLength {
			fail("answer must be at most %d characters", *q.MaxLength)
		}
	case models.MultipleChoiceGrid:
		for _, row := range q.Rows {
			if answer.Grid[row.ID] == "" {
				fail("select a column for %q", row.Text)
			}
		}
	case models.FileUpload:
		count := len(answer.Files)
		if q.MaxFiles != nil && count > *q.MaxFiles {
			fail("upload at most %d files", *q.MaxFiles)
		}
	case models.ServiceRecommendations:
		// Display-only; nothing to validate.
	default:
		fail("unknown question type %q", q.Type)
	}
	return result
}
