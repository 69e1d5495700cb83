package engine

import (
	"testing"

	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestScoreQuestion_MultipleChoice(t *testing.T) {
	q := models.Question{
		ID:   "q1",
		Type: models.MultipleChoice,
		Options: []models.Option{
			{Label: "A", PointValue: 0},
			{Label: "B", PointValue: 5},
		},
	}

	tests := []struct {
		name     string
		answer   models.AnswerValue
		expected int
	}{
		{"matching option", models.TextAnswer("B"), 5},
		{"zero point option", models.TextAnswer("A"), 0},
		{"unknown label", models.TextAnswer("Z"), 0},
		{"no text", models.AnswerValue{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scoreQuestion(&q, tt.answer))
		})
	}
}

func TestScoreQuestion_CheckboxIsAdditive(t *testing.T) {
	q := models.Question{
		ID:   "q1",
		Type: models.Checkbox,
		Options: []models.Option{
			{Label: "A", PointValue: 5},
			{Label: "B", PointValue: 3},
			{Label: "C", PointValue: 2},
		},
	}

	assert.Equal(t, 8, scoreQuestion(&q, models.SelectionAnswer("A", "B")))
	assert.Equal(t, 10, scoreQuestion(&q, models.SelectionAnswer("A", "B", "C")))
	assert.Equal(t, 0, scoreQuestion(&q, models.SelectionAnswer()))
}

func TestScoreQuestion_GridWeightsRows(t *testing.T) {
	q := models.Question{
		ID:   "q1",
		Type: models.MultipleChoiceGrid,
		Columns: []models.GridColumn{
			{ID: "never", Text: "Never", PointValue: intPtr(0)},
			{ID: "always", Text: "Always", PointValue: intPtr(3)},
		},
		Rows: []models.GridRow{
			{ID: "r1", Text: "Backups"},
			{ID: "r2", Text: "Audits", Weight: intPtr(2)},
		},
	}

	answer := models.GridAnswer(map[string]string{"r1": "always", "r2": "always"})
	assert.Equal(t, 9, scoreQuestion(&q, answer), "3*1 + 3*2")

	partial := models.GridAnswer(map[string]string{"r2": "never"})
	assert.Equal(t, 0, scoreQuestion(&q, partial))
}

func TestScoreQuestion_TextCompletion(t *testing.T) {
	q := models.Question{
		ID:               "q1",
		Type:             models.ShortText,
		CompletionPoints: intPtr(4),
		MinLength:        intPtr(5),
	}

	assert.Equal(t, 4, scoreQuestion(&q, models.TextAnswer("a real answer")))
	assert.Equal(t, 0, scoreQuestion(&q, models.TextAnswer("ab")), "below minimum length")
	assert.Equal(t, 0, scoreQuestion(&q, models.TextAnswer("   ")), "whitespace only")
}

func TestScoreQuestion_KeywordsCountedOncePerKeyword(t *testing.T) {
	q := models.Question{
		ID:               "q1",
		Type:             models.LongText,
		CompletionPoints: intPtr(2),
		KeywordScoring: []models.KeywordScore{
			{Keyword: "cloud", Points: 3},
			{Keyword: "Security", Points: 5},
		},
	}

	// "cloud" appears three times, still worth 3; matching is
	// case-insensitive.
	answer := models.TextAnswer("Our CLOUD strategy: cloud first, cloud native, with security baked in")
	assert.Equal(t, 2+3+5, scoreQuestion(&q, answer))

	// Identical input always produces the identical score.
	assert.Equal(t, scoreQuestion(&q, answer), scoreQuestion(&q, answer))

	assert.Equal(t, 2, scoreQuestion(&q, models.TextAnswer("nothing relevant")))
}

func TestScore_EndToEnd(t *testing.T) {
	questions := []models.Question{
		{
			ID: "q1", Type: models.MultipleChoice, ModuleRef: "m1",
			Options: []models.Option{
				{Label: "A", PointValue: 10},
				{Label: "B", PointValue: 0},
			},
		},
		{
			ID: "q2", Type: models.Checkbox, ModuleRef: "m1",
			Options: []models.Option{
				{Label: "A", PointValue: 5},
				{Label: "B", PointValue: 3},
			},
		},
		{ID: "up", Type: models.FileUpload, ModuleRef: "m1", IsRequired: true},
	}
	maxPossible := MaxPossibleScore(questions)
	assert.Equal(t, 18, maxPossible)

	responses := models.ResponseMap{
		"q1": models.TextAnswer("A"),
		"q2": models.SelectionAnswer("A", "B"),
		"up": {Files: []string{"evidence.pdf"}},
	}

	result := Score(questions, responses, maxPossible)
	assert.Equal(t, 18, result.Score)
	assert.Equal(t, 100, result.Percent)
	assert.Equal(t, "Expert", result.Level)
	assert.Equal(t, 10, result.Contributions["q1"])
	assert.Equal(t, 8, result.Contributions["q2"])
	assert.NotContains(t, result.Contributions, "up", "unscored types contribute nothing")
}

func TestScore_MissingAnswersContributeZero(t *testing.T) {
	questions := []models.Question{
		{
			ID: "q1", Type: models.MultipleChoice,
			Options: []models.Option{{Label: "A", PointValue: 10}},
		},
	}

	result := Score(questions, models.ResponseMap{}, 10)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.Percent)
	assert.Equal(t, "Beginner", result.Level)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name       string
		score, max int
		expected   int
	}{
		{"full marks", 15, 15, 100},
		{"half", 5, 10, 50},
		{"rounds", 1, 3, 33},
		{"zero max", 7, 0, 0},
		{"negative max", 7, -1, 0},
		{"overscore clamps", 20, 10, 100},
		{"negative score clamps", -5, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Percentage(tt.score, tt.max))
		})
	}
}

func TestMaxContribution_CheckboxRespectsSelectionCap(t *testing.T) {
	q := models.Question{
		Type: models.Checkbox,
		Options: []models.Option{
			{Label: "A", PointValue: 5},
			{Label: "B", PointValue: 3},
			{Label: "C", PointValue: 4},
		},
		MaxSelections: intPtr(2),
	}
	assert.Equal(t, 9, q.MaxContribution(), "two best positive options")
}
