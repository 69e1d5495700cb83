package engine

import (
	"math"
	"strings"

	"github.com/dta-platform/assessment-engine/internal/models"
)

// Score computes the total score for a completed response set. maxPossible
// is the value frozen on the definition at save time; it is trusted here
// rather than re-derived so respondent scoring and operator preview can
// never disagree.
func Score(questions []models.Question, responses models.ResponseMap, maxPossible int) models.ScoreResult {
	result := models.ScoreResult{
		MaxPossibleScore: maxPossible,
		Contributions:    make(map[string]int, len(questions)),
	}
	for i := range questions {
		q := &questions[i]
		if !q.Type.Scored() {
			continue
		}
		answer, ok := responses.Get(q.Key())
		if !ok {
			continue
		}
		contribution := scoreQuestion(q, answer)
		if contribution != 0 {
			result.Contributions[q.Key()] = contribution
		}
		result.Score += contribution
	}
	result.Percent = Percentage(result.Score, maxPossible)
	result.Level = models.MaturityLevelFor(result.Percent)
	return result
}

// Percentage converts a score into a display percentage, clamped to [0,100].
// A zero max yields 0% rather than dividing by zero; the integrity check
// surfaces that configuration to the operator at build time.
func Percentage(score, maxPossible int) int {
	if maxPossible <= 0 {
		return 0
	}
	percent := int(math.Round(float64(score) / float64(maxPossible) * 100))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// MaxPossibleScore sums the maximum attainable contribution per question.
// Computed once at definition save time, never ad hoc at scoring time.
func MaxPossibleScore(questions []models.Question) int {
	total := 0
	for i := range questions {
		total += questions[i].MaxContribution()
	}
	return total
}

func scoreQuestion(q *models.Question, answer models.AnswerValue) int {
	switch q.Type {
	case models.MultipleChoice, models.Dropdown:
		if answer.Text == nil {
			return 0
		}
		for _, opt := range q.Options {
			if opt.Label == *answer.Text {
				return opt.PointValue
			}
		}
		return 0
	case models.Checkbox:
		total := 0
		for _, selected := range answer.Selections {
			for _, opt := range q.Options {
				if opt.Label == selected {
					total += opt.PointValue
					break
				}
			}
		}
		return total
	case models.MultipleChoiceGrid:
		return scoreGrid(q, answer.Grid)
	case models.ShortText:
		return scoreText(q, answer)
	case models.LongText:
		return scoreText(q, answer) + scoreKeywords(q, answer)
	}
	return 0
}

// scoreGrid sums the selected column's points per row, weighted by the
// row's weight when configured (defaulting to 1).
func scoreGrid(q *models.Question, cells map[string]string) int {
	columnPoints := make(map[string]int, len(q.Columns))
	for _, col := range q.Columns {
		if col.PointValue != nil {
			columnPoints[col.ID] = *col.PointValue
		}
	}
	total := 0
	for _, row := range q.Rows {
		selected, ok := cells[row.ID]
		if !ok {
			continue
		}
		points, ok := columnPoints[selected]
		if !ok {
			continue
		}
		weight := 1
		if row.Weight != nil {
			weight = *row.Weight
		}
		total += points * weight
	}
	return total
}

// scoreText awards the completion points when the answer is non-empty and
// meets the configured minimum length.
func scoreText(q *models.Question, answer models.AnswerValue) int {
	if q.CompletionPoints == nil || answer.Text == nil {
		return 0
	}
	text := strings.TrimSpace(*answer.Text)
	if text == "" {
		return 0
	}
	if q.MinLength != nil && len([]rune(text)) < *q.MinLength {
		return 0
	}
	return *q.CompletionPoints
}

// scoreKeywords awards each configured keyword's points when it occurs as a
// case-insensitive substring of the answer, counted once per keyword no
// matter how often it repeats.
func scoreKeywords(q *models.Question, answer models.AnswerValue) int {
	if answer.Text == nil {
		return 0
	}
	haystack := strings.ToLower(*answer.Text)
	total := 0
	for _, ks := range q.KeywordScoring {
		if ks.Keyword == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(ks.Keyword)) {
			total += ks.Points
		}
	}
	return total
}
