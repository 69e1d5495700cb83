package engine

import (
	"reflect"

	"github.com/dta-platform/assessment-engine/internal/models"
)

// DefinitionDiff is the structural difference between the original snapshot
// and the live definition: what an update submission must create, rewrite,
// or delete server-side.
type DefinitionDiff struct {
	AddedQuestions    []models.Question
	ModifiedQuestions []models.Question

	DeletedQuestionIDs       []string
	DeletedModuleIDs         []string
	DeletedRecommendationIDs []string
}

// ModifiedOrNew returns the questions an update submission must carry:
// additions first, then modifications, both in live definition order.
func (d DefinitionDiff) ModifiedOrNew() []models.Question {
	out := make([]models.Question, 0, len(d.AddedQuestions)+len(d.ModifiedQuestions))
	out = append(out, d.AddedQuestions...)
	out = append(out, d.ModifiedQuestions...)
	return out
}

// Diff computes the structural difference between two definition states.
// Pure: neither argument is mutated, and identical inputs always produce an
// identical diff. Editor-only state (edit FSM position) never marks a
// question modified.
func Diff(original, current *models.FormDefinition) DefinitionDiff {
	var diff DefinitionDiff
	if original == nil {
		diff.AddedQuestions = append(diff.AddedQuestions, current.Questions...)
		return diff
	}

	originalQuestions := make(map[string]*models.Question, len(original.Questions))
	for i := range original.Questions {
		if id := original.Questions[i].ID; id != "" {
			originalQuestions[id] = &original.Questions[i]
		}
	}

	seen := make(map[string]bool, len(current.Questions))
	for i := range current.Questions {
		q := current.Questions[i]
		base, existed := originalQuestions[q.ID]
		if q.ID == "" || !existed {
			diff.AddedQuestions = append(diff.AddedQuestions, q)
			continue
		}
		seen[q.ID] = true
		if !questionsEqual(base, &q) {
			diff.ModifiedQuestions = append(diff.ModifiedQuestions, q)
		}
	}

	for i := range original.Questions {
		id := original.Questions[i].ID
		if id != "" && !seen[id] {
			diff.DeletedQuestionIDs = append(diff.DeletedQuestionIDs, id)
		}
	}

	diff.DeletedModuleIDs = deletedModuleIDs(original, current)
	diff.DeletedRecommendationIDs = deletedRecommendationIDs(original, current)
	return diff
}

func questionsEqual(a, b *models.Question) bool {
	return reflect.DeepEqual(canonicalQuestion(a), canonicalQuestion(b))
}

// canonicalQuestion strips editor-only state and collapses empty slices to
// nil, so a question round-tripped through JSON or a deep clone compares
// equal to its source.
func canonicalQuestion(q *models.Question) models.Question {
	c := *q
	c.EditState = ""
	if len(c.Options) == 0 {
		c.Options = nil
	}
	if len(c.KeywordScoring) == 0 {
		c.KeywordScoring = nil
	}
	if len(c.Columns) == 0 {
		c.Columns = nil
	}
	if len(c.Rows) == 0 {
		c.Rows = nil
	}
	if len(c.AcceptedTypes) == 0 {
		c.AcceptedTypes = nil
	}
	if len(c.Recommendations) == 0 {
		c.Recommendations = nil
	}
	return c
}

func deletedModuleIDs(original, current *models.FormDefinition) []string {
	live := make(map[string]bool, len(current.Modules))
	for i := range current.Modules {
		if id := current.Modules[i].ID; id != "" {
			live[id] = true
		}
	}
	var deleted []string
	for i := range original.Modules {
		if id := original.Modules[i].ID; id != "" && !live[id] {
			deleted = append(deleted, id)
		}
	}
	return deleted
}

func deletedRecommendationIDs(original, current *models.FormDefinition) []string {
	live := make(map[string]bool, len(current.ServiceRecommendations))
	for i := range current.ServiceRecommendations {
		if id := current.ServiceRecommendations[i].ID; id != "" {
			live[id] = true
		}
	}
	var deleted []string
	for i := range original.ServiceRecommendations {
		if id := original.ServiceRecommendations[i].ID; id != "" && !live[id] {
			deleted = append(deleted, id)
		}
	}
	return deleted
}
