package engine

import (
	"fmt"

	"github.com/dta-platform/assessment-engine/internal/models"
)

// IntegrityIssueKind classifies definition integrity findings.
type IntegrityIssueKind string

const (
	// IssueOrphanedQuestion marks a question whose ModuleRef resolves to
	// no module. Grouping drops such questions silently; submission must
	// not.
	IssueOrphanedQuestion IntegrityIssueKind = "orphaned_question"
	// IssueScoringInconsistency marks a definition whose frozen maximum
	// score is zero while scored questions exist. Respondent scoring
	// defines that case as 0%; the operator is warned at build time.
	IssueScoringInconsistency IntegrityIssueKind = "scoring_inconsistency"
	// IssueModuleOrderGap marks a module order sequence that is not a
	// dense 1..N run.
	IssueModuleOrderGap IntegrityIssueKind = "module_order_gap"
)

// IntegrityIssue is one per-entity finding from a definition check.
type IntegrityIssue struct {
	Kind        IntegrityIssueKind `json:"kind"`
	QuestionKey string             `json:"question_key,omitempty"`
	Message     string             `json:"message"`
	Blocking    bool               `json:"blocking"`
}

// IntegrityError aggregates blocking findings; it halts submission but
// leaves all local state intact.
type IntegrityError struct {
	Issues []IntegrityIssue
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("definition integrity check failed with %d issue(s)", len(e.Issues))
}

// CheckIntegrity inspects a definition for data-quality problems. Orphaned
// questions are reported per question. The returned slice contains both
// blocking issues and non-blocking warnings; BlockingIssues filters the
// former.
func CheckIntegrity(def *models.FormDefinition) []IntegrityIssue {
	var issues []IntegrityIssue

	for i := range def.Questions {
		q := &def.Questions[i]
		if q.Type == models.ServiceRecommendations {
			continue
		}
		if _, ok := def.ModuleByKey(q.ModuleRef); !ok {
			issues = append(issues, IntegrityIssue{
				Kind:        IssueOrphanedQuestion,
				QuestionKey: q.Key(),
				Message:     fmt.Sprintf("question %q references unknown module %q", q.Text, q.ModuleRef),
				Blocking:    true,
			})
		}
	}

	for i, m := range def.Modules {
		if m.Order != i+1 {
			issues = append(issues, IntegrityIssue{
				Kind:     IssueModuleOrderGap,
				Message:  fmt.Sprintf("module %q has order %d, expected %d", m.Title, m.Order, i+1),
				Blocking: true,
			})
		}
	}

	if def.MaxPossibleScore == 0 && hasScoredQuestions(def.Questions) {
		issues = append(issues, IntegrityIssue{
			Kind:     IssueScoringInconsistency,
			Message:  "maximum possible score is 0 although scored questions exist",
			Blocking: false,
		})
	}

	return issues
}

// BlockingIssues filters findings that must halt submission. A nil result
// means the definition is submittable.
func BlockingIssues(issues []IntegrityIssue) *IntegrityError {
	var blocking []IntegrityIssue
	for _, issue := range issues {
		if issue.Blocking {
			blocking = append(blocking, issue)
		}
	}
	if len(blocking) == 0 {
		return nil
	}
	return &IntegrityError{Issues: blocking}
}

func hasScoredQuestions(questions []models.Question) bool {
	for i := range questions {
		if questions[i].Type.Scored() {
			return true
		}
	}
	return false
}
