package engine

import (
	"fmt"
	"sort"

	"github.com/dta-platform/assessment-engine/internal/models"
)

// DefinitionStore owns the editable definition state for one operator
// session: the live definition plus the original snapshot captured at
// hydrate time. All mutations are synchronous; there is no background
// mutation source, so a single mutex-free writer is sufficient.
//
// Entities removed from the live definition that existed in the original
// snapshot are tracked by id so an update submission can instruct the
// collaborator to delete them server-side.
type DefinitionStore struct {
	live     *models.FormDefinition
	original *models.FormDefinition

	deletedQuestions       []string
	deletedModules         []string
	deletedRecommendations []string
}

// NewDefinitionStore creates an empty store for a new definition.
func NewDefinitionStore(formType models.FormType) *DefinitionStore {
	return &DefinitionStore{
		live: &models.FormDefinition{
			FormType: formType,
			Status:   models.DefinitionDraft,
		},
	}
}

// Hydrate loads a persisted definition for editing, capturing a deep-copied
// snapshot as the diff baseline.
func Hydrate(def *models.FormDefinition) *DefinitionStore {
	return &DefinitionStore{
		live:     def.Clone(),
		original: def.Clone(),
	}
}

// Definition returns the live definition.
func (s *DefinitionStore) Definition() *models.FormDefinition {
	return s.live
}

// Original returns the snapshot captured at hydrate time, nil for a new
// definition.
func (s *DefinitionStore) Original() *models.FormDefinition {
	return s.original
}

// IsUpdate reports whether the store edits a previously persisted
// definition.
func (s *DefinitionStore) IsUpdate() bool {
	return s.original != nil
}

// Clear drops all editable state. Called after a successful submission or
// when the operator navigates away.
func (s *DefinitionStore) Clear() {
	formType := s.live.FormType
	s.live = &models.FormDefinition{FormType: formType, Status: models.DefinitionDraft}
	s.original = nil
	s.deletedQuestions = nil
	s.deletedModules = nil
	s.deletedRecommendations = nil
}

func (s *DefinitionStore) SetWelcomeScreen(ws models.WelcomeScreen) {
	s.live.WelcomeScreen = ws
}

// ===== MODULES =====

// AddModule appends a module, assigning the next dense order position.
func (s *DefinitionStore) AddModule(m models.Module) {
	m.Order = len(s.live.Modules) + 1
	s.live.Modules = append(s.live.Modules, m)
}

func (s *DefinitionStore) UpdateModule(key string, title, description string) error {
	for i := range s.live.Modules {
		if s.live.Modules[i].Key() == key {
			s.live.Modules[i].Title = title
			s.live.Modules[i].Description = description
			return nil
		}
	}
	return fmt.Errorf("module %s not found", key)
}

// RemoveModule deletes a module and renumbers the remainder so order stays
// a dense 1..N sequence. A module persisted in the original snapshot is
// recorded for server-side deletion.
func (s *DefinitionStore) RemoveModule(key string) error {
	idx := -1
	for i := range s.live.Modules {
		if s.live.Modules[i].Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("module %s not found", key)
	}
	removed := s.live.Modules[idx]
	s.live.Modules = append(s.live.Modules[:idx], s.live.Modules[idx+1:]...)
	for i := range s.live.Modules {
		s.live.Modules[i].Order = i + 1
	}
	if removed.ID != "" && s.existedInOriginalModule(removed.ID) {
		s.deletedModules = append(s.deletedModules, removed.ID)
	}
	return nil
}

// ===== QUESTIONS =====

// AddQuestion appends a question in Editing state and refreshes the frozen
// max score.
func (s *DefinitionStore) AddQuestion(q models.Question) error {
	if !q.Type.Valid() {
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	q.EditState = models.EditStateEditing
	q.Order = len(s.live.Questions)
	s.live.Questions = append(s.live.Questions, q)
	s.refreshMaxScore()
	return nil
}

// UpdateQuestion replaces a question's editable fields while preserving its
// stable identity: the existing ID and server correlation key survive the
// edit.
func (s *DefinitionStore) UpdateQuestion(key string, updated models.Question) error {
	for i := range s.live.Questions {
		if s.live.Questions[i].Key() != key {
			continue
		}
		updated.ID = s.live.Questions[i].ID
		updated.TempID = s.live.Questions[i].TempID
		updated.Order = s.live.Questions[i].Order
		s.live.Questions[i] = updated
		s.refreshMaxScore()
		return nil
	}
	return fmt.Errorf("question %s not found", key)
}

// RemoveQuestion deletes a question through the generic remove action.
// Recommendation pseudo-questions are not deletable this way; their
// capability flag routes removal through RemoveServiceRecommendation.
func (s *DefinitionStore) RemoveQuestion(key string) error {
	for i := range s.live.Questions {
		if s.live.Questions[i].Key() != key {
			continue
		}
		if !s.live.Questions[i].Type.Deletable() {
			return fmt.Errorf("question %s cannot be removed directly", key)
		}
		removed := s.live.Questions[i]
		s.live.Questions = append(s.live.Questions[:i], s.live.Questions[i+1:]...)
		for j := range s.live.Questions {
			s.live.Questions[j].Order = j
		}
		if removed.ID != "" && s.existedInOriginalQuestion(removed.ID) {
			s.deletedQuestions = append(s.deletedQuestions, removed.ID)
		}
		s.refreshMaxScore()
		return nil
	}
	return fmt.Errorf("question %s not found", key)
}

// SaveQuestion runs the Editing -> Saved transition.
func (s *DefinitionStore) SaveQuestion(key string) error {
	q, err := s.findQuestion(key)
	if err != nil {
		return err
	}
	return q.Save()
}

// EditQuestion runs the Saved -> Editing transition.
func (s *DefinitionStore) EditQuestion(key string) error {
	q, err := s.findQuestion(key)
	if err != nil {
		return err
	}
	return q.Edit()
}

// RemoveQuestionOption drops one option from a choice question and
// re-letters the rest.
func (s *DefinitionStore) RemoveQuestionOption(key string, optionIndex int) error {
	q, err := s.findQuestion(key)
	if err != nil {
		return err
	}
	switch q.Type {
	case models.MultipleChoice, models.Checkbox, models.Dropdown:
	default:
		return fmt.Errorf("question %s of type %s has no options", key, q.Type)
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return fmt.Errorf("option index %d out of range", optionIndex)
	}
	q.Options = models.RemoveOption(q.Options, optionIndex)
	s.refreshMaxScore()
	return nil
}

// ===== SERVICE RECOMMENDATIONS =====

func (s *DefinitionStore) AddServiceRecommendation(rec models.ServiceRecommendation) error {
	if rec.MaxPoints < rec.MinPoints {
		return fmt.Errorf("recommendation %s: max_points below min_points", rec.ServiceName)
	}
	if len(rec.Levels) == 0 {
		return fmt.Errorf("recommendation %s: levels must not be empty", rec.ServiceName)
	}
	s.live.ServiceRecommendations = append(s.live.ServiceRecommendations, rec)
	return nil
}

func (s *DefinitionStore) UpdateServiceRecommendation(id string, rec models.ServiceRecommendation) error {
	for i := range s.live.ServiceRecommendations {
		if s.live.ServiceRecommendations[i].ID == id || s.live.ServiceRecommendations[i].ServiceID == id {
			rec.ID = s.live.ServiceRecommendations[i].ID
			s.live.ServiceRecommendations[i] = rec
			return nil
		}
	}
	return fmt.Errorf("service recommendation %s not found", id)
}

func (s *DefinitionStore) RemoveServiceRecommendation(id string) error {
	for i := range s.live.ServiceRecommendations {
		rec := s.live.ServiceRecommendations[i]
		if rec.ID != id && rec.ServiceID != id {
			continue
		}
		s.live.ServiceRecommendations = append(
			s.live.ServiceRecommendations[:i], s.live.ServiceRecommendations[i+1:]...)
		if rec.ID != "" && s.existedInOriginalRecommendation(rec.ID) {
			s.deletedRecommendations = append(s.deletedRecommendations, rec.ID)
		}
		return nil
	}
	return fmt.Errorf("service recommendation %s not found", id)
}

// ===== DELETION TRACKING =====

func (s *DefinitionStore) DeletedQuestionIDs() []string {
	return sortedCopy(s.deletedQuestions)
}

func (s *DefinitionStore) DeletedModuleIDs() []string {
	return sortedCopy(s.deletedModules)
}

func (s *DefinitionStore) DeletedRecommendationIDs() []string {
	return sortedCopy(s.deletedRecommendations)
}

// ===== INTERNAL =====

func (s *DefinitionStore) findQuestion(key string) (*models.Question, error) {
	for i := range s.live.Questions {
		if s.live.Questions[i].Key() == key {
			return &s.live.Questions[i], nil
		}
	}
	return nil, fmt.Errorf("question %s not found", key)
}

// refreshMaxScore freezes the maximum attainable score on the definition.
// Re-computed on every scoring-relevant mutation so it is always current at
// save time.
func (s *DefinitionStore) refreshMaxScore() {
	s.live.MaxPossibleScore = MaxPossibleScore(s.live.Questions)
}

func (s *DefinitionStore) existedInOriginalQuestion(id string) bool {
	if s.original == nil {
		return false
	}
	for i := range s.original.Questions {
		if s.original.Questions[i].ID == id {
			return true
		}
	}
	return false
}

func (s *DefinitionStore) existedInOriginalModule(id string) bool {
	if s.original == nil {
		return false
	}
	for i := range s.original.Modules {
		if s.original.Modules[i].ID == id {
			return true
		}
	}
	return false
}

func (s *DefinitionStore) existedInOriginalRecommendation(id string) bool {
	if s.original == nil {
		return false
	}
	for i := range s.original.ServiceRecommendations {
		if s.original.ServiceRecommendations[i].ID == id {
			return true
		}
	}
	return false
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
