package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FormType string

const (
	FormTypeAssessment  FormType = "assessment"
	FormTypeApplication FormType = "application"
)

func (t FormType) Valid() bool {
	return t == FormTypeAssessment || t == FormTypeApplication
}

type DefinitionStatus string

const (
	DefinitionDraft     DefinitionStatus = "Draft"
	DefinitionPublished DefinitionStatus = "Published"
	DefinitionArchived  DefinitionStatus = "Archived"
)

type WelcomeScreen struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Instruction string `json:"instruction"`
}

type Module struct {
	ID          string `json:"id"`
	TempID      string `json:"temp_id,omitempty"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Order       int    `json:"order" validate:"min=1"`
}

// Key returns the module's diffing identity (server ID or client temp id).
func (m *Module) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return m.TempID
}

type ServiceRecommendation struct {
	ID          string   `json:"id,omitempty"`
	ServiceID   string   `json:"service_id" validate:"required"`
	ServiceName string   `json:"service_name" validate:"required"`
	Description string   `json:"description"`
	MinPoints   int      `json:"min_points" validate:"min=0"`
	MaxPoints   int      `json:"max_points" validate:"gtefield=MinPoints"`
	Levels      []string `json:"levels" validate:"required,min=1"`
}

// FormDefinition is the aggregate the definition store edits and the
// persistence layer stores. Modules and questions keep presentation order.
type FormDefinition struct {
	ID                     string                  `json:"id"`
	FormType               FormType                `json:"form_type" validate:"required,form_type"`
	Status                 DefinitionStatus        `json:"status"`
	WelcomeScreen          WelcomeScreen           `json:"welcome_screen"`
	Modules                []Module                `json:"modules"`
	Questions              []Question              `json:"questions"`
	ServiceRecommendations []ServiceRecommendation `json:"service_recommendations,omitempty"`

	// Frozen at save time so respondent scoring never re-derives it.
	MaxPossibleScore int `json:"max_possible_score"`
}

// Clone deep-copies the definition. Used to capture the original snapshot
// at hydrate time so diffing never aliases live slices. Nil slices stay
// nil so a clone compares equal to a definition unmarshaled from its
// stored JSON document.
func (d *FormDefinition) Clone() *FormDefinition {
	clone := *d
	clone.Modules = append([]Module(nil), d.Modules...)
	clone.ServiceRecommendations = cloneRecommendations(d.ServiceRecommendations)
	if d.Questions != nil {
		clone.Questions = make([]Question, len(d.Questions))
		for i, q := range d.Questions {
			clone.Questions[i] = *cloneQuestion(&q)
		}
	}
	return &clone
}

func cloneRecommendations(recs []ServiceRecommendation) []ServiceRecommendation {
	if recs == nil {
		return nil
	}
	out := make([]ServiceRecommendation, len(recs))
	for i, rec := range recs {
		out[i] = rec
		out[i].Levels = append([]string(nil), rec.Levels...)
	}
	return out
}

func cloneQuestion(q *Question) *Question {
	clone := *q
	clone.Options = append([]Option(nil), q.Options...)
	clone.KeywordScoring = append([]KeywordScore(nil), q.KeywordScoring...)
	clone.Columns = append([]GridColumn(nil), q.Columns...)
	clone.Rows = append([]GridRow(nil), q.Rows...)
	clone.AcceptedTypes = append([]string(nil), q.AcceptedTypes...)
	clone.Recommendations = cloneRecommendations(q.Recommendations)
	return &clone
}

// ModuleByKey resolves a question's ModuleRef against the module list.
func (d *FormDefinition) ModuleByKey(key string) (*Module, bool) {
	for i := range d.Modules {
		if d.Modules[i].Key() == key {
			return &d.Modules[i], true
		}
	}
	return nil, false
}

// FormDefinitionRecord is the gorm row backing a definition. The editable
// aggregate is stored as a JSON document; list screens only need the scalar
// columns.
type FormDefinitionRecord struct {
	ID        string           `json:"id" gorm:"primaryKey;size:36"`
	FormType  FormType         `json:"form_type" gorm:"not null;size:20;index"`
	Title     string           `json:"title" gorm:"not null;size:200;index"`
	Status    DefinitionStatus `json:"status" gorm:"default:Draft;index"`
	MaxScore  int              `json:"max_score" gorm:"not null;default:0"`
	Document  datatypes.JSON   `json:"document" gorm:"type:jsonb;not null"`
	CreatedBy string           `json:"created_by" gorm:"size:64;index"`
	Version   int              `json:"version" gorm:"default:1"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (FormDefinitionRecord) TableName() string {
	return "form_definitions"
}
