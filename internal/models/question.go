package models

import (
	"fmt"
	"sort"
)

type QuestionType string

const (
	MultipleChoice         QuestionType = "multiple_choice"
	Checkbox               QuestionType = "checkbox"
	Dropdown               QuestionType = "dropdown"
	ShortText              QuestionType = "short_text"
	LongText               QuestionType = "long_text"
	MultipleChoiceGrid     QuestionType = "multiple_choice_grid"
	FileUpload             QuestionType = "file_upload"
	ServiceRecommendations QuestionType = "service_recommendations"
)

// AllQuestionTypes lists every supported variant in a stable order.
var AllQuestionTypes = []QuestionType{
	MultipleChoice,
	Checkbox,
	Dropdown,
	ShortText,
	LongText,
	MultipleChoiceGrid,
	FileUpload,
	ServiceRecommendations,
}

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, Checkbox, Dropdown, ShortText, LongText,
		MultipleChoiceGrid, FileUpload, ServiceRecommendations:
		return true
	}
	return false
}

// Scored reports whether answers to this type contribute points.
func (t QuestionType) Scored() bool {
	switch t {
	case FileUpload, ServiceRecommendations:
		return false
	}
	return t.Valid()
}

// Deletable reports whether the generic remove action may delete a question
// of this type. Recommendation pseudo-questions are managed through the
// service recommendation actions only.
func (t QuestionType) Deletable() bool {
	return t != ServiceRecommendations
}

// Persisted reports whether the question belongs in the submitted question
// list. Recommendation pseudo-questions are carried as a top-level
// service_recommendations array instead.
func (t QuestionType) Persisted() bool {
	return t != ServiceRecommendations
}

// EditState is the per-question editor state machine.
type EditState string

const (
	EditStateEditing EditState = "editing"
	EditStateSaved   EditState = "saved"
)

type Option struct {
	Label       string `json:"label" validate:"required"`
	Description string `json:"description"`
	PointValue  int    `json:"point_value" validate:"min=0"`
}

type GridColumn struct {
	ID         string `json:"id" validate:"required"`
	Text       string `json:"text" validate:"required"`
	PointValue *int   `json:"point_value,omitempty"`
}

type GridRow struct {
	ID     string `json:"id" validate:"required"`
	Text   string `json:"text" validate:"required"`
	Weight *int   `json:"weight,omitempty"`
}

type KeywordScore struct {
	Keyword string `json:"keyword" validate:"required"`
	Points  int    `json:"points" validate:"min=0"`
}

// Question is the tagged union over the eight supported variants. Only the
// field group matching Type is meaningful; every dispatch over Type must be
// an exhaustive switch that fails loudly on an unknown variant.
type Question struct {
	ID          string       `json:"id"`
	TempID      string       `json:"temp_id,omitempty"`
	Type        QuestionType `json:"type" validate:"required,question_type"`
	Order       int          `json:"order" validate:"min=0"`
	Text        string       `json:"text" validate:"required"`
	Description string       `json:"description"`
	Instruction string       `json:"instruction,omitempty"`
	ModuleRef   string       `json:"module_ref"`
	Step        int          `json:"step" validate:"min=0"`
	IsRequired  bool         `json:"is_required"`
	EditState   EditState    `json:"edit_state,omitempty"`

	// multiple_choice / checkbox / dropdown
	Options       []Option `json:"options,omitempty"`
	MinSelections *int     `json:"min_selections,omitempty"`
	MaxSelections *int     `json:"max_selections,omitempty"`

	// short_text / long_text / dropdown placeholder
	Placeholder      string         `json:"placeholder,omitempty"`
	MinLength        *int           `json:"min_length,omitempty"`
	MaxLength        *int           `json:"max_length,omitempty"`
	CompletionPoints *int           `json:"completion_points,omitempty"`
	KeywordScoring   []KeywordScore `json:"keyword_scoring,omitempty"`

	// multiple_choice_grid
	Columns []GridColumn `json:"grid_columns,omitempty"`
	Rows    []GridRow    `json:"grid_rows,omitempty"`

	// file_upload
	AcceptedTypes     []string `json:"accepted_file_types,omitempty"`
	MaxFileSizeMB     *int     `json:"max_file_size,omitempty"`
	MaxFiles          *int     `json:"max_files,omitempty"`
	UploadInstruction string   `json:"upload_instruction,omitempty"`

	// service_recommendations
	Recommendations []ServiceRecommendation `json:"recommendations,omitempty"`
}

// Key returns the stable identity used for diffing: the server-assigned ID
// when present, the client temp id otherwise.
func (q *Question) Key() string {
	if q.ID != "" {
		return q.ID
	}
	return q.TempID
}

// Save transitions the editor state machine Editing -> Saved.
func (q *Question) Save() error {
	if q.EditState == EditStateSaved {
		return fmt.Errorf("question %s already saved", q.Key())
	}
	q.EditState = EditStateSaved
	return nil
}

// Edit transitions the editor state machine Saved -> Editing.
func (q *Question) Edit() error {
	if q.EditState == EditStateEditing {
		return fmt.Errorf("question %s already being edited", q.Key())
	}
	q.EditState = EditStateEditing
	return nil
}

// optionLabel yields A, B, ... Z, AA, AB, ... for position i.
func optionLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}

// ReletterOptions rewrites option labels so they are contiguous letters in
// the options' current relative order. Called after any option removal or
// reorder so labels stay A..N with no gaps.
func ReletterOptions(options []Option) []Option {
	for i := range options {
		options[i].Label = optionLabel(i)
	}
	return options
}

// RemoveOption deletes the option at index i and re-letters the remainder.
func RemoveOption(options []Option, i int) []Option {
	if i < 0 || i >= len(options) {
		return options
	}
	options = append(options[:i], options[i+1:]...)
	return ReletterOptions(options)
}

// MaxContribution is the highest score a fully favourable answer to q can
// earn. Computed at definition save time and frozen on the definition.
func (q *Question) MaxContribution() int {
	switch q.Type {
	case MultipleChoice, Dropdown:
		max := 0
		for _, opt := range q.Options {
			if opt.PointValue > max {
				max = opt.PointValue
			}
		}
		return max
	case Checkbox:
		// Positive options up to the selection cap, best-first.
		points := make([]int, 0, len(q.Options))
		for _, opt := range q.Options {
			if opt.PointValue > 0 {
				points = append(points, opt.PointValue)
			}
		}
		sort.Sort(sort.Reverse(sort.IntSlice(points)))
		limit := len(points)
		if q.MaxSelections != nil && *q.MaxSelections < limit {
			limit = *q.MaxSelections
		}
		total := 0
		for _, p := range points[:limit] {
			total += p
		}
		return total
	case MultipleChoiceGrid:
		best := 0
		for _, col := range q.Columns {
			if col.PointValue != nil && *col.PointValue > best {
				best = *col.PointValue
			}
		}
		total := 0
		for _, row := range q.Rows {
			weight := 1
			if row.Weight != nil {
				weight = *row.Weight
			}
			total += best * weight
		}
		return total
	case ShortText:
		if q.CompletionPoints != nil {
			return *q.CompletionPoints
		}
		return 0
	case LongText:
		total := 0
		if q.CompletionPoints != nil {
			total = *q.CompletionPoints
		}
		for _, ks := range q.KeywordScoring {
			total += ks.Points
		}
		return total
	case FileUpload, ServiceRecommendations:
		return 0
	}
	return 0
}
