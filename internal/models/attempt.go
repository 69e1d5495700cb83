package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AnswerValue holds one respondent answer. Exactly one field is set,
// matching the question type: Text for text/choice/dropdown answers,
// Selections for checkbox, Grid (rowID -> columnID) for grids, Files for
// uploads.
type AnswerValue struct {
	Text       *string           `json:"text,omitempty"`
	Selections []string          `json:"selections,omitempty"`
	Grid       map[string]string `json:"grid,omitempty"`
	Files      []string          `json:"files,omitempty"`
}

func TextAnswer(text string) AnswerValue {
	return AnswerValue{Text: &text}
}

func SelectionAnswer(labels ...string) AnswerValue {
	return AnswerValue{Selections: labels}
}

func GridAnswer(cells map[string]string) AnswerValue {
	return AnswerValue{Grid: cells}
}

// Empty reports whether the answer carries no usable value.
func (v AnswerValue) Empty() bool {
	if v.Text != nil && *v.Text != "" {
		return false
	}
	return len(v.Selections) == 0 && len(v.Grid) == 0 && len(v.Files) == 0
}

// ResponseMap accumulates answers keyed by question identity as the wizard
// advances. It is never partially validated until a step advance is
// attempted.
type ResponseMap map[string]AnswerValue

func (r ResponseMap) Get(questionKey string) (AnswerValue, bool) {
	v, ok := r[questionKey]
	return v, ok
}

type MaturityBand struct {
	Level      string `json:"level"`
	MinPercent int    `json:"min_percent"`
	MaxPercent int    `json:"max_percent"`
}

// DefaultMaturityBands classifies respondents by score percentage.
var DefaultMaturityBands = []MaturityBand{
	{Level: "Beginner", MinPercent: 0, MaxPercent: 25},
	{Level: "Emerging", MinPercent: 26, MaxPercent: 50},
	{Level: "Established", MinPercent: 51, MaxPercent: 75},
	{Level: "Expert", MinPercent: 76, MaxPercent: 100},
}

// MaturityLevelFor maps a score percentage onto its band label.
func MaturityLevelFor(percent int) string {
	for _, band := range DefaultMaturityBands {
		if percent >= band.MinPercent && percent <= band.MaxPercent {
			return band.Level
		}
	}
	return DefaultMaturityBands[0].Level
}

type ScoreResult struct {
	Score            int            `json:"score"`
	MaxPossibleScore int            `json:"max_possible_score"`
	Percent          int            `json:"percent"`
	Level            string         `json:"level"`
	Contributions    map[string]int `json:"contributions,omitempty"`
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "InProgress"
	AttemptCompleted  AttemptStatus = "Completed"
	AttemptAbandoned  AttemptStatus = "Abandoned"
)

// AssessmentAttempt is the persisted outcome of a wizard session.
type AssessmentAttempt struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	DefinitionID string         `json:"definition_id" gorm:"not null;size:36;index"`
	RespondentID string         `json:"respondent_id" gorm:"size:64;index"`
	Status       AttemptStatus  `json:"status" gorm:"default:InProgress;index"`
	Responses    datatypes.JSON `json:"responses" gorm:"type:jsonb"`
	Score        int            `json:"score"`
	MaxScore     int            `json:"max_score"`
	Percent      int            `json:"percent"`
	Level        string         `json:"level" gorm:"size:40"`
	Matches      datatypes.JSON `json:"matches" gorm:"type:jsonb"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`
}

func (AssessmentAttempt) TableName() string {
	return "assessment_attempts"
}

// SetResponses serializes the response map into the attempt row.
func (a *AssessmentAttempt) SetResponses(responses ResponseMap) error {
	raw, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to marshal responses: %w", err)
	}
	a.Responses = raw
	return nil
}

// GetResponses deserializes the stored response map.
func (a *AssessmentAttempt) GetResponses() (ResponseMap, error) {
	if len(a.Responses) == 0 {
		return ResponseMap{}, nil
	}
	var responses ResponseMap
	if err := json.Unmarshal(a.Responses, &responses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal responses: %w", err)
	}
	return responses, nil
}

// SetMatches serializes the matched recommendations into the attempt row.
func (a *AssessmentAttempt) SetMatches(matches []ServiceRecommendation) error {
	raw, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}
	a.Matches = raw
	return nil
}

// GetMatches deserializes the stored recommendation matches.
func (a *AssessmentAttempt) GetMatches() ([]ServiceRecommendation, error) {
	if len(a.Matches) == 0 {
		return nil, nil
	}
	var matches []ServiceRecommendation
	if err := json.Unmarshal(a.Matches, &matches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matches: %w", err)
	}
	return matches, nil
}

// WizardSession is the cached respondent session: which definition the
// respondent is answering, where the wizard stands, and what has been
// answered so far. Stored in Redis keyed by attempt id.
type WizardSession struct {
	AttemptID       string      `json:"attempt_id"`
	DefinitionID    string      `json:"definition_id"`
	RespondentID    string      `json:"respondent_id"`
	AssessmentIndex int         `json:"assessment_index"`
	ModuleIndex     int         `json:"module_index"`
	StepIndex       int         `json:"step_index"`
	Completed       bool        `json:"completed"`
	// SubmissionPending marks a terminal submission in flight. It lives on
	// the cached session so a concurrent request, served with its own wizard
	// instance, still sees the prior submission.
	SubmissionPending bool `json:"submission_pending"`
	Responses       ResponseMap `json:"responses"`
	StartedAt       time.Time   `json:"started_at"`
}
