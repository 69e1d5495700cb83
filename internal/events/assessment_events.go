package events

import (
	"time"

	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/google/uuid"
)

// EventType represents the assessment lifecycle events downstream
// consumers subscribe to.
type EventType string

const (
	// Definition events
	EventDefinitionPublished EventType = "definition.published"
	EventDefinitionArchived  EventType = "definition.archived"

	// Attempt events
	EventAttemptStarted EventType = "attempt.started"
	EventAttemptScored  EventType = "attempt.scored"
)

// AssessmentEvent is the envelope for all published events.
type AssessmentEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewAssessmentEvent builds the envelope around an event payload.
func NewAssessmentEvent(eventType EventType, data interface{}) *AssessmentEvent {
	return &AssessmentEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "assessment-engine",
		Version:   "1.0",
		Data:      data,
	}
}

// Event payloads

type DefinitionPublishedEvent struct {
	DefinitionID string          `json:"definition_id"`
	FormType     models.FormType `json:"form_type"`
	Title        string          `json:"title"`
	MaxScore     int             `json:"max_score"`
	PublishedBy  string          `json:"published_by"`
}

type DefinitionArchivedEvent struct {
	DefinitionID string    `json:"definition_id"`
	ArchivedAt   time.Time `json:"archived_at"`
}

type AttemptStartedEvent struct {
	AttemptID    string `json:"attempt_id"`
	DefinitionID string `json:"definition_id"`
	RespondentID string `json:"respondent_id"`
}

type AttemptScoredEvent struct {
	AttemptID       string   `json:"attempt_id"`
	DefinitionID    string   `json:"definition_id"`
	RespondentID    string   `json:"respondent_id"`
	Score           int      `json:"score"`
	MaxScore        int      `json:"max_score"`
	Percent         int      `json:"percent"`
	Level           string   `json:"level"`
	MatchedServices []string `json:"matched_services"`
}
