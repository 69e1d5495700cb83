package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dta-platform/assessment-engine/internal/cache"
	"github.com/dta-platform/assessment-engine/internal/engine"
	"github.com/dta-platform/assessment-engine/internal/events"
	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/google/uuid"
)

// AttemptResponse describes the wizard position after an attempt
// operation: what to render now and how far along the respondent is.
type AttemptResponse struct {
	AttemptID    string               `json:"attempt_id"`
	DefinitionID string               `json:"definition_id"`
	ModuleIndex  int                  `json:"module_index"`
	StepIndex    int                  `json:"step_index"`
	ModuleName   string               `json:"module_name,omitempty"`
	Questions    []models.Question    `json:"questions,omitempty"`
	Progress     float64              `json:"progress"`
	CanGoBack    bool                 `json:"can_go_back"`
	Completed    bool                 `json:"completed"`
	FieldResults []engine.FieldResult `json:"field_results,omitempty"`
}

// ResultResponse is the respondent-facing outcome of a completed attempt.
type ResultResponse struct {
	AttemptID       string                         `json:"attempt_id"`
	Score           int                            `json:"score"`
	MaxScore        int                            `json:"max_score"`
	Percent         int                            `json:"percent"`
	Level           string                         `json:"level"`
	Recommendations []models.ServiceRecommendation `json:"recommendations"`
}

type SubmitAnswerRequest struct {
	QuestionKey string             `json:"question_key" validate:"required"`
	Answer      models.AnswerValue `json:"answer"`
}

type AttemptService interface {
	Start(ctx context.Context, definitionID, respondentID string) (*AttemptResponse, error)
	Get(ctx context.Context, attemptID string) (*AttemptResponse, error)
	SubmitAnswer(ctx context.Context, attemptID string, req *SubmitAnswerRequest) error
	Advance(ctx context.Context, attemptID string) (*AttemptResponse, error)
	Back(ctx context.Context, attemptID string) (*AttemptResponse, error)
	Result(ctx context.Context, attemptID string) (*ResultResponse, error)
	Stats(ctx context.Context, definitionID string) (*repositories.AttemptStats, error)
}

type attemptService struct {
	repo      repositories.Repository
	sessions  cache.SessionStore
	logger    *slog.Logger
	remote    RemoteValidator
	publisher events.EventPublisher
}

func NewAttemptService(
	repo repositories.Repository,
	sessions cache.SessionStore,
	logger *slog.Logger,
	remote RemoteValidator,
	publisher events.EventPublisher,
) AttemptService {
	return &attemptService{
		repo:      repo,
		sessions:  sessions,
		logger:    logger,
		remote:    remote,
		publisher: publisher,
	}
}

func (s *attemptService) Start(ctx context.Context, definitionID, respondentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting attempt", "definition_id", definitionID, "respondent_id", respondentID)

	def, err := s.loadPublishedDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	groups := engine.Group(def.Questions, def.Modules)
	wizard, err := engine.NewWizard(groups)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}

	attempt := &models.AssessmentAttempt{
		ID:           uuid.NewString(),
		DefinitionID: definitionID,
		RespondentID: respondentID,
		Status:       models.AttemptInProgress,
		MaxScore:     def.MaxPossibleScore,
		StartedAt:    time.Now().UTC(),
	}
	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	session := &models.WizardSession{
		AttemptID:    attempt.ID,
		DefinitionID: definitionID,
		RespondentID: respondentID,
		Responses:    models.ResponseMap{},
		StartedAt:    attempt.StartedAt,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save wizard session: %w", err)
	}

	event := events.NewAssessmentEvent(events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID:    attempt.ID,
		DefinitionID: definitionID,
		RespondentID: respondentID,
	})
	if err := s.publisher.PublishAssessmentEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt started event", "attempt_id", attempt.ID, "error", err)
	}

	return buildAttemptResponse(session, groups, wizard), nil
}

func (s *attemptService) Get(ctx context.Context, attemptID string) (*AttemptResponse, error) {
	state, err := s.loadSession(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	return buildAttemptResponse(state.session, state.groups, state.wizard), nil
}

// SubmitAnswer records one answer into the session's response map. Answers
// accumulate unvalidated; validation happens when an advance is attempted.
func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID string, req *SubmitAnswerRequest) error {
	state, err := s.loadSession(ctx, attemptID)
	if err != nil {
		return err
	}
	if state.wizard.Completed() {
		return ErrAttemptCompleted
	}

	state.session.Responses[req.QuestionKey] = req.Answer
	if err := s.sessions.Save(ctx, state.session); err != nil {
		return fmt.Errorf("failed to save wizard session: %w", err)
	}
	return nil
}

// Advance validates the current step and moves the wizard forward. The step
// must clear the local gate, the independent null-scan, and the remote
// validation pass before the transition fires; the terminal transition
// scores the attempt.
func (s *attemptService) Advance(ctx context.Context, attemptID string) (*AttemptResponse, error) {
	state, err := s.loadSession(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if state.wizard.Completed() {
		return nil, ErrAttemptCompleted
	}

	stepQuestions := state.wizard.CurrentQuestions()

	results := engine.ValidateStep(stepQuestions, state.session.Responses)
	if !engine.StepValid(results) {
		resp := buildAttemptResponse(state.session, state.groups, state.wizard)
		resp.FieldResults = results
		return resp, ErrStepInvalid
	}

	// The gate can pass a step whose answer never arrived at all; never
	// advance over a null response.
	if engine.HasNullResponses(stepQuestions, state.session.Responses) {
		return nil, ErrStepIncomplete
	}

	if err := s.validateRemotely(ctx, state, stepQuestions); err != nil {
		return nil, err
	}

	done, err := state.wizard.Next()
	if err != nil {
		return nil, err
	}
	if done {
		return s.complete(ctx, state)
	}

	state.session.ModuleIndex = state.wizard.ModuleIndex
	state.session.StepIndex = state.wizard.StepIndex
	if err := s.sessions.Save(ctx, state.session); err != nil {
		return nil, fmt.Errorf("failed to save wizard session: %w", err)
	}
	return buildAttemptResponse(state.session, state.groups, state.wizard), nil
}

func (s *attemptService) Back(ctx context.Context, attemptID string) (*AttemptResponse, error) {
	state, err := s.loadSession(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := state.wizard.Back(); err != nil {
		return nil, err
	}

	state.session.ModuleIndex = state.wizard.ModuleIndex
	state.session.StepIndex = state.wizard.StepIndex
	if err := s.sessions.Save(ctx, state.session); err != nil {
		return nil, fmt.Errorf("failed to save wizard session: %w", err)
	}
	return buildAttemptResponse(state.session, state.groups, state.wizard), nil
}

func (s *attemptService) Result(ctx context.Context, attemptID string) (*ResultResponse, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.Status != models.AttemptCompleted {
		return nil, ErrAttemptNotFound
	}

	matches, err := attempt.GetMatches()
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []models.ServiceRecommendation{}
	}

	return &ResultResponse{
		AttemptID:       attempt.ID,
		Score:           attempt.Score,
		MaxScore:        attempt.MaxScore,
		Percent:         attempt.Percent,
		Level:           attempt.Level,
		Recommendations: matches,
	}, nil
}

// Stats aggregates attempt counts and average scores for a definition.
func (s *attemptService) Stats(ctx context.Context, definitionID string) (*repositories.AttemptStats, error) {
	if _, err := s.repo.Definition().GetRecord(ctx, definitionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("failed to get definition record: %w", err)
	}

	stats, err := s.repo.Attempt().GetStats(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt stats: %w", err)
	}
	return stats, nil
}

// complete runs the terminal transition: score against the definition's
// frozen maximum, resolve recommendations, persist the attempt, drop the
// session. A failed persistence call keeps the session at its position and
// clears the pending flag so the respondent can retry the final advance.
func (s *attemptService) complete(ctx context.Context, state *attemptState) (*AttemptResponse, error) {
	if err := state.wizard.BeginSubmission(); err != nil {
		return nil, ErrSubmissionPending
	}
	defer state.wizard.EndSubmission()

	// The wizard guard only covers this request; the session flag covers
	// concurrent requests that each restored their own wizard.
	if state.session.SubmissionPending {
		return nil, ErrSubmissionPending
	}
	state.session.SubmissionPending = true
	if err := s.sessions.Save(ctx, state.session); err != nil {
		return nil, fmt.Errorf("failed to save wizard session: %w", err)
	}
	submitted := false
	defer func() {
		if submitted {
			return
		}
		state.session.SubmissionPending = false
		if err := s.sessions.Save(ctx, state.session); err != nil {
			s.logger.Warn("Failed to clear pending submission flag", "attempt_id", state.session.AttemptID, "error", err)
		}
	}()

	result := engine.Score(state.definition.Questions, state.session.Responses, state.definition.MaxPossibleScore)
	matches := engine.Resolve(result.Score, result.Level, state.definition.ServiceRecommendations)

	attempt, err := s.repo.Attempt().GetByID(ctx, state.session.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	attempt.Status = models.AttemptCompleted
	attempt.Score = result.Score
	attempt.MaxScore = result.MaxPossibleScore
	attempt.Percent = result.Percent
	attempt.Level = result.Level
	now := time.Now().UTC()
	attempt.CompletedAt = &now
	if err := attempt.SetResponses(state.session.Responses); err != nil {
		return nil, err
	}
	if err := attempt.SetMatches(matches); err != nil {
		return nil, err
	}

	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionFailed, err.Error())
	}
	submitted = true

	if err := s.sessions.Delete(ctx, state.session.AttemptID); err != nil {
		s.logger.Warn("Failed to drop completed session", "attempt_id", state.session.AttemptID, "error", err)
	}

	serviceIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		serviceIDs = append(serviceIDs, m.ServiceID)
	}
	event := events.NewAssessmentEvent(events.EventAttemptScored, events.AttemptScoredEvent{
		AttemptID:       state.session.AttemptID,
		DefinitionID:    state.session.DefinitionID,
		RespondentID:    state.session.RespondentID,
		Score:           result.Score,
		MaxScore:        result.MaxPossibleScore,
		Percent:         result.Percent,
		Level:           result.Level,
		MatchedServices: serviceIDs,
	})
	if err := s.publisher.PublishAssessmentEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt scored event", "attempt_id", state.session.AttemptID, "error", err)
	}

	s.logger.Info("Attempt scored",
		"attempt_id", state.session.AttemptID,
		"score", result.Score,
		"percent", result.Percent,
		"level", result.Level,
		"matches", len(matches))

	state.session.Completed = true
	return buildAttemptResponse(state.session, state.groups, state.wizard), nil
}

func (s *attemptService) validateRemotely(ctx context.Context, state *attemptState, stepQuestions []models.Question) error {
	fields := make([]models.RemoteValidationField, 0, len(stepQuestions))
	for i := range stepQuestions {
		key := stepQuestions[i].Key()
		answer, _ := state.session.Responses.Get(key)
		fields = append(fields, models.RemoteValidationField{
			QuestionIdentifier: key,
			Value:              answer,
		})
	}

	resp, err := s.remote.Validate(ctx, &models.RemoteValidationRequest{
		FormID:   state.session.DefinitionID,
		FormType: state.definition.FormType,
		Fields:   fields,
	})
	if err != nil {
		return fmt.Errorf("remote validation failed: %w", err)
	}
	if !resp.IsValid {
		return ErrStepInvalid
	}
	return nil
}

func (s *attemptService) loadPublishedDefinition(ctx context.Context, definitionID string) (*models.FormDefinition, error) {
	record, err := s.repo.Definition().GetRecord(ctx, definitionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("failed to get definition record: %w", err)
	}
	if record.Status != models.DefinitionPublished {
		return nil, ErrDefinitionNotPublished
	}

	def, err := s.repo.Definition().GetByID(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}
	return def, nil
}

// attemptState bundles everything an attempt operation needs: the cached
// session, the definition it runs against, and the wizard restored at the
// session's position.
type attemptState struct {
	session    *models.WizardSession
	definition *models.FormDefinition
	groups     []engine.ModuleGroup
	wizard     *engine.Wizard
}

func (s *attemptService) loadSession(ctx context.Context, attemptID string) (*attemptState, error) {
	session, err := s.sessions.Get(ctx, attemptID)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	def, err := s.repo.Definition().GetByID(ctx, session.DefinitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}

	groups := engine.Group(def.Questions, def.Modules)
	wizard, err := engine.Restore(groups, session.ModuleIndex, session.StepIndex, session.Completed)
	if err != nil {
		return nil, fmt.Errorf("failed to restore wizard: %w", err)
	}
	return &attemptState{session: session, definition: def, groups: groups, wizard: wizard}, nil
}

func buildAttemptResponse(session *models.WizardSession, groups []engine.ModuleGroup, wizard *engine.Wizard) *AttemptResponse {
	resp := &AttemptResponse{
		AttemptID:    session.AttemptID,
		DefinitionID: session.DefinitionID,
		ModuleIndex:  wizard.ModuleIndex,
		StepIndex:    wizard.StepIndex,
		Progress:     wizard.Progress(),
		CanGoBack:    wizard.CanGoBack(),
		Completed:    wizard.Completed(),
	}
	if !wizard.Completed() {
		resp.ModuleName = groups[wizard.ModuleIndex].ModuleName
		resp.Questions = wizard.CurrentQuestions()
	}
	return resp
}
