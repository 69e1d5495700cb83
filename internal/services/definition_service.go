package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dta-platform/assessment-engine/internal/engine"
	"github.com/dta-platform/assessment-engine/internal/events"
	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/dta-platform/assessment-engine/internal/validator"
)

// SaveDefinitionRequest carries the full editable definition from the
// operator surface. The same shape serves create and update.
type SaveDefinitionRequest struct {
	FormType               models.FormType                `json:"form_type" validate:"required,form_type"`
	WelcomeScreen          models.WelcomeScreen           `json:"welcome_screen" validate:"required"`
	Modules                []models.Module                `json:"modules" validate:"required,min=1,dive"`
	Questions              []models.Question              `json:"questions" validate:"dive"`
	ServiceRecommendations []models.ServiceRecommendation `json:"service_recommendations" validate:"dive"`
}

// DefinitionResponse is returned from create/update: the stored record,
// the exact submission payload produced for the persistence collaborator,
// and any non-blocking integrity warnings for the operator.
type DefinitionResponse struct {
	Record   *models.FormDefinitionRecord `json:"record"`
	Payload  *models.SubmissionPayload    `json:"payload"`
	Warnings []engine.IntegrityIssue      `json:"warnings,omitempty"`
}

// DefinitionListResponse is a paged list of definition records.
type DefinitionListResponse struct {
	Definitions []*models.FormDefinitionRecord `json:"definitions"`
	Total       int64                          `json:"total"`
}

// PreviewResponse is the respondent-facing grouped tree plus integrity
// findings, for operator preview before publishing.
type PreviewResponse struct {
	Groups []engine.ModuleGroup    `json:"groups"`
	Issues []engine.IntegrityIssue `json:"issues,omitempty"`
}

type DefinitionService interface {
	Create(ctx context.Context, req *SaveDefinitionRequest, createdBy string) (*DefinitionResponse, error)
	Update(ctx context.Context, id string, req *SaveDefinitionRequest) (*DefinitionResponse, error)
	GetByID(ctx context.Context, id string) (*models.FormDefinition, error)
	List(ctx context.Context, filters repositories.DefinitionFilters) (*DefinitionListResponse, error)
	Publish(ctx context.Context, id string, publishedBy string) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Preview(ctx context.Context, id string) (*PreviewResponse, error)
}

type definitionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewDefinitionService(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	publisher events.EventPublisher,
) DefinitionService {
	return &definitionService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

func (s *definitionService) Create(ctx context.Context, req *SaveDefinitionRequest, createdBy string) (*DefinitionResponse, error) {
	s.logger.Info("Creating form definition",
		"form_type", req.FormType,
		"created_by", createdBy,
		"modules", len(req.Modules),
		"questions", len(req.Questions))

	store, err := s.buildStore(engine.NewDefinitionStore(req.FormType), req)
	if err != nil {
		return nil, err
	}

	def := store.Definition()
	issues := engine.CheckIntegrity(def)
	if blocking := engine.BlockingIssues(issues); blocking != nil {
		return nil, fmt.Errorf("%w: %s", ErrDefinitionIntegrity, blocking.Error())
	}

	payload := engine.BuildCreatePayload(def)

	record, err := s.repo.Definition().Create(ctx, def, createdBy)
	if err != nil {
		// Local definition state stays untouched so the operator can retry.
		return nil, fmt.Errorf("%w: %s", ErrSubmissionFailed, err.Error())
	}
	store.Clear()

	s.logger.Info("Form definition created", "definition_id", record.ID, "max_score", record.MaxScore)

	return &DefinitionResponse{
		Record:   record,
		Payload:  payload,
		Warnings: nonBlockingIssues(issues),
	}, nil
}

func (s *definitionService) Update(ctx context.Context, id string, req *SaveDefinitionRequest) (*DefinitionResponse, error) {
	s.logger.Info("Updating form definition", "definition_id", id)

	original, err := s.repo.Definition().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}

	record, err := s.repo.Definition().GetRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition record: %w", err)
	}
	if record.Status == models.DefinitionArchived {
		return nil, ErrDefinitionNotEditable
	}

	store, err := s.buildStore(engine.Hydrate(original), req)
	if err != nil {
		return nil, err
	}

	def := store.Definition()
	issues := engine.CheckIntegrity(def)
	if blocking := engine.BlockingIssues(issues); blocking != nil {
		return nil, fmt.Errorf("%w: %s", ErrDefinitionIntegrity, blocking.Error())
	}

	payload := engine.BuildUpdatePayload(store)

	updated, err := s.repo.Definition().Update(ctx, id, def)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionFailed, err.Error())
	}
	store.Clear()

	s.logger.Info("Form definition updated",
		"definition_id", id,
		"version", updated.Version,
		"deleted_questions", len(payload.DeletedQuestions))

	return &DefinitionResponse{
		Record:   updated,
		Payload:  payload,
		Warnings: nonBlockingIssues(issues),
	}, nil
}

func (s *definitionService) GetByID(ctx context.Context, id string) (*models.FormDefinition, error) {
	def, err := s.repo.Definition().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}
	return def, nil
}

func (s *definitionService) List(ctx context.Context, filters repositories.DefinitionFilters) (*DefinitionListResponse, error) {
	records, total, err := s.repo.Definition().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	return &DefinitionListResponse{Definitions: records, Total: total}, nil
}

// Publish moves a draft definition live. The integrity check runs once
// more against the stored document so a definition that drifted bad data
// can never go live.
func (s *definitionService) Publish(ctx context.Context, id string, publishedBy string) error {
	def, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	issues := engine.CheckIntegrity(def)
	if blocking := engine.BlockingIssues(issues); blocking != nil {
		return fmt.Errorf("%w: %s", ErrDefinitionIntegrity, blocking.Error())
	}
	for _, issue := range nonBlockingIssues(issues) {
		s.logger.Warn("Publishing definition with configuration warning",
			"definition_id", id,
			"kind", issue.Kind,
			"message", issue.Message)
	}

	if err := s.repo.Definition().UpdateStatus(ctx, id, models.DefinitionPublished); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDefinitionNotFound
		}
		return fmt.Errorf("failed to publish definition: %w", err)
	}

	event := events.NewAssessmentEvent(events.EventDefinitionPublished, events.DefinitionPublishedEvent{
		DefinitionID: id,
		FormType:     def.FormType,
		Title:        def.WelcomeScreen.Title,
		MaxScore:     def.MaxPossibleScore,
		PublishedBy:  publishedBy,
	})
	if err := s.publisher.PublishAssessmentEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish definition event", "definition_id", id, "error", err)
	}

	s.logger.Info("Form definition published", "definition_id", id, "published_by", publishedBy)
	return nil
}

func (s *definitionService) Archive(ctx context.Context, id string) error {
	if err := s.repo.Definition().UpdateStatus(ctx, id, models.DefinitionArchived); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDefinitionNotFound
		}
		return fmt.Errorf("failed to archive definition: %w", err)
	}
	return nil
}

func (s *definitionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Definition().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDefinitionNotFound
		}
		return fmt.Errorf("failed to delete definition: %w", err)
	}
	return nil
}

func (s *definitionService) Preview(ctx context.Context, id string) (*PreviewResponse, error) {
	def, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PreviewResponse{
		Groups: engine.Group(def.Questions, def.Modules),
		Issues: engine.CheckIntegrity(def),
	}, nil
}

// buildStore feeds the request through the definition store's mutators so
// every entity passes identity, ordering, and capability rules on the way
// in.
func (s *definitionService) buildStore(store *engine.DefinitionStore, req *SaveDefinitionRequest) (*engine.DefinitionStore, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}

	store.SetWelcomeScreen(req.WelcomeScreen)

	if store.IsUpdate() {
		return s.applyToHydrated(store, req)
	}

	for _, m := range req.Modules {
		store.AddModule(m)
	}
	for i := range req.Questions {
		q := req.Questions[i]
		if err := s.validator.Question().ValidateQuestion(&q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %s", ErrValidationFailed, i+1, err.Error())
		}
		if err := store.AddQuestion(q); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
		}
		if err := store.SaveQuestion(q.Key()); err != nil {
			return nil, fmt.Errorf("failed to save question state: %w", err)
		}
	}
	for _, rec := range req.ServiceRecommendations {
		if err := s.validator.Question().ValidateRecommendation(&rec); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
		}
		if err := store.AddServiceRecommendation(rec); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
		}
	}
	return store, nil
}

// applyToHydrated reconciles the requested state against the hydrated
// snapshot: updates entities that survive, adds new ones, and removes the
// rest so their deletion is tracked for the update payload.
func (s *definitionService) applyToHydrated(store *engine.DefinitionStore, req *SaveDefinitionRequest) (*engine.DefinitionStore, error) {
	def := store.Definition()

	requestedModules := make(map[string]bool, len(req.Modules))
	for _, m := range req.Modules {
		requestedModules[m.Key()] = true
		if err := store.UpdateModule(m.Key(), m.Title, m.Description); err != nil {
			store.AddModule(m)
		}
	}
	for _, m := range append([]models.Module(nil), def.Modules...) {
		if !requestedModules[m.Key()] {
			if err := store.RemoveModule(m.Key()); err != nil {
				return nil, fmt.Errorf("failed to remove module: %w", err)
			}
		}
	}

	requestedQuestions := make(map[string]bool, len(req.Questions))
	for i := range req.Questions {
		q := req.Questions[i]
		if err := s.validator.Question().ValidateQuestion(&q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %s", ErrValidationFailed, i+1, err.Error())
		}
		requestedQuestions[q.Key()] = true
		if err := store.UpdateQuestion(q.Key(), q); err != nil {
			if err := store.AddQuestion(q); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
			}
			if err := store.SaveQuestion(q.Key()); err != nil {
				return nil, fmt.Errorf("failed to save question state: %w", err)
			}
		}
	}
	for _, q := range append([]models.Question(nil), def.Questions...) {
		if !requestedQuestions[q.Key()] && q.Type.Deletable() {
			if err := store.RemoveQuestion(q.Key()); err != nil {
				return nil, fmt.Errorf("failed to remove question: %w", err)
			}
		}
	}

	requestedRecs := make(map[string]bool, len(req.ServiceRecommendations))
	for _, rec := range req.ServiceRecommendations {
		if err := s.validator.Question().ValidateRecommendation(&rec); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
		}
		key := rec.ID
		if key == "" {
			key = rec.ServiceID
		}
		requestedRecs[key] = true
		if err := store.UpdateServiceRecommendation(key, rec); err != nil {
			if err := store.AddServiceRecommendation(rec); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
			}
		}
	}
	for _, rec := range append([]models.ServiceRecommendation(nil), def.ServiceRecommendations...) {
		key := rec.ID
		if key == "" {
			key = rec.ServiceID
		}
		if !requestedRecs[key] {
			if err := store.RemoveServiceRecommendation(key); err != nil {
				return nil, fmt.Errorf("failed to remove recommendation: %w", err)
			}
		}
	}

	return store, nil
}

func nonBlockingIssues(issues []engine.IntegrityIssue) []engine.IntegrityIssue {
	var warnings []engine.IntegrityIssue
	for _, issue := range issues {
		if !issue.Blocking {
			warnings = append(warnings, issue)
		}
	}
	return warnings
}
