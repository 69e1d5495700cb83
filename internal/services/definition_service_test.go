package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dta-platform/assessment-engine/internal/events"
	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/dta-platform/assessment-engine/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockDefinitionRepository is a mock implementation of DefinitionRepository
type MockDefinitionRepository struct {
	mock.Mock
}

func (m *MockDefinitionRepository) Create(ctx context.Context, def *models.FormDefinition, createdBy string) (*models.FormDefinitionRecord, error) {
	args := m.Called(ctx, def, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormDefinitionRecord), args.Error(1)
}

func (m *MockDefinitionRepository) Update(ctx context.Context, id string, def *models.FormDefinition) (*models.FormDefinitionRecord, error) {
	args := m.Called(ctx, id, def)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormDefinitionRecord), args.Error(1)
}

func (m *MockDefinitionRepository) GetByID(ctx context.Context, id string) (*models.FormDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormDefinition), args.Error(1)
}

func (m *MockDefinitionRepository) GetRecord(ctx context.Context, id string) (*models.FormDefinitionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormDefinitionRecord), args.Error(1)
}

func (m *MockDefinitionRepository) List(ctx context.Context, filters repositories.DefinitionFilters) ([]*models.FormDefinitionRecord, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.FormDefinitionRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockDefinitionRepository) UpdateStatus(ctx context.Context, id string, status models.DefinitionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDefinitionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.AssessmentAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) Update(ctx context.Context, attempt *models.AssessmentAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id string) (*models.AssessmentAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByDefinition(ctx context.Context, definitionID string, filters repositories.AttemptFilters) ([]*models.AssessmentAttempt, int64, error) {
	args := m.Called(ctx, definitionID, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.AssessmentAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetStats(ctx context.Context, definitionID string) (*repositories.AttemptStats, error) {
	args := m.Called(ctx, definitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.AttemptStats), args.Error(1)
}

// MockRepository aggregates the repository mocks behind the injection point.
type MockRepository struct {
	defs     *MockDefinitionRepository
	attempts *MockAttemptRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		defs:     new(MockDefinitionRepository),
		attempts: new(MockAttemptRepository),
	}
}

func (m *MockRepository) Definition() repositories.DefinitionRepository { return m.defs }
func (m *MockRepository) Attempt() repositories.AttemptRepository       { return m.attempts }

func newDefinitionServiceForTest(repo *MockRepository) (DefinitionService, *events.MockEventPublisher) {
	logger := slog.Default()
	publisher := events.NewMockEventPublisher(logger)
	return NewDefinitionService(repo, logger, validator.New(), publisher), publisher
}

func validSaveRequest() *SaveDefinitionRequest {
	return &SaveDefinitionRequest{
		FormType: models.FormTypeAssessment,
		WelcomeScreen: models.WelcomeScreen{
			Title:       "Digital Maturity Assessment",
			Description: "Answer each module to receive a maturity score.",
		},
		Modules: []models.Module{
			{TempID: "mod-1", Title: "Strategy", Order: 1},
		},
		Questions: []models.Question{
			{
				TempID:     "q-1",
				Type:       models.MultipleChoice,
				Text:       "How documented is your digital strategy?",
				ModuleRef:  "mod-1",
				Step:       1,
				IsRequired: true,
				Options: []models.Option{
					{Label: "A", Description: "Not documented", PointValue: 0},
					{Label: "B", Description: "Fully documented", PointValue: 5},
				},
			},
		},
		ServiceRecommendations: []models.ServiceRecommendation{
			{
				ServiceID:   "svc-strategy",
				ServiceName: "Strategy Workshop",
				MinPoints:   0,
				MaxPoints:   5,
				Levels:      []string{"Beginner"},
			},
		},
	}
}

func TestDefinitionService_Create(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)
	req := validSaveRequest()

	record := &models.FormDefinitionRecord{
		ID:       "def-1",
		FormType: models.FormTypeAssessment,
		Title:    "Digital Maturity Assessment",
		Status:   models.DefinitionDraft,
		MaxScore: 5,
	}
	repo.defs.On("Create", mock.Anything, mock.MatchedBy(func(def *models.FormDefinition) bool {
		return def.FormType == models.FormTypeAssessment &&
			len(def.Modules) == 1 &&
			len(def.Questions) == 1 &&
			def.MaxPossibleScore == 5
	}), "operator-1").Return(record, nil)

	resp, err := svc.Create(context.Background(), req, "operator-1")

	require.NoError(t, err)
	assert.Equal(t, "def-1", resp.Record.ID)
	require.NotNil(t, resp.Payload)
	assert.Equal(t, "Digital Maturity Assessment", resp.Payload.WelcomeTitle)
	require.Len(t, resp.Payload.Questions, 1)
	assert.Equal(t, "q-1", resp.Payload.Questions[0]["temp_id"])
	repo.defs.AssertExpectations(t)
}

func TestDefinitionService_Create_ValidationFailure(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	req := validSaveRequest()
	req.Modules = nil

	resp, err := svc.Create(context.Background(), req, "operator-1")

	assert.Error(t, err)
	assert.Nil(t, resp)
	repo.defs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDefinitionService_Create_BlockingIntegrityIssue(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	req := validSaveRequest()
	req.Questions[0].ModuleRef = "mod-missing"

	resp, err := svc.Create(context.Background(), req, "operator-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDefinitionIntegrity)
	assert.Nil(t, resp)
	repo.defs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDefinitionService_Create_RepositoryFailure(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	repo.defs.On("Create", mock.Anything, mock.Anything, "operator-1").
		Return(nil, errors.New("connection refused"))

	resp, err := svc.Create(context.Background(), validSaveRequest(), "operator-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Nil(t, resp)
}

func storedDefinitionForUpdate() *models.FormDefinition {
	return &models.FormDefinition{
		ID:       "def-1",
		FormType: models.FormTypeAssessment,
		WelcomeScreen: models.WelcomeScreen{
			Title: "Digital Maturity Assessment",
		},
		Modules: []models.Module{
			{ID: "mod-1", Title: "Strategy", Order: 1},
		},
		Questions: []models.Question{
			{
				ID:         "q-1",
				Type:       models.MultipleChoice,
				Text:       "How documented is your digital strategy?",
				ModuleRef:  "mod-1",
				Step:       1,
				IsRequired: true,
				Options: []models.Option{
					{Label: "A", PointValue: 0},
					{Label: "B", PointValue: 5},
				},
			},
			{
				ID:        "q-2",
				Type:      models.ShortText,
				Text:      "Describe your roadmap.",
				ModuleRef: "mod-1",
				Step:      1,
			},
		},
		MaxPossibleScore: 5,
	}
}

func TestDefinitionService_Update_TracksDeletedQuestions(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)
	original := storedDefinitionForUpdate()

	repo.defs.On("GetByID", mock.Anything, "def-1").Return(original, nil)
	repo.defs.On("GetRecord", mock.Anything, "def-1").Return(&models.FormDefinitionRecord{
		ID:     "def-1",
		Status: models.DefinitionDraft,
	}, nil)
	repo.defs.On("Update", mock.Anything, "def-1", mock.Anything).Return(&models.FormDefinitionRecord{
		ID:      "def-1",
		Status:  models.DefinitionDraft,
		Version: 2,
	}, nil)

	// Keep q-1, drop q-2, keep mod-1 and the recommendation set empty.
	req := &SaveDefinitionRequest{
		FormType:      models.FormTypeAssessment,
		WelcomeScreen: original.WelcomeScreen,
		Modules: []models.Module{
			{ID: "mod-1", Title: "Strategy", Order: 1},
		},
		Questions: []models.Question{original.Questions[0]},
	}

	resp, err := svc.Update(context.Background(), "def-1", req)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Record.Version)
	require.NotNil(t, resp.Payload)
	assert.Equal(t, []string{"q-2"}, resp.Payload.DeletedQuestions)
	repo.defs.AssertExpectations(t)
}

func TestDefinitionService_Update_ArchivedNotEditable(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	repo.defs.On("GetByID", mock.Anything, "def-1").Return(storedDefinitionForUpdate(), nil)
	repo.defs.On("GetRecord", mock.Anything, "def-1").Return(&models.FormDefinitionRecord{
		ID:     "def-1",
		Status: models.DefinitionArchived,
	}, nil)

	resp, err := svc.Update(context.Background(), "def-1", validSaveRequest())

	assert.ErrorIs(t, err, ErrDefinitionNotEditable)
	assert.Nil(t, resp)
	repo.defs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDefinitionService_Update_NotFound(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	repo.defs.On("GetByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	resp, err := svc.Update(context.Background(), "missing", validSaveRequest())

	assert.ErrorIs(t, err, ErrDefinitionNotFound)
	assert.Nil(t, resp)
}

func TestDefinitionService_Publish(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newDefinitionServiceForTest(repo)

	repo.defs.On("GetByID", mock.Anything, "def-1").Return(storedDefinitionForUpdate(), nil)
	repo.defs.On("UpdateStatus", mock.Anything, "def-1", models.DefinitionPublished).Return(nil)

	err := svc.Publish(context.Background(), "def-1", "operator-1")

	require.NoError(t, err)
	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventDefinitionPublished, published[0].Type)
	repo.defs.AssertExpectations(t)
}

func TestDefinitionService_Publish_BlockingIssue(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	broken := storedDefinitionForUpdate()
	broken.Questions[0].ModuleRef = "mod-missing"
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(broken, nil)

	err := svc.Publish(context.Background(), "def-1", "operator-1")

	assert.ErrorIs(t, err, ErrDefinitionIntegrity)
	repo.defs.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDefinitionService_Archive_NotFound(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	repo.defs.On("UpdateStatus", mock.Anything, "missing", models.DefinitionArchived).
		Return(gorm.ErrRecordNotFound)

	err := svc.Archive(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

func TestDefinitionService_List(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	records := []*models.FormDefinitionRecord{
		{ID: "def-1", Title: "Digital Maturity Assessment"},
	}
	repo.defs.On("List", mock.Anything, mock.Anything).Return(records, int64(1), nil)

	resp, err := svc.List(context.Background(), repositories.DefinitionFilters{Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Len(t, resp.Definitions, 1)
}

func TestDefinitionService_Preview(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newDefinitionServiceForTest(repo)

	repo.defs.On("GetByID", mock.Anything, "def-1").Return(storedDefinitionForUpdate(), nil)

	resp, err := svc.Preview(context.Background(), "def-1")

	require.NoError(t, err)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Strategy", resp.Groups[0].ModuleName)
	assert.Len(t, resp.Groups[0].Steps, 1)
}
