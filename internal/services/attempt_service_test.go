package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dta-platform/assessment-engine/internal/cache"
	"github.com/dta-platform/assessment-engine/internal/events"
	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeSessionStore is an in-memory SessionStore that copies sessions on
// save and load, mimicking the serialization boundary of the Redis store.
type fakeSessionStore struct {
	sessions map[string]*models.WizardSession
	saveErr  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.WizardSession)}
}

func (f *fakeSessionStore) Save(ctx context.Context, session *models.WizardSession) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[session.AttemptID] = copySession(session)
	return nil
}

func (f *fakeSessionStore) Get(ctx context.Context, attemptID string) (*models.WizardSession, error) {
	session, ok := f.sessions[attemptID]
	if !ok {
		return nil, cache.ErrSessionNotFound
	}
	return copySession(session), nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, attemptID string) error {
	delete(f.sessions, attemptID)
	return nil
}

func copySession(session *models.WizardSession) *models.WizardSession {
	clone := *session
	clone.Responses = make(models.ResponseMap, len(session.Responses))
	for k, v := range session.Responses {
		clone.Responses[k] = v
	}
	return &clone
}

// stubRemoteValidator returns a canned validation response and records the
// requests it saw.
type stubRemoteValidator struct {
	resp     *models.RemoteValidationResponse
	err      error
	requests []*models.RemoteValidationRequest
}

func (s *stubRemoteValidator) Validate(ctx context.Context, req *models.RemoteValidationRequest) (*models.RemoteValidationResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return &models.RemoteValidationResponse{IsValid: true}, nil
}

func newAttemptServiceForTest(repo *MockRepository) (AttemptService, *fakeSessionStore, *stubRemoteValidator, *events.MockEventPublisher) {
	sessions := newFakeSessionStore()
	remote := &stubRemoteValidator{}
	publisher := events.NewMockEventPublisher(slog.Default())
	svc := NewAttemptService(repo, sessions, slog.Default(), remote, publisher)
	return svc, sessions, remote, publisher
}

// publishedDefinition has one module with two steps: a scored multiple
// choice question and a required short text question.
func publishedDefinition() *models.FormDefinition {
	return &models.FormDefinition{
		ID:       "def-1",
		FormType: models.FormTypeAssessment,
		Status:   models.DefinitionPublished,
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
				ID:         "q-2",
				Type:       models.ShortText,
				Text:       "Describe your roadmap.",
				ModuleRef:  "mod-1",
				Step:       2,
				IsRequired: true,
			},
		},
		ServiceRecommendations: []models.ServiceRecommendation{
			{
				ID:          "rec-1",
				ServiceID:   "svc-strategy",
				ServiceName: "Strategy Workshop",
				MinPoints:   0,
				MaxPoints:   5,
				Levels:      []string{"Expert"},
			},
		},
		MaxPossibleScore: 5,
	}
}

func seedSession(sessions *fakeSessionStore, moduleIndex, stepIndex int, responses models.ResponseMap) {
	if responses == nil {
		responses = models.ResponseMap{}
	}
	sessions.sessions["att-1"] = &models.WizardSession{
		AttemptID:    "att-1",
		DefinitionID: "def-1",
		RespondentID: "resp-1",
		ModuleIndex:  moduleIndex,
		StepIndex:    stepIndex,
		Responses:    responses,
		StartedAt:    time.Now().UTC(),
	}
}

func TestAttemptService_Start(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, _, publisher := newAttemptServiceForTest(repo)

	repo.defs.On("GetRecord", mock.Anything, "def-1").Return(&models.FormDefinitionRecord{
		ID:     "def-1",
		Status: models.DefinitionPublished,
	}, nil)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	repo.attempts.On("Create", mock.Anything, mock.MatchedBy(func(attempt *models.AssessmentAttempt) bool {
		return attempt.DefinitionID == "def-1" &&
			attempt.Status == models.AttemptInProgress &&
			attempt.MaxScore == 5
	})).Return(nil)

	resp, err := svc.Start(context.Background(), "def-1", "resp-1")

	require.NoError(t, err)
	assert.Equal(t, 0, resp.ModuleIndex)
	assert.Equal(t, 0, resp.StepIndex)
	assert.Equal(t, "Strategy", resp.ModuleName)
	assert.Equal(t, float64(0), resp.Progress)
	assert.False(t, resp.CanGoBack)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "q-1", resp.Questions[0].ID)

	_, ok := sessions.sessions[resp.AttemptID]
	assert.True(t, ok)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptStarted, published[0].Type)
	repo.attempts.AssertExpectations(t)
}

func TestAttemptService_Start_NotPublished(t *testing.T) {
	repo := newMockRepository()
	svc, _, _, _ := newAttemptServiceForTest(repo)

	repo.defs.On("GetRecord", mock.Anything, "def-1").Return(&models.FormDefinitionRecord{
		ID:     "def-1",
		Status: models.DefinitionDraft,
	}, nil)

	resp, err := svc.Start(context.Background(), "def-1", "resp-1")

	assert.ErrorIs(t, err, ErrDefinitionNotPublished)
	assert.Nil(t, resp)
	repo.attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAttemptService_SubmitAnswer(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, _, _ := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	seedSession(sessions, 0, 0, nil)

	err := svc.SubmitAnswer(context.Background(), "att-1", &SubmitAnswerRequest{
		QuestionKey: "q-1",
		Answer:      models.TextAnswer("B"),
	})

	require.NoError(t, err)
	answer, ok := sessions.sessions["att-1"].Responses.Get("q-1")
	require.True(t, ok)
	assert.Equal(t, "B", *answer.Text)
}

func TestAttemptService_SubmitAnswer_SessionMissing(t *testing.T) {
	repo := newMockRepository()
	svc, _, _, _ := newAttemptServiceForTest(repo)

	err := svc.SubmitAnswer(context.Background(), "gone", &SubmitAnswerRequest{
		QuestionKey: "q-1",
		Answer:      models.TextAnswer("B"),
	})

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAttemptService_Advance(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, remote, _ := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	seedSession(sessions, 0, 0, models.ResponseMap{"q-1": models.TextAnswer("B")})

	resp, err := svc.Advance(context.Background(), "att-1")

	require.NoError(t, err)
	assert.Equal(t, 0, resp.ModuleIndex)
	assert.Equal(t, 1, resp.StepIndex)
	assert.True(t, resp.CanGoBack)
	assert.False(t, resp.Completed)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "q-2", resp.Questions[0].ID)

	// Restored position survives the round trip through the store.
	assert.Equal(t, 1, sessions.sessions["att-1"].StepIndex)

	require.Len(t, remote.requests, 1)
	assert.Equal(t, "def-1", remote.requests[0].FormID)
	require.Len(t, remote.requests[0].Fields, 1)
	assert.Equal(t, "q-1", remote.requests[0].Fields[0].QuestionIdentifier)
}

func TestAttemptService_Advance_MissingAnswer(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, remote, _ := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	seedSession(sessions, 0, 0, nil)

	resp, err := svc.Advance(context.Background(), "att-1")

	assert.ErrorIs(t, err, ErrStepInvalid)
	require.NotNil(t, resp)
	require.Len(t, resp.FieldResults, 1)
	assert.False(t, resp.FieldResults[0].IsValid)

	// The wizard never moved and the remote pass never ran.
	assert.Equal(t, 0, sessions.sessions["att-1"].StepIndex)
	assert.Empty(t, remote.requests)
}

func TestAttemptService_Advance_RemoteRejection(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, remote, _ := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	remote.resp = &models.RemoteValidationResponse{IsValid: false}
	seedSession(sessions, 0, 0, models.ResponseMap{"q-1": models.TextAnswer("B")})

	resp, err := svc.Advance(context.Background(), "att-1")

	assert.ErrorIs(t, err, ErrStepInvalid)
	assert.Nil(t, resp)
	assert.Equal(t, 0, sessions.sessions["att-1"].StepIndex)
}

func TestAttemptService_Advance_CompletesAndScores(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, _, publisher := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	seedSession(sessions, 0, 1, models.ResponseMap{
		"q-1": models.TextAnswer("B"),
		"q-2": models.TextAnswer("Cloud migration within two years."),
	})

	repo.attempts.On("GetByID", mock.Anything, "att-1").Return(&models.AssessmentAttempt{
		ID:           "att-1",
		DefinitionID: "def-1",
		RespondentID: "resp-1",
		Status:       models.AttemptInProgress,
		MaxScore:     5,
	}, nil)

	var saved *models.AssessmentAttempt
	repo.attempts.On("Update", mock.Anything, mock.AnythingOfType("*models.AssessmentAttempt")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.AssessmentAttempt)
		}).Return(nil)

	resp, err := svc.Advance(context.Background(), "att-1")

	require.NoError(t, err)
	assert.True(t, resp.Completed)
	assert.Equal(t, float64(100), resp.Progress)
	assert.Empty(t, resp.Questions)

	require.NotNil(t, saved)
	assert.Equal(t, models.AttemptCompleted, saved.Status)
	assert.Equal(t, 5, saved.Score)
	assert.Equal(t, 100, saved.Percent)
	assert.Equal(t, "Expert", saved.Level)
	require.NotNil(t, saved.CompletedAt)

	matches, err := saved.GetMatches()
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "svc-strategy", matches[0].ServiceID)

	// The completed session is dropped from the store.
	_, ok := sessions.sessions["att-1"]
	assert.False(t, ok)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptScored, published[0].Type)
}

func TestAttemptService_Advance_PersistFailureKeepsSession(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, _, _ := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	seedSession(sessions, 0, 1, models.ResponseMap{
		"q-1": models.TextAnswer("B"),
		"q-2": models.TextAnswer("Cloud migration within two years."),
	})

	repo.attempts.On("GetByID", mock.Anything, "att-1").Return(&models.AssessmentAttempt{
		ID:           "att-1",
		DefinitionID: "def-1",
		Status:       models.AttemptInProgress,
		MaxScore:     5,
	}, nil)
	repo.attempts.On("Update", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	resp, err := svc.Advance(context.Background(), "att-1")

	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Nil(t, resp)

	// The session survives at the final step so the respondent can retry,
	// and the pending flag is cleared so the retry is not rejected.
	session, ok := sessions.sessions["att-1"]
	require.True(t, ok)
	assert.Equal(t, 1, session.StepIndex)
	assert.False(t, session.Completed)
	assert.False(t, session.SubmissionPending)
}

func TestAttemptService_Advance_RejectsConcurrentSubmission(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, _, _ := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	seedSession(sessions, 0, 1, models.ResponseMap{
		"q-1": models.TextAnswer("B"),
		"q-2": models.TextAnswer("Cloud migration within two years."),
	})
	// Another request already flagged the session before this one restored
	// its own wizard.
	sessions.sessions["att-1"].SubmissionPending = true

	resp, err := svc.Advance(context.Background(), "att-1")

	assert.ErrorIs(t, err, ErrSubmissionPending)
	assert.Nil(t, resp)
	repo.attempts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.True(t, sessions.sessions["att-1"].SubmissionPending, "the in-flight submission keeps its flag")
}

func TestAttemptService_Back(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, _, _ := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	seedSession(sessions, 0, 1, nil)

	resp, err := svc.Back(context.Background(), "att-1")

	require.NoError(t, err)
	assert.Equal(t, 0, resp.StepIndex)
	assert.False(t, resp.CanGoBack)
	assert.Equal(t, 0, sessions.sessions["att-1"].StepIndex)
}

func TestAttemptService_Back_AtStart(t *testing.T) {
	repo := newMockRepository()
	svc, sessions, _, _ := newAttemptServiceForTest(repo)
	repo.defs.On("GetByID", mock.Anything, "def-1").Return(publishedDefinition(), nil)
	seedSession(sessions, 0, 0, nil)

	resp, err := svc.Back(context.Background(), "att-1")

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestAttemptService_Result(t *testing.T) {
	repo := newMockRepository()
	svc, _, _, _ := newAttemptServiceForTest(repo)

	attempt := &models.AssessmentAttempt{
		ID:       "att-1",
		Status:   models.AttemptCompleted,
		Score:    5,
		MaxScore: 5,
		Percent:  100,
		Level:    "Expert",
	}
	require.NoError(t, attempt.SetMatches([]models.ServiceRecommendation{
		{ServiceID: "svc-strategy", ServiceName: "Strategy Workshop"},
	}))
	repo.attempts.On("GetByID", mock.Anything, "att-1").Return(attempt, nil)

	resp, err := svc.Result(context.Background(), "att-1")

	require.NoError(t, err)
	assert.Equal(t, 5, resp.Score)
	assert.Equal(t, 100, resp.Percent)
	assert.Equal(t, "Expert", resp.Level)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "svc-strategy", resp.Recommendations[0].ServiceID)
}

func TestAttemptService_Stats(t *testing.T) {
	repo := newMockRepository()
	svc, _, _, _ := newAttemptServiceForTest(repo)

	repo.defs.On("GetRecord", mock.Anything, "def-1").Return(&models.FormDefinitionRecord{
		ID:     "def-1",
		Status: models.DefinitionPublished,
	}, nil)
	repo.attempts.On("GetStats", mock.Anything, "def-1").Return(&repositories.AttemptStats{
		TotalAttempts:     10,
		CompletedAttempts: 7,
		AverageScore:      4.2,
		AveragePercent:    84,
	}, nil)

	stats, err := svc.Stats(context.Background(), "def-1")

	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalAttempts)
	assert.Equal(t, 7, stats.CompletedAttempts)
	assert.InDelta(t, 84, stats.AveragePercent, 0.01)
}

func TestAttemptService_Stats_DefinitionMissing(t *testing.T) {
	repo := newMockRepository()
	svc, _, _, _ := newAttemptServiceForTest(repo)

	repo.defs.On("GetRecord", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	stats, err := svc.Stats(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrDefinitionNotFound)
	assert.Nil(t, stats)
	repo.attempts.AssertNotCalled(t, "GetStats", mock.Anything, mock.Anything)
}

func TestAttemptService_Result_InProgressHidden(t *testing.T) {
	repo := newMockRepository()
	svc, _, _, _ := newAttemptServiceForTest(repo)

	repo.attempts.On("GetByID", mock.Anything, "att-1").Return(&models.AssessmentAttempt{
		ID:     "att-1",
		Status: models.AttemptInProgress,
	}, nil)

	resp, err := svc.Result(context.Background(), "att-1")

	assert.ErrorIs(t, err, ErrAttemptNotFound)
	assert.Nil(t, resp)
}
