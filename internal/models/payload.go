package models

// Wire shapes for the persistence collaborator. Field presence is
// type-dependent: every APIQuestion is built through a cleaning pass that
// drops unset optional fields, so absent means absent, never null.

// APIOption is an option as transmitted. Points is only attached for
// assessment definitions.
type APIOption struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
	Points *int   `json:"points,omitempty"`
	Value  string `json:"value,omitempty"`
}

// APIQuestion is the type-narrowed question wire shape.
type APIQuestion map[string]any

// APIModule is a module as transmitted, temp-keyed for server correlation.
type APIModule struct {
	TempID      string `json:"temp_id"`
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// APIServiceRecommendation is the top-level recommendation wire shape,
// attached to assessment submissions only.
type APIServiceRecommendation struct {
	ID          string   `json:"id,omitempty"`
	ServiceID   string   `json:"service_id"`
	ServiceName string   `json:"service_name"`
	Description string   `json:"description"`
	MinPoints   int      `json:"min_points"`
	MaxPoints   int      `json:"max_points"`
	Levels      []string `json:"levels"`
}

// SubmissionPayload is the create/update request body sent to the
// persistence collaborator.
type SubmissionPayload struct {
	// Assessment definitions carry the welcome screen at top level too.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Instruction string `json:"instruction,omitempty"`

	WelcomeTitle       string `json:"welcome_title"`
	WelcomeDescription string `json:"welcome_description"`
	WelcomeInstruction string `json:"welcome_instruction"`

	Modules   []APIModule   `json:"modules"`
	Questions []APIQuestion `json:"questions"`

	// Omitted entirely when no recommendations are configured.
	ServiceRecommendations []APIServiceRecommendation `json:"service_recommendations,omitempty"`

	// Update submissions only.
	DeletedQuestions              []string `json:"deletedQuestions,omitempty"`
	DeletedModules                []string `json:"deletedModules,omitempty"`
	DeletedServiceRecommendations []string `json:"deletedServiceRecommendations,omitempty"`
}

// RemoteValidationRequest is the optional remote validation pass issued
// before trusting local step validation.
type RemoteValidationRequest struct {
	FormID   string                  `json:"formId"`
	FormType FormType                `json:"formType"`
	Fields   []RemoteValidationField `json:"fields"`
}

type RemoteValidationField struct {
	QuestionIdentifier string `json:"questionIdentifier"`
	Value              any    `json:"value"`
}

type RemoteValidationResponse struct {
	IsValid bool                `json:"isValid"`
	Results []RemoteFieldResult `json:"results"`
}

type RemoteFieldResult struct {
	Field   string             `json:"field"`
	IsValid bool               `json:"isValid"`
	Errors  []RemoteFieldError `json:"errors"`
}

type RemoteFieldError struct {
	Message string `json:"message"`
}
