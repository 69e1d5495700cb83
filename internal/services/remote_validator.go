package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dta-platform/assessment-engine/internal/models"
)

// RemoteValidator is the optional remote validation collaborator queried
// before a step advance is trusted. Local gate validation always runs too;
// the two checks are intentionally kept independent.
type RemoteValidator interface {
	Validate(ctx context.Context, req *models.RemoteValidationRequest) (*models.RemoteValidationResponse, error)
}

type httpRemoteValidator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRemoteValidator creates a validator backed by the remote
// validation service.
func NewHTTPRemoteValidator(baseURL string) RemoteValidator {
	return &httpRemoteValidator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *httpRemoteValidator) Validate(ctx context.Context, req *models.RemoteValidationRequest) (*models.RemoteValidationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal validation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build validation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote validation call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote validation returned status %d", resp.StatusCode)
	}

	var result models.RemoteValidationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode validation response: %w", err)
	}
	return &result, nil
}

type noopRemoteValidator struct{}

// NewNoopRemoteValidator is used when no remote validation service is
// configured; every field passes so only local validation applies.
func NewNoopRemoteValidator() RemoteValidator {
	return noopRemoteValidator{}
}

func (noopRemoteValidator) Validate(_ context.Context, req *models.RemoteValidationRequest) (*models.RemoteValidationResponse, error) {
	results := make([]models.RemoteFieldResult, 0, len(req.Fields))
	for _, f := range req.Fields {
		results = append(results, models.RemoteFieldResult{Field: f.QuestionIdentifier, IsValid: true})
	}
	return &models.RemoteValidationResponse{IsValid: true, Results: results}, nil
}
