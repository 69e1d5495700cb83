package handlers

import (
	"errors"
	"net/http"

	"github.com/dta-platform/assessment-engine/internal/services"
	"github.com/dta-platform/assessment-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

type StartAttemptRequest struct {
	DefinitionID string `json:"definition_id" binding:"required"`
}

// StartAttempt opens a wizard session against a published definition
// @Summary Start attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body StartAttemptRequest true "Attempt data"
// @Success 201 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting attempt", "definition_id", req.DefinitionID)

	resp, err := h.attemptService.Start(c.Request.Context(), req.DefinitionID, callerID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetAttempt returns the current wizard position and step questions
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := h.attemptService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAnswer records one answer on the active session
// @Summary Submit answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/answer [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.attemptService.SubmitAnswer(c.Request.Context(), id, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer recorded"})
}

// Advance validates the current step and moves the wizard forward; the
// final advance scores the attempt
// @Summary Advance attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/advance [post]
func (h *AttemptHandler) Advance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Advancing attempt", "attempt_id", id)

	resp, err := h.attemptService.Advance(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrStepInvalid) && resp != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Current step has invalid answers",
				Details: resp.FieldResults,
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Back moves the wizard one step backwards
// @Summary Step back
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/back [post]
func (h *AttemptHandler) Back(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := h.attemptService.Back(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetResult returns the scored outcome of a completed attempt
// @Summary Get attempt result
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.ResultResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/result [get]
func (h *AttemptHandler) GetResult(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := h.attemptService.Result(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStats returns aggregate attempt counts and averages for a definition
// @Summary Get attempt statistics
// @Tags attempts
// @Produce json
// @Param id path string true "Definition ID"
// @Success 200 {object} repositories.AttemptStats
// @Failure 404 {object} ErrorResponse
// @Router /definitions/{id}/stats [get]
func (h *AttemptHandler) GetStats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	stats, err := h.attemptService.Stats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AttemptHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Attempt not found",
		})
	case errors.Is(err, services.ErrDefinitionNotPublished):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Definition is not published",
		})
	case errors.Is(err, services.ErrStepIncomplete):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Current step has missing answers",
		})
	case errors.Is(err, services.ErrSubmissionFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Failed to store attempt result, please retry",
		})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: err.Error(),
		})
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Attempt operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
