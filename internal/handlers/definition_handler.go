package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/dta-platform/assessment-engine/internal/services"
	"github.com/dta-platform/assessment-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

type DefinitionHandler struct {
	BaseHandler
	definitionService services.DefinitionService
}

func NewDefinitionHandler(definitionService services.DefinitionService, logger utils.Logger) *DefinitionHandler {
	return &DefinitionHandler{
		BaseHandler:       NewBaseHandler(logger),
		definitionService: definitionService,
	}
}

// CreateDefinition builds, checks and stores a new form definition
// @Summary Create form definition
// @Tags definitions
// @Accept json
// @Produce json
// @Param definition body services.SaveDefinitionRequest true "Definition data"
// @Success 201 {object} services.DefinitionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /definitions [post]
func (h *DefinitionHandler) CreateDefinition(c *gin.Context) {
	var req services.SaveDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating form definition", "form_type", req.FormType)

	resp, err := h.definitionService.Create(c.Request.Context(), &req, callerID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// UpdateDefinition replaces a stored definition and reports the change set
// @Summary Update form definition
// @Tags definitions
// @Accept json
// @Produce json
// @Param id path string true "Definition ID"
// @Param definition body services.SaveDefinitionRequest true "Definition data"
// @Success 200 {object} services.DefinitionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /definitions/{id} [put]
func (h *DefinitionHandler) UpdateDefinition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.SaveDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating form definition", "definition_id", id)

	resp, err := h.definitionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetDefinition retrieves a definition by ID
// @Summary Get form definition
// @Tags definitions
// @Produce json
// @Param id path string true "Definition ID"
// @Success 200 {object} models.FormDefinition
// @Failure 404 {object} ErrorResponse
// @Router /definitions/{id} [get]
func (h *DefinitionHandler) GetDefinition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	def, err := h.definitionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, def)
}

// ListDefinitions lists definition records with filters
// @Summary List form definitions
// @Tags definitions
// @Produce json
// @Success 200 {object} services.DefinitionListResponse
// @Router /definitions [get]
func (h *DefinitionHandler) ListDefinitions(c *gin.Context) {
	filters := parseDefinitionFilters(c)

	resp, err := h.definitionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PublishDefinition makes a definition available to respondents
// @Summary Publish form definition
// @Tags definitions
// @Produce json
// @Param id path string true "Definition ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /definitions/{id}/publish [post]
func (h *DefinitionHandler) PublishDefinition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Publishing form definition", "definition_id", id)

	if err := h.definitionService.Publish(c.Request.Context(), id, callerID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Definition published"})
}

// ArchiveDefinition retires a published definition
// @Summary Archive form definition
// @Tags definitions
// @Produce json
// @Param id path string true "Definition ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /definitions/{id}/archive [post]
func (h *DefinitionHandler) ArchiveDefinition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Archiving form definition", "definition_id", id)

	if err := h.definitionService.Archive(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Definition archived"})
}

// DeleteDefinition soft-deletes a definition
// @Summary Delete form definition
// @Tags definitions
// @Produce json
// @Param id path string true "Definition ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /definitions/{id} [delete]
func (h *DefinitionHandler) DeleteDefinition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting form definition", "definition_id", id)

	if err := h.definitionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Definition deleted"})
}

// PreviewDefinition returns the respondent-facing grouped tree with
// integrity findings
// @Summary Preview form definition
// @Tags definitions
// @Produce json
// @Param id path string true "Definition ID"
// @Success 200 {object} services.PreviewResponse
// @Failure 404 {object} ErrorResponse
// @Router /definitions/{id}/preview [get]
func (h *DefinitionHandler) PreviewDefinition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := h.definitionService.Preview(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseDefinitionFilters(c *gin.Context) repositories.DefinitionFilters {
	filters := repositories.DefinitionFilters{
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if formType := c.Query("form_type"); formType != "" {
		ft := models.FormType(formType)
		filters.FormType = &ft
	}
	if status := c.Query("status"); status != "" {
		st := models.DefinitionStatus(status)
		filters.Status = &st
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		filters.CreatedBy = &createdBy
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filters.Offset = offset
	}

	return filters
}

func (h *DefinitionHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Definition not found",
		})
	case errors.Is(err, services.ErrDefinitionNotEditable):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Definition cannot be edited in its current status",
		})
	case errors.Is(err, services.ErrDefinitionIntegrity):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Definition failed integrity check",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrSubmissionFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Failed to submit definition to persistence collaborator",
		})
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Definition operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

// callerID resolves the acting operator or respondent from request
// headers. Authentication lives in an upstream gateway.
func callerID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}
