package handlers

import (
	"fmt"
	"net/http"

	"github.com/dta-platform/assessment-engine/internal/services"
	"github.com/dta-platform/assessment-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportAttempts downloads attempt results for a definition as a
// spreadsheet; format defaults to xlsx, csv via ?format=csv
// @Summary Export attempt results
// @Tags definitions
// @Produce application/octet-stream
// @Param id path string true "Definition ID"
// @Param format query string false "xlsx or csv"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /definitions/{id}/export [get]
func (h *ExportHandler) ExportAttempts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	h.LogRequest(c, "Exporting attempts", "definition_id", id, "format", format)

	var (
		data        []byte
		err         error
		contentType string
		filename    string
	)

	switch format {
	case "csv":
		data, err = h.exportService.ExportAttemptsToCSV(c.Request.Context(), id)
		contentType = "text/csv"
		filename = fmt.Sprintf("attempts_%s.csv", id)
	case "xlsx":
		data, err = h.exportService.ExportAttemptsToExcel(c.Request.Context(), id)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = fmt.Sprintf("attempts_%s.xlsx", id)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
			Details: format,
		})
		return
	}

	if err != nil {
		if services.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Message: "Definition not found",
			})
			return
		}
		h.LogError(c, err, "Export failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
