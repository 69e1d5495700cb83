package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// pathID extracts the "id" path parameter. A blank or whitespace-only id
// writes the 400 response itself; callers just return on !ok.
func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid id",
			Details: "id path parameter cannot be empty",
		})
		return "", false
	}
	return id, true
}
