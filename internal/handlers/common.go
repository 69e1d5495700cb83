package handlers

import (
	"github.com/dta-platform/assessment-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the wire shape for every non-2xx body.
type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SuccessResponse wraps 2xx bodies that carry a message alongside data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// BaseHandler carries the request-scoped logging shared by all handlers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// requestFields returns the log fields every request line carries.
func requestFields(c *gin.Context) []any {
	return []any{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetHeader("X-Request-ID"),
	}
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string, fields ...any) {
	h.logger.Info(message, append(requestFields(c), fields...)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, fields ...any) {
	h.logger.LogError(err, message, append(requestFields(c), fields...)...)
}
