package handlers

import (
	"github.com/dta-platform/assessment-engine/internal/services"
	"github.com/dta-platform/assessment-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	definitionHandler *DefinitionHandler
	attemptHandler    *AttemptHandler
	exportHandler     *ExportHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		definitionHandler: NewDefinitionHandler(serviceManager.Definition(), logger),
		attemptHandler:    NewAttemptHandler(serviceManager.Attempt(), logger),
		exportHandler:     NewExportHandler(serviceManager.Export(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "assessment-engine",
		})
	})

	v1 := router.Group("/api/v1")
	{
		definitions := v1.Group("/definitions")
		{
			definitions.POST("", hm.definitionHandler.CreateDefinition)
			definitions.GET("", hm.definitionHandler.ListDefinitions)
			definitions.GET("/:id", hm.definitionHandler.GetDefinition)
			definitions.PUT("/:id", hm.definitionHandler.UpdateDefinition)
			definitions.DELETE("/:id", hm.definitionHandler.DeleteDefinition)
			definitions.POST("/:id/publish", hm.definitionHandler.PublishDefinition)
			definitions.POST("/:id/archive", hm.definitionHandler.ArchiveDefinition)
			definitions.GET("/:id/preview", hm.definitionHandler.PreviewDefinition)
			definitions.GET("/:id/export", hm.exportHandler.ExportAttempts)
			definitions.GET("/:id/stats", hm.attemptHandler.GetStats)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answer", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/advance", hm.attemptHandler.Advance)
			attempts.POST("/:id/back", hm.attemptHandler.Back)
			attempts.GET("/:id/result", hm.attemptHandler.GetResult)
		}
	}
}
