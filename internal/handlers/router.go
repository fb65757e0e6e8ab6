package handlers

import (
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	quizHandler *QuizHandler
	logger      utils.Logger
}

func NewHandlerManager(quizHandler *QuizHandler, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		quizHandler: quizHandler,
		logger:      logger,
	}
}

// NewRouter builds a gin engine with the service middleware and all routes
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(hm.logger))
	router.Use(utils.ContextLogger(hm.logger))
	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		quiz := v1.Group("/quiz")
		{
			quiz.POST("/load", hm.quizHandler.Load)
			quiz.GET("", hm.quizHandler.GetState)
			quiz.GET("/current", hm.quizHandler.GetCurrent)

			// Answering
			quiz.POST("/select", hm.quizHandler.Select)
			quiz.POST("/evaluate", hm.quizHandler.Evaluate)

			// Navigation
			quiz.POST("/advance", hm.quizHandler.Advance)
			quiz.POST("/retreat", hm.quizHandler.Retreat)
			quiz.POST("/goto", hm.quizHandler.GoTo)

			// Completion
			quiz.POST("/finish", hm.quizHandler.Finish)
			quiz.POST("/reset", hm.quizHandler.Reset)
			quiz.POST("/review", hm.quizHandler.ToggleReview)
			quiz.GET("/summary", hm.quizHandler.GetSummary)
			quiz.GET("/summary.xlsx", hm.quizHandler.ExportSummary)
		}
	}
}
