package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/examtaking-service/internal/config"
	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/services"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

type HandlerManager struct {
	examHandler      *ExamHandler
	paperHandler     *PaperHandler
	sessionHandler   *SessionHandler
	gradingHandler   *GradingHandler
	analyticsHandler *AnalyticsHandler
	studentHandler   *StudentHandler
	authMiddleware   *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger *slog.Logger,
	casdoorConfig config.CasdoorConfig,
) *HandlerManager {
	return &HandlerManager{
		examHandler:      NewExamHandler(serviceManager.Exam(), validator, logger),
		paperHandler:     NewPaperHandler(serviceManager.Paper(), validator, logger),
		sessionHandler:   NewSessionHandler(serviceManager.Session(), validator, logger),
		gradingHandler:   NewGradingHandler(serviceManager.Grading(), validator, logger),
		analyticsHandler: NewAnalyticsHandler(serviceManager.Analytics(), serviceManager.Export(), logger),
		studentHandler:   NewStudentHandler(serviceManager.Student(), logger),
		authMiddleware:   NewCasdoorAuthMiddleware(casdoorConfig),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	teacherOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Exam management
		exams := v1.Group("/exams")
		{
			exams.POST("", teacherOnly, hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.PUT("/:id", teacherOnly, hm.examHandler.UpdateExam)
			exams.DELETE("/:id", teacherOnly, hm.examHandler.DeleteExam)
			exams.POST("/:id/publish", teacherOnly, hm.examHandler.PublishExam)
			exams.POST("/:id/unpublish", teacherOnly, hm.examHandler.UnpublishExam)

			// Exam taking
			exams.POST("/:id/session/start", hm.sessionHandler.StartSession)
			exams.GET("/:id/session", hm.sessionHandler.GetSessionStatus)
			exams.GET("/:id/session/questions", hm.sessionHandler.GetSessionQuestions)
			exams.GET("/:id/session/continue", hm.sessionHandler.ContinueSession)
			exams.PUT("/:id/session/answer", hm.sessionHandler.SaveAnswer)
			exams.PUT("/:id/session/answers", hm.sessionHandler.SaveAnswers)
			exams.POST("/:id/session/submit", hm.sessionHandler.SubmitSession)
			exams.POST("/:id/session/cheat", hm.sessionHandler.LogCheatEvent)

			// Grading and analytics over an exam
			exams.POST("/:id/autograde", teacherOnly, hm.gradingHandler.AutoGradeExam)
			exams.GET("/:id/pending-grading", teacherOnly, hm.gradingHandler.ListPendingGrading)
			exams.GET("/:id/statistics", teacherOnly, hm.analyticsHandler.GetExamStatistics)
			exams.GET("/:id/statistics/export", teacherOnly, hm.analyticsHandler.ExportStatistics)
			exams.GET("/:id/wrong-questions", teacherOnly, hm.analyticsHandler.GetWrongQuestionAnalysis)
			exams.GET("/:id/cheat-logs", teacherOnly, hm.analyticsHandler.GetCheatLogs)
		}

		// Paper management
		papers := v1.Group("/papers")
		{
			papers.POST("", teacherOnly, hm.paperHandler.CreatePaper)
			papers.GET("/:id", hm.paperHandler.GetPaper)
			papers.DELETE("/:id", teacherOnly, hm.paperHandler.DeletePaper)
			papers.GET("/:id/questions", teacherOnly, hm.paperHandler.GetPaperQuestions)
			papers.POST("/:id/questions", teacherOnly, hm.paperHandler.AddPaperQuestion)
			papers.DELETE("/:id/questions/:question_id", teacherOnly, hm.paperHandler.RemovePaperQuestion)
		}

		// Record grading
		records := v1.Group("/records")
		{
			records.POST("/:id/grade/question", teacherOnly, hm.gradingHandler.GradeQuestion)
			records.POST("/:id/grade", teacherOnly, hm.gradingHandler.GradeQuestions)
			records.POST("/:id/autograde", teacherOnly, hm.gradingHandler.AutoGradeRecord)
			records.GET("/:id/answers", teacherOnly, hm.gradingHandler.GetRecordAnswers)
		}

		// Student views
		my := v1.Group("/my")
		{
			my.GET("/records", hm.studentHandler.GetMyRecords)
			my.GET("/records/:id", hm.studentHandler.GetMyRecordDetail)
		}
	}
}

// HealthCheck endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "examtaking-service",
	})
}
