package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/services"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	validator      *validator.Validator
}

func NewGradingHandler(gradingService services.GradingService, validator *validator.Validator, logger *slog.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		validator:      validator,
	}
}

// GradeQuestion scores one subjective answer
// @Summary Grade one question
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Record ID"
// @Param grade body models.GradeQuestionRequest true "Grade payload"
// @Success 200 {object} services.GradingResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /records/{id}/grade/question [post]
func (h *GradingHandler) GradeQuestion(c *gin.Context) {
	recordID := h.parseIDParam(c, "id")
	if recordID == 0 {
		return
	}

	var req models.GradeQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	graderID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Grading question", "record_id", recordID, "question_id", req.QuestionID)

	result, err := h.gradingService.GradeQuestion(c.Request.Context(), recordID, &req, graderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GradeQuestions scores a batch of subjective answers atomically
// @Summary Grade questions in batch
// @Description All scores are validated up front; one bad score rejects the batch
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Record ID"
// @Param grades body models.GradeQuestionsRequest true "Grades payload"
// @Success 200 {object} services.RecordGradingResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /records/{id}/grade [post]
func (h *GradingHandler) GradeQuestions(c *gin.Context) {
	recordID := h.parseIDParam(c, "id")
	if recordID == 0 {
		return
	}

	var req models.GradeQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	graderID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Grading record", "record_id", recordID, "question_count", len(req.Scores))

	result, err := h.gradingService.GradeQuestions(c.Request.Context(), recordID, &req, graderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AutoGradeRecord rescores all objective answers of one record
// @Summary Auto-grade a record
// @Tags grading
// @Produce json
// @Param id path uint true "Record ID"
// @Success 200 {object} services.RecordGradingResult
// @Failure 404 {object} ErrorResponse
// @Router /records/{id}/autograde [post]
func (h *GradingHandler) AutoGradeRecord(c *gin.Context) {
	recordID := h.parseIDParam(c, "id")
	if recordID == 0 {
		return
	}

	h.LogRequest(c, "Auto-grading record", "record_id", recordID)

	result, err := h.gradingService.AutoGradeRecord(c.Request.Context(), recordID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AutoGradeExam rescores every submitted record of an exam
// @Summary Auto-grade an exam
// @Tags grading
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} map[uint]services.RecordGradingResult
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/autograde [post]
func (h *GradingHandler) AutoGradeExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Auto-grading exam", "exam_id", examID)

	results, err := h.gradingService.AutoGradeExam(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ListPendingGrading pages through submitted records awaiting a grader
// @Summary List records pending grading
// @Tags grading
// @Produce json
// @Param id path uint true "Exam ID"
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size"
// @Success 200 {object} models.PaginatedResponse
// @Router /exams/{id}/pending-grading [get]
func (h *GradingHandler) ListPendingGrading(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	page := h.parseIntQuery(c, "page", 0)
	size := h.parseIntQuery(c, "size", 20)

	result, err := h.gradingService.ListPendingGrading(c.Request.Context(), examID, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecordAnswers shows one record's answers with canonical answers
// @Summary Get record answers for grading
// @Tags grading
// @Produce json
// @Param id path uint true "Record ID"
// @Success 200 {object} services.RecordAnswersView
// @Failure 404 {object} ErrorResponse
// @Router /records/{id}/answers [get]
func (h *GradingHandler) GetRecordAnswers(c *gin.Context) {
	recordID := h.parseIDParam(c, "id")
	if recordID == 0 {
		return
	}

	view, err := h.gradingService.RecordAnswers(c.Request.Context(), recordID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
