package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
	"github.com/SAP-F-2025/examtaking-service/internal/services"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
	validator   *validator.Validator
}

func NewExamHandler(examService services.ExamService, validator *validator.Validator, logger *slog.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
		validator:   validator,
	}
}

// CreateExam creates a new exam
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body models.ExamCreateRequest true "Exam data"
// @Success 201 {object} services.ExamResponse
// @Failure 400 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req models.ExamCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Creating exam", "name", req.Name)

	exam, err := h.examService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// GetExam returns one exam
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// ListExams lists exams with filters and pagination
// @Summary List exams
// @Tags exams
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param size query int false "Page size"
// @Param status query string false "Exam status"
// @Param search query string false "Name search"
// @Success 200 {object} services.ExamListResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	exams, err := h.examService.List(c.Request.Context(), h.parseExamFilters(c), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exams)
}

// UpdateExam updates exam fields
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param exam body models.ExamUpdateRequest true "Exam data"
// @Success 200 {object} services.ExamResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [put]
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.ExamUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// DeleteExam removes an exam without records
// @Summary Delete exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Deleting exam", "exam_id", id)

	if err := h.examService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam deleted"})
}

// PublishExam opens the exam for sessions
// @Summary Publish exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /exams/{id}/publish [post]
func (h *ExamHandler) PublishExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if err := h.examService.Publish(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam published"})
}

// UnpublishExam withdraws the exam and ends its window
// @Summary Unpublish exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /exams/{id}/unpublish [post]
func (h *ExamHandler) UnpublishExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if err := h.examService.Unpublish(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam unpublished"})
}

func (h *ExamHandler) parseExamFilters(c *gin.Context) repositories.ExamFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.ExamFilters{
		Search:    strings.TrimSpace(c.Query("search")),
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_dir"),
	}

	if status := c.Query("status"); status != "" {
		examStatus := models.ExamStatus(status)
		filters.Status = &examStatus
	}
	if creator := strings.TrimSpace(c.Query("created_by")); creator != "" {
		filters.CreatedBy = &creator
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &t
		}
	}

	return filters
}
