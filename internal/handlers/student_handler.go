package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/services"
)

type StudentHandler struct {
	BaseHandler
	studentService services.StudentService
}

func NewStudentHandler(studentService services.StudentService, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:    NewBaseHandler(logger),
		studentService: studentService,
	}
}

// GetMyRecords lists the caller's exam records
// @Summary List my exam records
// @Tags students
// @Produce json
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size"
// @Param status query int false "Record status"
// @Success 200 {object} models.PaginatedResponse
// @Router /my/records [get]
func (h *StudentHandler) GetMyRecords(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	params := models.ListRecordsParams{
		Page:    h.parseIntQuery(c, "page", 0),
		Size:    h.parseIntQuery(c, "size", 20),
		SortBy:  c.Query("sort_by"),
		SortDir: c.Query("sort_dir"),
	}
	if examID := h.parseIntQuery(c, "exam_id", 0); examID > 0 {
		id := uint(examID)
		params.ExamID = &id
	}
	if status := h.parseIntQuery(c, "status", 0); status > 0 {
		s := models.RecordStatus(status)
		params.Status = &s
	}

	records, err := h.studentService.MyRecords(c.Request.Context(), userID, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetMyRecordDetail shows one of the caller's records with answers
// @Summary Get my exam record detail
// @Tags students
// @Produce json
// @Param id path uint true "Record ID"
// @Success 200 {object} services.StudentRecordDetail
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /my/records/{id} [get]
func (h *StudentHandler) GetMyRecordDetail(c *gin.Context) {
	recordID := h.parseIDParam(c, "id")
	if recordID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	detail, err := h.studentService.RecordDetail(c.Request.Context(), recordID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
