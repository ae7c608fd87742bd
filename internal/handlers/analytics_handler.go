package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/examtaking-service/internal/services"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
	exportService    services.ExportService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, exportService services.ExportService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
		exportService:    exportService,
	}
}

// GetExamStatistics aggregates scores and pass rate for an exam
// @Summary Get exam statistics
// @Tags analytics
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamStatistics
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/statistics [get]
func (h *AnalyticsHandler) GetExamStatistics(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	stats, err := h.analyticsService.ExamStatistics(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetWrongQuestionAnalysis ranks questions by wrong answer rate
// @Summary Get wrong question analysis
// @Tags analytics
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {array} services.WrongQuestionStat
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/wrong-questions [get]
func (h *AnalyticsHandler) GetWrongQuestionAnalysis(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	stats, err := h.analyticsService.WrongQuestionAnalysis(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetCheatLogs lists proctoring counters for an exam
// @Summary Get cheat logs
// @Tags analytics
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {array} models.ExamCheatLog
// @Router /exams/{id}/cheat-logs [get]
func (h *AnalyticsHandler) GetCheatLogs(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	logs, err := h.analyticsService.CheatLogs(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// ExportStatistics downloads the statistics workbook
// @Summary Export exam statistics as xlsx
// @Tags analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Exam ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/statistics/export [get]
func (h *AnalyticsHandler) ExportStatistics(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Exporting exam statistics", "exam_id", examID)

	data, filename, err := h.exportService.ExportStatistics(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
