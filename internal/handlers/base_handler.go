package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/examtaking-service/internal/services"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler shares.
type BaseHandler struct {
	logger *slog.Logger
}

func NewBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.Request.URL.Path)
	if requestID, ok := c.Get("request_id"); ok {
		args = append(args, "request_id", requestID)
	}
	h.logger.Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string) {
	h.logger.Error(msg, "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleServiceError maps service errors onto HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{"rule": businessRuleError.Rule},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{"action": permissionError.Action},
		})
		return
	}

	switch {
	// Not found
	case errors.Is(err, services.ErrExamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam not found"})
	case errors.Is(err, services.ErrPaperNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam paper not found"})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam record not found"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrAnswerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No answer recorded for question"})

	// Exam window / status
	case errors.Is(err, services.ErrExamNotPublished):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Exam is not published"})
	case errors.Is(err, services.ErrExamNotStarted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam has not started yet"})
	case errors.Is(err, services.ErrExamEnded):
		c.JSON(http.StatusGone, ErrorResponse{Message: "Exam has already ended"})
	case errors.Is(err, services.ErrExamHasRecords):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam has existing records"})

	// Session state
	case errors.Is(err, services.ErrSessionAlreadyStarted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam already started"})
	case errors.Is(err, services.ErrSessionAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam already submitted"})
	case errors.Is(err, services.ErrSessionNotInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam record is not in progress"})
	case errors.Is(err, services.ErrSessionTimeExpired):
		c.JSON(http.StatusGone, ErrorResponse{Message: "Exam time has expired"})
	case errors.Is(err, services.ErrRecordNotSubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam record has not been submitted"})
	case errors.Is(err, services.ErrRecordNotOwned):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Exam record belongs to another user"})

	// Grading
	case errors.Is(err, services.ErrQuestionNotInPaper):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Question does not belong to the exam paper"})
	case errors.Is(err, services.ErrQuestionNotSubjective):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Question is not manually gradable"})
	case errors.Is(err, services.ErrScoreExceedsMax):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Score exceeds the question full score"})

	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
