package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/services"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	validator      *validator.Validator
}

func NewSessionHandler(sessionService services.SessionService, validator *validator.Validator, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		validator:      validator,
	}
}

// StartSession opens a new exam session for the caller
// @Summary Start exam session
// @Description Opens a session for an open published exam; one per user per exam
// @Tags sessions
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 201 {object} services.SessionView
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /exams/{id}/session/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Starting exam session", "exam_id", examID)

	view, err := h.sessionService.Start(c.Request.Context(), examID, userID, GetUserRolesFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSessionStatus reports progress and remaining time
// @Summary Get session status
// @Tags sessions
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.SessionStatus
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/session [get]
func (h *SessionHandler) GetSessionStatus(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	status, err := h.sessionService.Status(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetSessionQuestions returns the paper questions without answers
// @Summary Get session questions
// @Tags sessions
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {array} services.QuestionView
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /exams/{id}/session/questions [get]
func (h *SessionHandler) GetSessionQuestions(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	questions, err := h.sessionService.Questions(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// ContinueSession resumes an in-progress session
// @Summary Continue exam session
// @Description Returns status plus questions with previously saved answers
// @Tags sessions
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ContinueView
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /exams/{id}/session/continue [get]
func (h *SessionHandler) ContinueSession(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Continuing exam session", "exam_id", examID)

	view, err := h.sessionService.Continue(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SaveAnswer stores a single answer, last write wins
// @Summary Save one answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param answer body models.SaveAnswerRequest true "Answer payload"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /exams/{id}/session/answer [put]
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	var req models.SaveAnswerRequest
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

	if err := h.sessionService.SaveAnswer(c.Request.Context(), examID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer saved"})
}

// SaveAnswers stores a batch of answers with per-question results
// @Summary Save answers in batch
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param answers body models.SaveAnswersRequest true "Answers payload"
// @Success 200 {object} services.SaveAnswersResult
// @Failure 400 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /exams/{id}/session/answers [put]
func (h *SessionHandler) SaveAnswers(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	var req models.SaveAnswersRequest
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

	h.LogRequest(c, "Saving answers", "exam_id", examID, "count", len(req.Answers))

	result, err := h.sessionService.SaveAnswers(c.Request.Context(), examID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitSession closes the session and grades objective answers
// @Summary Submit exam session
// @Tags sessions
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.SubmitResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id}/session/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Submitting exam session", "exam_id", examID)

	result, err := h.sessionService.Submit(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LogCheatEvent increments the caller's counter for a cheat type
// @Summary Log a proctoring event
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param event body models.CheatEventRequest true "Event payload"
// @Success 200 {object} models.ExamCheatLog
// @Failure 400 {object} ErrorResponse
// @Router /exams/{id}/session/cheat [post]
func (h *SessionHandler) LogCheatEvent(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	var req models.CheatEventRequest
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

	log, err := h.sessionService.LogCheatEvent(c.Request.Context(), examID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}
