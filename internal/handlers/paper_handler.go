package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/services"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

type PaperHandler struct {
	BaseHandler
	paperService services.PaperService
	validator    *validator.Validator
}

func NewPaperHandler(paperService services.PaperService, validator *validator.Validator, logger *slog.Logger) *PaperHandler {
	return &PaperHandler{
		BaseHandler:  NewBaseHandler(logger),
		paperService: paperService,
		validator:    validator,
	}
}

// CreatePaper creates an empty exam paper
// @Summary Create exam paper
// @Tags papers
// @Accept json
// @Produce json
// @Param paper body models.PaperCreateRequest true "Paper data"
// @Success 201 {object} services.PaperResponse
// @Failure 400 {object} ErrorResponse
// @Router /papers [post]
func (h *PaperHandler) CreatePaper(c *gin.Context) {
	var req models.PaperCreateRequest
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

	h.LogRequest(c, "Creating exam paper", "name", req.Name)

	paper, err := h.paperService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, paper)
}

// GetPaper returns one paper with its question count
// @Summary Get exam paper
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {object} services.PaperResponse
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id} [get]
func (h *PaperHandler) GetPaper(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	paper, err := h.paperService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paper)
}

// DeletePaper removes a paper
// @Summary Delete exam paper
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id} [delete]
func (h *PaperHandler) DeletePaper(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if err := h.paperService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Paper deleted"})
}

// GetPaperQuestions lists paper questions in display order
// @Summary Get paper questions
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {array} models.ExamPaperQuestion
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id}/questions [get]
func (h *PaperHandler) GetPaperQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	questions, err := h.paperService.GetQuestions(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// AddPaperQuestion places a question into the paper
// @Summary Add question to paper
// @Description Adds a question and recalculates the paper total score
// @Tags papers
// @Accept json
// @Produce json
// @Param id path uint true "Paper ID"
// @Param question body models.PaperQuestionRequest true "Question placement"
// @Success 200 {object} services.PaperResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /papers/{id}/questions [post]
func (h *PaperHandler) AddPaperQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.PaperQuestionRequest
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

	h.LogRequest(c, "Adding question to paper", "paper_id", id, "question_id", req.QuestionID)

	paper, err := h.paperService.AddQuestion(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paper)
}

// RemovePaperQuestion takes a question out of the paper
// @Summary Remove question from paper
// @Description Removes a question and recalculates the paper total score
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Param question_id path uint true "Question ID"
// @Success 200 {object} services.PaperResponse
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id}/questions/{question_id} [delete]
func (h *PaperHandler) RemovePaperQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Removing question from paper", "paper_id", id, "question_id", questionID)

	paper, err := h.paperService.RemoveQuestion(c.Request.Context(), id, questionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paper)
}
