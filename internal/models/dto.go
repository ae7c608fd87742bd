package models

import (
	"time"
)

type ExamCreateRequest struct {
	PaperID    uint      `json:"paper_id" validate:"required"`
	Name       string    `json:"name" validate:"required,min=2,max=255"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
	AllowRoles string    `json:"allow_roles" validate:"omitempty,max=255"`
	Publish    bool      `json:"publish"` // create directly in published state
}

type ExamUpdateRequest struct {
	Name       *string    `json:"name" validate:"omitempty,min=2,max=255"`
	StartTime  *time.Time `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	AllowRoles *string    `json:"allow_roles" validate:"omitempty,max=255"`
}

type PaperCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Duration    int    `json:"duration" validate:"min=0,max=600"` // minutes
}

type PaperQuestionRequest struct {
	QuestionID uint     `json:"question_id" validate:"required"`
	Score      *float64 `json:"score" validate:"omitempty,gt=0"` // defaults to the question's own score
	Order      int      `json:"order" validate:"min=0"`
}

type SaveAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Answer     string `json:"answer"` // empty clears the answer
}

type SaveAnswersRequest struct {
	Answers map[uint]string `json:"answers" validate:"required,min=1"`
}

type CheatEventRequest struct {
	CheatType string `json:"cheat_type" validate:"required,max=64"`
}

type GradeQuestionRequest struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	Score      float64 `json:"score" validate:"min=0"`
}

type GradeQuestionsRequest struct {
	Scores map[uint]float64 `json:"scores" validate:"required,min=1"`
}

// ===== PAGINATION =====

type ListExamsParams struct {
	Page      int        `json:"page" validate:"min=0"`
	Size      int        `json:"size" validate:"min=1,max=100"`
	Status    ExamStatus `json:"status"`
	Search    string     `json:"search"`
	CreatedBy *string    `json:"created_by"`
	SortBy    string     `json:"sort_by"`
	SortDir   string     `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type ListRecordsParams struct {
	Page    int           `json:"page" validate:"min=0"`
	Size    int           `json:"size" validate:"min=1,max=100"`
	ExamID  *uint         `json:"exam_id"`
	UserID  *string       `json:"user_id"`
	Status  *RecordStatus `json:"status"`
	SortBy  string        `json:"sort_by"`
	SortDir string        `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type PaginatedResponse struct {
	Content       interface{} `json:"content"`
	TotalElements int64       `json:"total_elements"`
	TotalPages    int         `json:"total_pages"`
	Size          int         `json:"size"`
	Page          int         `json:"page"`
}

// ===== ERROR RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

type ErrorResponse struct {
	Error            string                    `json:"error"`
	Message          string                    `json:"message"`
	Code             string                    `json:"code"`
	Timestamp        time.Time                 `json:"timestamp"`
	Path             string                    `json:"path"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
