package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

// Sentinel errors. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotPublished = errors.New("exam is not published")
	ErrExamNotStarted   = errors.New("exam has not started yet")
	ErrExamEnded        = errors.New("exam has already ended")
	ErrExamHasRecords   = errors.New("exam has existing records")

	ErrPaperNotFound = errors.New("exam paper not found")

	ErrSessionNotFound         = errors.New("exam record not found")
	ErrSessionAlreadyStarted   = errors.New("exam already started")
	ErrSessionAlreadySubmitted = errors.New("exam already submitted")
	ErrSessionNotInProgress    = errors.New("exam record is not in progress")
	ErrSessionTimeExpired      = errors.New("exam time has expired")

	ErrQuestionNotFound      = errors.New("question not found")
	ErrAnswerNotFound        = errors.New("no answer recorded for question")
	ErrRecordNotSubmitted    = errors.New("exam record has not been submitted")
	ErrQuestionNotInPaper    = errors.New("question does not belong to the exam paper")
	ErrQuestionNotSubjective = errors.New("question is not manually gradable")
	ErrScoreExceedsMax       = errors.New("score exceeds the question full score")

	ErrRecordNotOwned = errors.New("exam record belongs to another user")
)

// Re-exported so callers only import the services package.
type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

// BusinessRuleError is a named rule violation that is not a field error.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

// PermissionError marks an operation the caller is not allowed to perform.
type PermissionError struct {
	UserID string
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s", e.UserID, e.Action)
}

func NewPermissionError(userID, action string) *PermissionError {
	return &PermissionError{UserID: userID, Action: action}
}
