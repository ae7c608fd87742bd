package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
)

// BusinessValidator handles business rule validation on top of struct tags.
type BusinessValidator struct {
	validate *validator.Validate
}

func newBusinessValidator(validate *validator.Validate) *BusinessValidator {
	return &BusinessValidator{validate: validate}
}

// ValidateExamCreate validates exam creation business rules.
func (bv *BusinessValidator) ValidateExamCreate(req *models.ExamCreateRequest) ValidationErrors {
	var errors ValidationErrors

	if err := bv.validate.Struct(req); err != nil {
		errors = append(errors, ToValidationErrors(err)...)
	}

	if !req.EndTime.After(req.StartTime) {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   req.EndTime,
			Rule:    "exam_window",
		})
	}

	if req.EndTime.Before(time.Now()) {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be in the future",
			Value:   req.EndTime,
			Rule:    "exam_window",
		})
	}

	return errors
}

// ValidateExamUpdate validates exam update business rules against the
// stored row.
func (bv *BusinessValidator) ValidateExamUpdate(req *models.ExamUpdateRequest, existing *models.Exam) ValidationErrors {
	var errors ValidationErrors

	if err := bv.validate.Struct(req); err != nil {
		errors = append(errors, ToValidationErrors(err)...)
	}

	start := existing.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	end := existing.EndTime
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if !end.After(start) {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   end,
			Rule:    "exam_window",
		})
	}

	return errors
}

// ValidatePublishTransition checks the draft/published/unpublished moves.
// Published exams may only be unpublished; unpublished exams stay that way.
func (bv *BusinessValidator) ValidatePublishTransition(current, next models.ExamStatus) ValidationErrors {
	allowed := map[models.ExamStatus][]models.ExamStatus{
		models.ExamStatusDraft:       {models.ExamStatusPublished},
		models.ExamStatusPublished:   {models.ExamStatusUnpublished},
		models.ExamStatusUnpublished: {},
	}

	for _, s := range allowed[current] {
		if next == s {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidateExamDelete checks whether an exam may be removed. Exams with
// any records are kept for audit.
func (bv *BusinessValidator) ValidateExamDelete(recordCount int64) ValidationErrors {
	if recordCount > 0 {
		return ValidationErrors{{
			Field:   "records",
			Message: "cannot delete an exam with existing records",
			Value:   recordCount,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// ValidatePaperQuestion validates adding a question to a paper.
func (bv *BusinessValidator) ValidatePaperQuestion(req *models.PaperQuestionRequest, defaultScore float64) ValidationErrors {
	var errors ValidationErrors

	if err := bv.validate.Struct(req); err != nil {
		errors = append(errors, ToValidationErrors(err)...)
	}

	score := defaultScore
	if req.Score != nil {
		score = *req.Score
	}
	if score <= 0 {
		errors = append(errors, ValidationError{
			Field:   "score",
			Message: "must be positive",
			Value:   score,
			Rule:    "business_logic",
		})
	}

	return errors
}

// registerCustomRules registers the tag validators shared across DTOs.
func registerCustomRules(v *validator.Validate) {
	v.RegisterValidation("exam_window", func(fl validator.FieldLevel) bool {
		// Enforced structurally in the business validators; the tag exists
		// so field errors carry a stable rule name.
		return true
	})

	v.RegisterValidation("cheat_type", func(fl validator.FieldLevel) bool {
		t := strings.TrimSpace(fl.Field().String())
		return t != "" && len(t) <= 64
	})

	v.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.QuestionSingle, models.QuestionMultiple, models.QuestionJudge,
			models.QuestionBlank, models.QuestionShort:
			return true
		}
		return false
	})
}
