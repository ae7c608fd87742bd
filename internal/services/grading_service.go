package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/events"
	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

type gradingService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewGradingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) GradingService {
	return &gradingService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== MANUAL GRADING =====

func (s *gradingService) GradeQuestion(ctx context.Context, recordID uint, req *models.GradeQuestionRequest, graderID string) (*GradingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	gctx, err := s.loadGradingContext(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if err := gctx.checkGrade(req.QuestionID, req.Score); err != nil {
		return nil, err
	}

	var result *GradingResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.applyGrade(ctx, tx, gctx, req.QuestionID, req.Score, graderID)
		if txErr != nil {
			return txErr
		}
		return s.recomputeRecord(ctx, tx, gctx, true)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grade question: %w", err)
	}

	s.publishGraded(gctx, graderID)

	s.logger.Info("Question graded",
		"record_id", recordID,
		"question_id", req.QuestionID,
		"score", req.Score,
		"grader_id", graderID)

	return result, nil
}

func (s *gradingService) GradeQuestions(ctx context.Context, recordID uint, req *models.GradeQuestionsRequest, graderID string) (*RecordGradingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	gctx, err := s.loadGradingContext(ctx, recordID)
	if err != nil {
		return nil, err
	}

	// Validate the whole batch before touching anything. One bad score
	// rejects the request with no partial writes.
	for questionID, score := range req.Scores {
		if err := gctx.checkGrade(questionID, score); err != nil {
			return nil, err
		}
	}

	results := make([]GradingResult, 0, len(req.Scores))
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for questionID, score := range req.Scores {
			res, txErr := s.applyGrade(ctx, tx, gctx, questionID, score, graderID)
			if txErr != nil {
				return txErr
			}
			results = append(results, *res)
		}
		return s.recomputeRecord(ctx, tx, gctx, true)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grade questions: %w", err)
	}

	s.publishGraded(gctx, graderID)

	s.logger.Info("Record graded",
		"record_id", recordID,
		"question_count", len(req.Scores),
		"grader_id", graderID)

	return s.buildRecordResult(gctx, results), nil
}

// ===== AUTO GRADING =====

// AutoGradeRecord rescores every objective answer from scratch and
// recomputes the record totals without touching the status. Running it
// twice yields the same result.
func (s *gradingService) AutoGradeRecord(ctx context.Context, recordID uint) (*RecordGradingResult, error) {
	gctx, err := s.loadGradingContext(ctx, recordID)
	if err != nil {
		return nil, err
	}

	var results []GradingResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, ans := range gctx.answers {
			pq, ok := gctx.paperQuestions[ans.QuestionID]
			if !ok || !pq.Question.Type.IsObjective() {
				continue
			}

			score := 0.0
			correct := ans.Answer == pq.Question.CanonicalAnswer()
			if correct {
				score = pq.Score
			}
			if err := s.repo.Answer().UpdateScore(ctx, tx, ans.ID, score, nil); err != nil {
				return fmt.Errorf("failed to score answer %d: %w", ans.ID, err)
			}
			ans.Score = &score

			results = append(results, GradingResult{
				AnswerID:   ans.ID,
				QuestionID: ans.QuestionID,
				Score:      score,
				MaxScore:   pq.Score,
				IsCorrect:  correct,
				GradedAt:   time.Now(),
			})
		}
		return s.recomputeRecord(ctx, tx, gctx, false)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to auto-grade record: %w", err)
	}

	return s.buildRecordResult(gctx, results), nil
}

func (s *gradingService) AutoGradeExam(ctx context.Context, examID uint) (map[uint]*RecordGradingResult, error) {
	records, err := s.repo.Record().GetByExam(ctx, s.db, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam records: %w", err)
	}

	results := make(map[uint]*RecordGradingResult, len(records))
	for _, record := range records {
		if !record.IsSubmitted() {
			continue
		}
		res, err := s.AutoGradeRecord(ctx, record.ID)
		if err != nil {
			s.logger.Error("Failed to auto-grade record", "record_id", record.ID, "error", err)
			continue
		}
		results[record.ID] = res
	}

	s.logger.Info("Exam auto-graded", "exam_id", examID, "record_count", len(results))
	return results, nil
}

// ===== GRADER VIEWS =====

func (s *gradingService) ListPendingGrading(ctx context.Context, examID uint, page, size int) (*models.PaginatedResponse, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}

	records, total, err := s.repo.Record().ListPendingGrading(ctx, s.db, examID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &models.PaginatedResponse{
		Content:       records,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Page:          page,
	}, nil
}

func (s *gradingService) RecordAnswers(ctx context.Context, recordID uint) (*RecordAnswersView, error) {
	gctx, err := s.loadGradingContext(ctx, recordID)
	if err != nil {
		return nil, err
	}

	answers := make([]AnswerForGrading, 0, len(gctx.answers))
	for _, ans := range gctx.answers {
		pq, ok := gctx.paperQuestions[ans.QuestionID]
		if !ok {
			continue
		}
		answers = append(answers, AnswerForGrading{
			AnswerID:    ans.ID,
			QuestionID:  ans.QuestionID,
			Type:        pq.Question.Type,
			Stem:        pq.Question.Stem,
			Options:     pq.Question.Options,
			Correct:     pq.Question.CanonicalAnswer(),
			Answer:      ans.Answer,
			MaxScore:    pq.Score,
			Score:       ans.Score,
			IsObjective: pq.Question.Type.IsObjective(),
		})
	}

	return &RecordAnswersView{Record: gctx.record, Answers: answers}, nil
}
