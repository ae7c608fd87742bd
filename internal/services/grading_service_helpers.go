package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/events"
	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

// gradingContext bundles everything grading needs about one record:
// the record itself, its paper questions keyed by question id, and the
// answers keyed the same way.
type gradingContext struct {
	record         *models.ExamRecord
	exam           *models.Exam
	paperQuestions map[uint]*models.ExamPaperQuestion
	answers        []*models.ExamAnswer
	answersByQ     map[uint]*models.ExamAnswer
}

func (s *gradingService) loadGradingContext(ctx context.Context, recordID uint) (*gradingContext, error) {
	record, err := s.repo.Record().GetByID(ctx, s.db, recordID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get exam record: %w", err)
	}
	if !record.IsSubmitted() {
		return nil, ErrRecordNotSubmitted
	}

	exam, err := s.repo.Exam().GetByID(ctx, s.db, record.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	pqs, err := s.repo.Paper().GetQuestions(ctx, s.db, exam.PaperID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paper questions: %w", err)
	}
	paperQuestions := make(map[uint]*models.ExamPaperQuestion, len(pqs))
	for _, pq := range pqs {
		paperQuestions[pq.QuestionID] = pq
	}

	answers, err := s.repo.Answer().GetByRecord(ctx, s.db, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	answersByQ := make(map[uint]*models.ExamAnswer, len(answers))
	for _, a := range answers {
		answersByQ[a.QuestionID] = a
	}

	return &gradingContext{
		record:         record,
		exam:           exam,
		paperQuestions: paperQuestions,
		answers:        answers,
		answersByQ:     answersByQ,
	}, nil
}

// checkGrade validates one manual grade without mutating anything.
func (g *gradingContext) checkGrade(questionID uint, score float64) error {
	pq, ok := g.paperQuestions[questionID]
	if !ok {
		return ErrQuestionNotInPaper
	}
	if pq.Question.Type.IsObjective() {
		return ErrQuestionNotSubjective
	}
	if _, ok := g.answersByQ[questionID]; !ok {
		return ErrAnswerNotFound
	}
	if score < 0 {
		return NewValidationError("score", "score must not be negative")
	}
	if score > pq.Score {
		return ErrScoreExceedsMax
	}
	return nil
}

func (s *gradingService) applyGrade(ctx context.Context, tx *gorm.DB, gctx *gradingContext, questionID uint, score float64, graderID string) (*GradingResult, error) {
	ans := gctx.answersByQ[questionID]
	pq := gctx.paperQuestions[questionID]

	if err := s.repo.Answer().UpdateScore(ctx, tx, ans.ID, score, &graderID); err != nil {
		return nil, fmt.Errorf("failed to update answer score: %w", err)
	}
	ans.Score = &score

	now := time.Now()
	return &GradingResult{
		AnswerID:   ans.ID,
		QuestionID: questionID,
		Score:      score,
		MaxScore:   pq.Score,
		IsCorrect:  score == pq.Score,
		GradedAt:   now,
		GradedBy:   &graderID,
	}, nil
}

// recomputeRecord rebuilds the record totals from the answer rows rather
// than patching deltas. Unscored answers contribute nothing. Manual
// grading passes finalize=true and moves the record straight to graded;
// auto grading passes false and leaves the status untouched.
func (s *gradingService) recomputeRecord(ctx context.Context, tx *gorm.DB, gctx *gradingContext, finalize bool) error {
	objective := 0.0
	subjective := 0.0

	for _, ans := range gctx.answers {
		pq, ok := gctx.paperQuestions[ans.QuestionID]
		if !ok || ans.Score == nil {
			continue
		}
		if pq.Question.Type.IsObjective() {
			objective += *ans.Score
		} else {
			subjective += *ans.Score
		}
	}

	total := objective + subjective
	record := gctx.record
	record.ObjectiveScore = objective
	record.SubjectiveScore = subjective
	record.TotalScore = &total
	if finalize {
		record.Status = models.RecordGraded
	}

	if err := s.repo.Record().Update(ctx, tx, record); err != nil {
		return fmt.Errorf("failed to update exam record: %w", err)
	}
	return nil
}

func (s *gradingService) buildRecordResult(gctx *gradingContext, questions []GradingResult) *RecordGradingResult {
	record := gctx.record
	total := 0.0
	if record.TotalScore != nil {
		total = *record.TotalScore
	}
	return &RecordGradingResult{
		RecordID:        record.ID,
		Status:          record.Status,
		ObjectiveScore:  record.ObjectiveScore,
		SubjectiveScore: record.SubjectiveScore,
		TotalScore:      total,
		IsPassing:       total >= PassThreshold,
		Questions:       questions,
		GradedAt:        time.Now(),
	}
}

func (s *gradingService) publishGraded(gctx *gradingContext, graderID string) {
	if s.publisher == nil {
		return
	}

	record := gctx.record
	total := 0.0
	if record.TotalScore != nil {
		total = *record.TotalScore
	}

	event := events.NewEvent(events.RecordGraded, events.RecordGradedEvent{
		RecordID:        record.ID,
		ExamID:          record.ExamID,
		UserID:          record.UserID,
		ObjectiveScore:  record.ObjectiveScore,
		SubjectiveScore: record.SubjectiveScore,
		TotalScore:      total,
		GradedBy:        graderID,
	})
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
