package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/events"
	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

const defaultDurationMinutes = 60

// ===== LOADING =====

func (s *sessionService) loadExamWithPaper(ctx context.Context, examID uint) (*models.Exam, *models.ExamPaper, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("failed to get exam: %w", err)
	}

	paper, err := s.repo.Paper().GetByID(ctx, s.db, exam.PaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrPaperNotFound
		}
		return nil, nil, fmt.Errorf("failed to get exam paper: %w", err)
	}

	return exam, paper, nil
}

// loadSession fetches the caller's record for an exam plus the exam and
// its paper. Missing record maps to ErrSessionNotFound.
func (s *sessionService) loadSession(ctx context.Context, examID uint, userID string) (*models.ExamRecord, *models.Exam, *models.ExamPaper, error) {
	exam, paper, err := s.loadExamWithPaper(ctx, examID)
	if err != nil {
		return nil, nil, nil, err
	}

	record, err := s.repo.Record().GetByExamAndUser(ctx, s.db, examID, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, nil, ErrSessionNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to get exam record: %w", err)
	}

	return record, exam, paper, nil
}

func (s *sessionService) paperQuestionSet(ctx context.Context, paperID uint) (map[uint]*models.ExamPaperQuestion, error) {
	pqs, err := s.repo.Paper().GetQuestions(ctx, s.db, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paper questions: %w", err)
	}
	set := make(map[uint]*models.ExamPaperQuestion, len(pqs))
	for _, pq := range pqs {
		set[pq.QuestionID] = pq
	}
	return set, nil
}

// ===== TIMING =====

// examDurationMinutes resolves the working time for a sitting: the paper
// duration when set, otherwise the exam window length, otherwise an hour.
func examDurationMinutes(exam *models.Exam, paper *models.ExamPaper) int {
	if paper.Duration > 0 {
		return paper.Duration
	}
	window := int(exam.EndTime.Sub(exam.StartTime) / time.Minute)
	if window > 0 {
		return window
	}
	return defaultDurationMinutes
}

// effectiveEnd is when the session actually closes: start plus duration,
// clamped to the exam window end.
func effectiveEnd(startTime time.Time, durationMinutes int, examEnd time.Time) time.Time {
	end := startTime.Add(time.Duration(durationMinutes) * time.Minute)
	if examEnd.Before(end) {
		return examEnd
	}
	return end
}

func remainingSeconds(now, end time.Time) int64 {
	if !now.Before(end) {
		return 0
	}
	return int64(end.Sub(now) / time.Second)
}

// requireInProgress guards every mid-session operation. A session at or
// past its effective end is expired even when the row still says
// in_progress.
func (s *sessionService) requireInProgress(record *models.ExamRecord, exam *models.Exam, paper *models.ExamPaper, now time.Time) error {
	if record.IsSubmitted() {
		return ErrSessionAlreadySubmitted
	}
	if record.Status != models.RecordInProgress {
		return ErrSessionNotInProgress
	}

	end := effectiveEnd(record.StartTime, examDurationMinutes(exam, paper), exam.EndTime)
	if !now.Before(end) {
		return ErrSessionTimeExpired
	}
	return nil
}

// ===== VIEWS =====

func (s *sessionService) buildSessionView(record *models.ExamRecord, exam *models.Exam, paper *models.ExamPaper, now time.Time) SessionView {
	duration := examDurationMinutes(exam, paper)
	end := effectiveEnd(record.StartTime, duration, exam.EndTime)

	remaining := remainingSeconds(now, end)
	if record.IsSubmitted() {
		remaining = 0
	}

	return SessionView{
		RecordID:         record.ID,
		ExamID:           exam.ID,
		ExamName:         exam.Name,
		Status:           record.Status,
		StartTime:        record.StartTime,
		SubmitTime:       record.SubmitTime,
		DurationMinutes:  duration,
		EffectiveEnd:     end,
		RemainingSeconds: remaining,
	}
}

func (s *sessionService) buildQuestionViews(ctx context.Context, record *models.ExamRecord, paper *models.ExamPaper) ([]QuestionView, error) {
	pqs, err := s.repo.Paper().GetQuestions(ctx, s.db, paper.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paper questions: %w", err)
	}

	answers, err := s.repo.Answer().GetByRecord(ctx, s.db, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	answered := make(map[uint]string, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = a.Answer
	}

	views := make([]QuestionView, 0, len(pqs))
	for _, pq := range pqs {
		views = append(views, QuestionView{
			QuestionID: pq.QuestionID,
			Type:       pq.Question.Type,
			Stem:       pq.Question.Stem,
			Options:    pq.Question.Options,
			Score:      pq.Score,
			Order:      pq.Order,
			Answer:     answered[pq.QuestionID],
		})
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Order < views[j].Order })
	return views, nil
}

// ===== ANSWER PERSISTENCE =====

func (s *sessionService) upsertAnswer(ctx context.Context, recordID, questionID uint, answer string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Answer().Upsert(ctx, tx, &models.ExamAnswer{
			RecordID:   recordID,
			QuestionID: questionID,
			Answer:     answer,
		})
	})
}

// ===== SUBMISSION GRADING =====

// gradeObjectiveAndSubmit scores every objective answer by exact string
// comparison against the canonical answer, full score or nothing, then
// closes the record. Subjective answers keep a nil score for the grader.
func (s *sessionService) gradeObjectiveAndSubmit(ctx context.Context, tx *gorm.DB, record *models.ExamRecord, paper *models.ExamPaper) (*SubmitResult, error) {
	pqs, err := s.repo.Paper().GetQuestions(ctx, tx, paper.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paper questions: %w", err)
	}

	answers, err := s.repo.Answer().GetByRecord(ctx, tx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	answerMap := make(map[uint]*models.ExamAnswer, len(answers))
	for _, a := range answers {
		answerMap[a.QuestionID] = a
	}

	objective := 0.0
	pendingManual := 0
	for _, pq := range pqs {
		ans, ok := answerMap[pq.QuestionID]
		if !pq.Question.Type.IsObjective() {
			if ok {
				pendingManual++
			}
			continue
		}
		if !ok {
			continue // unanswered scores zero without a row
		}

		score := 0.0
		if ans.Answer == pq.Question.CanonicalAnswer() {
			score = pq.Score
		}
		if err := s.repo.Answer().UpdateScore(ctx, tx, ans.ID, score, nil); err != nil {
			return nil, fmt.Errorf("failed to score answer %d: %w", ans.ID, err)
		}
		objective += score
	}

	now := time.Now()
	total := objective
	record.Status = models.RecordSubmitted
	record.SubmitTime = &now
	record.ObjectiveScore = objective
	record.SubjectiveScore = 0
	record.TotalScore = &total

	if err := s.repo.Record().Update(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("failed to update exam record: %w", err)
	}

	return &SubmitResult{
		RecordID:        record.ID,
		Status:          record.Status,
		SubmitTime:      now,
		ObjectiveScore:  objective,
		SubjectiveScore: 0,
		TotalScore:      total,
		PendingManual:   pendingManual,
	}, nil
}

// ===== MISC =====

// roleAllowed checks the comma-separated allow list. An empty list means
// the exam is open to everyone.
func roleAllowed(allowRoles string, roles []string) bool {
	allowRoles = strings.TrimSpace(allowRoles)
	if allowRoles == "" {
		return true
	}
	allowed := strings.Split(allowRoles, ",")
	for _, want := range allowed {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		for _, have := range roles {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

func (s *sessionService) publishEvent(event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
