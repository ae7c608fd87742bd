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

type sessionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewSessionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SessionService {
	return &sessionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) Start(ctx context.Context, examID uint, userID string, roles []string) (*SessionView, error) {
	s.logger.Info("Starting exam session",
		"exam_id", examID,
		"user_id", userID)

	exam, paper, err := s.loadExamWithPaper(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if exam.Status != models.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}
	if now.Before(exam.StartTime) {
		return nil, ErrExamNotStarted
	}
	if !now.Before(exam.EndTime) {
		return nil, ErrExamEnded
	}
	if !roleAllowed(exam.AllowRoles, roles) {
		return nil, NewPermissionError(userID, fmt.Sprintf("take exam %d", examID))
	}

	// Check for an existing session first. The unique index on
	// (exam_id, user_id) is the real guard; this just gives a clean
	// error without burning a failed insert on the common path.
	existing, err := s.repo.Record().GetByExamAndUser(ctx, s.db, examID, userID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing record: %w", err)
	}
	if existing != nil {
		if existing.IsSubmitted() {
			return nil, ErrSessionAlreadySubmitted
		}
		return nil, ErrSessionAlreadyStarted
	}

	record := &models.ExamRecord{
		ExamID:    examID,
		UserID:    userID,
		StartTime: now,
		Status:    models.RecordInProgress,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Record().Create(ctx, tx, record)
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrSessionAlreadyStarted
		}
		return nil, fmt.Errorf("failed to create exam record: %w", err)
	}

	s.publishEvent(events.NewEvent(events.SessionStarted, events.SessionStartedEvent{
		RecordID:  record.ID,
		ExamID:    examID,
		UserID:    userID,
		StartTime: record.StartTime,
	}))

	s.logger.Info("Exam session started", "record_id", record.ID, "exam_id", examID, "user_id", userID)

	view := s.buildSessionView(record, exam, paper, now)
	return &view, nil
}

func (s *sessionService) Status(ctx context.Context, examID uint, userID string) (*SessionStatus, error) {
	record, exam, paper, err := s.loadSession(ctx, examID, userID)
	if err != nil {
		return nil, err
	}

	answers, err := s.repo.Answer().GetByRecord(ctx, s.db, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	cheatLogs, err := s.repo.CheatLog().GetByExamAndUser(ctx, s.db, examID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cheat logs: %w", err)
	}
	cheatCount := 0
	for _, cl := range cheatLogs {
		cheatCount += cl.Count
	}

	paperQuestions, err := s.repo.Paper().GetQuestions(ctx, s.db, paper.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paper questions: %w", err)
	}

	status := &SessionStatus{
		SessionView:   s.buildSessionView(record, exam, paper, time.Now()),
		QuestionCount: len(paperQuestions),
		AnsweredCount: len(answers),
		CheatCount:    cheatCount,
		TotalScore:    record.TotalScore,
	}
	return status, nil
}

func (s *sessionService) Questions(ctx context.Context, examID uint, userID string) ([]QuestionView, error) {
	record, exam, paper, err := s.loadSession(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireInProgress(record, exam, paper, time.Now()); err != nil {
		return nil, err
	}

	return s.buildQuestionViews(ctx, record, paper)
}

func (s *sessionService) Continue(ctx context.Context, examID uint, userID string) (*ContinueView, error) {
	status, err := s.Status(ctx, examID, userID)
	if err != nil {
		return nil, err
	}

	record, exam, paper, err := s.loadSession(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireInProgress(record, exam, paper, time.Now()); err != nil {
		return nil, err
	}

	questions, err := s.buildQuestionViews(ctx, record, paper)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exam session resumed", "record_id", record.ID, "exam_id", examID, "user_id", userID)

	return &ContinueView{SessionStatus: *status, Questions: questions}, nil
}

func (s *sessionService) Submit(ctx context.Context, examID uint, userID string) (*SubmitResult, error) {
	s.logger.Info("Submitting exam session", "exam_id", examID, "user_id", userID)

	record, _, paper, err := s.loadSession(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	if record.IsSubmitted() {
		return nil, ErrSessionAlreadySubmitted
	}
	if record.Status != models.RecordInProgress {
		return nil, ErrSessionNotInProgress
	}

	// Submission is allowed past the effective end so an expired session
	// can still be closed out; only answering is blocked by expiry.
	var result *SubmitResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result, err = s.gradeObjectiveAndSubmit(ctx, tx, record, paper)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit exam record: %w", err)
	}

	s.publishEvent(events.NewEvent(events.SessionSubmitted, events.SessionSubmittedEvent{
		RecordID:       record.ID,
		ExamID:         examID,
		UserID:         userID,
		SubmitTime:     result.SubmitTime,
		ObjectiveScore: result.ObjectiveScore,
		TotalScore:     result.TotalScore,
		PendingManual:  result.PendingManual,
	}))

	s.logger.Info("Exam session submitted",
		"record_id", record.ID,
		"objective_score", result.ObjectiveScore,
		"pending_manual", result.PendingManual)

	return result, nil
}

// ===== ANSWERING =====

func (s *sessionService) SaveAnswer(ctx context.Context, examID uint, req *models.SaveAnswerRequest, userID string) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	record, exam, paper, err := s.loadSession(ctx, examID, userID)
	if err != nil {
		return err
	}
	if err := s.requireInProgress(record, exam, paper, time.Now()); err != nil {
		return err
	}

	inPaper, err := s.paperQuestionSet(ctx, paper.ID)
	if err != nil {
		return err
	}
	if _, ok := inPaper[req.QuestionID]; !ok {
		return ErrQuestionNotInPaper
	}

	return s.upsertAnswer(ctx, record.ID, req.QuestionID, req.Answer)
}

func (s *sessionService) SaveAnswers(ctx context.Context, examID uint, req *models.SaveAnswersRequest, userID string) (*SaveAnswersResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	record, exam, paper, err := s.loadSession(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireInProgress(record, exam, paper, time.Now()); err != nil {
		return nil, err
	}

	inPaper, err := s.paperQuestionSet(ctx, paper.ID)
	if err != nil {
		return nil, err
	}

	// Each answer is saved independently so one bad question id does not
	// throw away the rest of the batch.
	result := &SaveAnswersResult{Results: make([]SaveAnswerResult, 0, len(req.Answers))}
	for questionID, answer := range req.Answers {
		item := SaveAnswerResult{QuestionID: questionID}
		if _, ok := inPaper[questionID]; !ok {
			item.Reason = ErrQuestionNotInPaper.Error()
		} else if err := s.upsertAnswer(ctx, record.ID, questionID, answer); err != nil {
			s.logger.Error("Failed to save answer",
				"record_id", record.ID,
				"question_id", questionID,
				"error", err)
			item.Reason = "failed to save answer"
		} else {
			item.Saved = true
			result.SavedCount++
		}
		result.Results = append(result.Results, item)
	}

	return result, nil
}

// ===== PROCTORING =====

func (s *sessionService) LogCheatEvent(ctx context.Context, examID uint, req *models.CheatEventRequest, userID string) (*models.ExamCheatLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	record, _, _, err := s.loadSession(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.RecordInProgress {
		return nil, ErrSessionNotInProgress
	}

	log, err := s.repo.CheatLog().Increment(ctx, s.db, examID, userID, req.CheatType, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to log cheat event: %w", err)
	}

	s.publishEvent(events.NewEvent(events.CheatLogged, events.CheatLoggedEvent{
		ExamID:    examID,
		UserID:    userID,
		CheatType: log.CheatType,
		Count:     log.Count,
		LastTime:  log.LastTime,
	}))

	s.logger.Info("Cheat event logged",
		"exam_id", examID,
		"user_id", userID,
		"cheat_type", req.CheatType,
		"count", log.Count)

	return log, nil
}
