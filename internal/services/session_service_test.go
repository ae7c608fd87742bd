package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/events"
	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

func TestNewSessionService(t *testing.T) {
	type args struct {
		repo      repositories.Repository
		db        *gorm.DB
		logger    *slog.Logger
		validator *validator.Validator
	}
	tests := []struct {
		name string
		args args
		want SessionService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewSessionService(tt.args.repo, tt.args.db, tt.args.logger, tt.args.validator, nil)
		})
	}
}

func TestExamDurationMinutes(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		paperDuration int
		windowMinutes int
		want          int
	}{
		{name: "paper duration wins", paperDuration: 45, windowMinutes: 120, want: 45},
		{name: "falls back to exam window", paperDuration: 0, windowMinutes: 90, want: 90},
		{name: "defaults to an hour", paperDuration: 0, windowMinutes: 0, want: 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exam := &models.Exam{
				StartTime: start,
				EndTime:   start.Add(time.Duration(tt.windowMinutes) * time.Minute),
			}
			paper := &models.ExamPaper{Duration: tt.paperDuration}

			if got := examDurationMinutes(exam, paper); got != tt.want {
				t.Errorf("examDurationMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEffectiveEnd(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("duration within window", func(t *testing.T) {
		examEnd := start.Add(3 * time.Hour)
		got := effectiveEnd(start, 60, examEnd)
		want := start.Add(time.Hour)
		if !got.Equal(want) {
			t.Errorf("effectiveEnd() = %v, want %v", got, want)
		}
	})

	t.Run("clamped to exam end", func(t *testing.T) {
		examEnd := start.Add(30 * time.Minute)
		got := effectiveEnd(start, 60, examEnd)
		if !got.Equal(examEnd) {
			t.Errorf("effectiveEnd() = %v, want %v", got, examEnd)
		}
	})
}

func TestRemainingSeconds(t *testing.T) {
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{name: "before end", now: end.Add(-90 * time.Second), want: 90},
		{name: "exactly at end", now: end, want: 0},
		{name: "after end", now: end.Add(time.Minute), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := remainingSeconds(tt.now, end); got != tt.want {
				t.Errorf("remainingSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRoleAllowed(t *testing.T) {
	tests := []struct {
		name       string
		allowRoles string
		roles      []string
		want       bool
	}{
		{name: "empty list is open", allowRoles: "", roles: nil, want: true},
		{name: "whitespace only is open", allowRoles: "  ", roles: []string{"student"}, want: true},
		{name: "exact match", allowRoles: "student", roles: []string{"student"}, want: true},
		{name: "case insensitive", allowRoles: "Student", roles: []string{"student"}, want: true},
		{name: "list with spaces", allowRoles: "teacher, admin", roles: []string{"admin"}, want: true},
		{name: "no match", allowRoles: "teacher", roles: []string{"student"}, want: false},
		{name: "no roles at all", allowRoles: "student", roles: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roleAllowed(tt.allowRoles, tt.roles); got != tt.want {
				t.Errorf("roleAllowed(%q, %v) = %v, want %v", tt.allowRoles, tt.roles, got, tt.want)
			}
		})
	}
}

func TestRequireInProgress(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	exam := &models.Exam{
		StartTime: start,
		EndTime:   start.Add(3 * time.Hour),
	}
	paper := &models.ExamPaper{Duration: 60}
	service := &sessionService{}

	tests := []struct {
		name    string
		status  models.RecordStatus
		now     time.Time
		wantErr error
	}{
		{name: "active session", status: models.RecordInProgress, now: start.Add(30 * time.Minute), wantErr: nil},
		{name: "submitted", status: models.RecordSubmitted, now: start.Add(30 * time.Minute), wantErr: ErrSessionAlreadySubmitted},
		{name: "graded", status: models.RecordGraded, now: start.Add(30 * time.Minute), wantErr: ErrSessionAlreadySubmitted},
		{name: "exactly at effective end", status: models.RecordInProgress, now: start.Add(time.Hour), wantErr: ErrSessionTimeExpired},
		{name: "past effective end", status: models.RecordInProgress, now: start.Add(2 * time.Hour), wantErr: ErrSessionTimeExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &models.ExamRecord{
				Status:    tt.status,
				StartTime: start,
			}
			err := service.requireInProgress(record, exam, paper, tt.now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("requireInProgress() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// submitFixture wires a one-record exam with a single-choice question worth
// 2, a short answer worth 7 and a multiple-choice worth 3.
func submitFixture() (*MockRepository, *models.ExamRecord, *models.ExamPaper) {
	repo := newMockRepository()

	single := &models.Question{ID: 1, Type: models.QuestionSingle, Stem: "capital of France", Answer: datatypes.JSON(`"A"`)}
	short := &models.Question{ID: 2, Type: models.QuestionShort, Stem: "explain caching"}
	multiple := &models.Question{ID: 3, Type: models.QuestionMultiple, Stem: "pick primes", Answer: datatypes.JSON(`"A,B"`)}
	repo.questions[1] = single
	repo.questions[2] = short
	repo.questions[3] = multiple

	paper := &models.ExamPaper{ID: 10, Name: "Midterm paper", TotalScore: 12, Duration: 60, CreatedBy: "teacher-1"}
	repo.papers[10] = paper
	repo.paperQuestions[10] = []*models.ExamPaperQuestion{
		{ID: 1, PaperID: 10, QuestionID: 1, Score: 2, Order: 1, Question: *single},
		{ID: 2, PaperID: 10, QuestionID: 2, Score: 7, Order: 2, Question: *short},
		{ID: 3, PaperID: 10, QuestionID: 3, Score: 3, Order: 3, Question: *multiple},
	}

	record := &models.ExamRecord{
		ID:        100,
		ExamID:    20,
		UserID:    "student-1",
		Status:    models.RecordInProgress,
		StartTime: time.Now().Add(-10 * time.Minute),
	}
	repo.records[100] = record

	return repo, record, paper
}

func TestSessionService_GradeObjectiveAndSubmit(t *testing.T) {
	repo, record, paper := submitFixture()
	repo.answers = []*models.ExamAnswer{
		{ID: 1, RecordID: 100, QuestionID: 1, Answer: "A"},
		{ID: 2, RecordID: 100, QuestionID: 2, Answer: "caches trade memory for latency"},
		{ID: 3, RecordID: 100, QuestionID: 3, Answer: "B,A"}, // order matters, counts as wrong
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := &sessionService{repo: repo, logger: logger}

	result, err := service.gradeObjectiveAndSubmit(context.Background(), nil, record, paper)
	if err != nil {
		t.Fatalf("gradeObjectiveAndSubmit() error = %v", err)
	}

	if result.ObjectiveScore != 2 {
		t.Errorf("ObjectiveScore = %v, want 2", result.ObjectiveScore)
	}
	if result.TotalScore != 2 {
		t.Errorf("TotalScore = %v, want 2", result.TotalScore)
	}
	if result.PendingManual != 1 {
		t.Errorf("PendingManual = %d, want 1", result.PendingManual)
	}
	if result.Status != models.RecordSubmitted {
		t.Errorf("Status = %v, want %v", result.Status, models.RecordSubmitted)
	}

	if record.Status != models.RecordSubmitted {
		t.Errorf("record status = %v, want submitted", record.Status)
	}
	if record.SubmitTime == nil {
		t.Error("record submit time should be set")
	}
	if record.TotalScore == nil || *record.TotalScore != 2 {
		t.Errorf("record total score = %v, want 2", record.TotalScore)
	}

	// Only the two objective answers get scored. The short answer stays
	// unscored for the grader.
	if len(repo.scoreUpdates) != 2 {
		t.Fatalf("expected 2 score updates, got %d", len(repo.scoreUpdates))
	}
	for _, u := range repo.scoreUpdates {
		if u.gradedBy != nil {
			t.Errorf("auto grading must not set graded_by, got %v", *u.gradedBy)
		}
		switch u.answerID {
		case 1:
			if u.score != 2 {
				t.Errorf("single choice score = %v, want 2", u.score)
			}
		case 3:
			if u.score != 0 {
				t.Errorf("multiple choice score = %v, want 0", u.score)
			}
		default:
			t.Errorf("unexpected score update for answer %d", u.answerID)
		}
	}
}

func TestSessionService_GradeObjectiveAndSubmit_NoAnswers(t *testing.T) {
	repo, record, paper := submitFixture()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := &sessionService{repo: repo, logger: logger}

	result, err := service.gradeObjectiveAndSubmit(context.Background(), nil, record, paper)
	if err != nil {
		t.Fatalf("gradeObjectiveAndSubmit() error = %v", err)
	}

	if result.ObjectiveScore != 0 || result.TotalScore != 0 {
		t.Errorf("empty submission scored %v/%v, want 0/0", result.ObjectiveScore, result.TotalScore)
	}
	if result.PendingManual != 0 {
		t.Errorf("PendingManual = %d, want 0", result.PendingManual)
	}
	if len(repo.scoreUpdates) != 0 {
		t.Errorf("unanswered questions must not produce score rows, got %d", len(repo.scoreUpdates))
	}
	if record.TotalScore == nil || *record.TotalScore != 0 {
		t.Errorf("record total score = %v, want 0", record.TotalScore)
	}
}

func TestSessionService_SaveAnswer_QuestionNotInPaper(t *testing.T) {
	repo, _, paper := submitFixture()

	exam := &models.Exam{
		ID:        20,
		PaperID:   paper.ID,
		Name:      "Midterm",
		Status:    models.ExamStatusPublished,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}
	repo.exams[20] = exam

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	v := validator.New()
	service := &sessionService{repo: repo, logger: logger, validator: v}

	req := &models.SaveAnswerRequest{QuestionID: 999, Answer: "A"}
	err := service.SaveAnswer(context.Background(), 20, req, "student-1")
	if !errors.Is(err, ErrQuestionNotInPaper) {
		t.Errorf("SaveAnswer() error = %v, want ErrQuestionNotInPaper", err)
	}
}

func TestSessionService_LogCheatEvent_CountsMonotonically(t *testing.T) {
	repo, _, paper := submitFixture()

	exam := &models.Exam{
		ID:        20,
		PaperID:   paper.ID,
		Name:      "Midterm",
		Status:    models.ExamStatusPublished,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}
	repo.exams[20] = exam

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	v := validator.New()
	publisher := events.NewMockEventPublisher(logger)
	service := &sessionService{repo: repo, logger: logger, validator: v, publisher: publisher}

	ctx := context.Background()
	req := &models.CheatEventRequest{CheatType: "tab_switch"}

	first, err := service.LogCheatEvent(ctx, 20, req, "student-1")
	if err != nil {
		t.Fatalf("LogCheatEvent() error = %v", err)
	}
	if first.Count != 1 {
		t.Errorf("first count = %d, want 1", first.Count)
	}

	second, err := service.LogCheatEvent(ctx, 20, req, "student-1")
	if err != nil {
		t.Fatalf("LogCheatEvent() error = %v", err)
	}
	if second.Count != 2 {
		t.Errorf("second count = %d, want 2", second.Count)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("expected 2 events, got %d", len(published))
	}
	if published[0].Type != events.CheatLogged {
		t.Errorf("event type = %s, want %s", published[0].Type, events.CheatLogged)
	}
}
