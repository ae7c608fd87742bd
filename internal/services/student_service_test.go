package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

func TestNewStudentService(t *testing.T) {
	type args struct {
		repo   repositories.Repository
		db     *gorm.DB
		logger *slog.Logger
	}
	tests := []struct {
		name string
		args args
		want StudentService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewStudentService(tt.args.repo, tt.args.db, tt.args.logger)
		})
	}
}

func TestStudentService_RecordDetail(t *testing.T) {
	repo, record, paper := submitFixture()
	submitTime := time.Now()
	record.Status = models.RecordGraded
	record.SubmitTime = &submitTime

	repo.exams[20] = &models.Exam{ID: 20, PaperID: paper.ID, Name: "Midterm"}
	repo.answers = []*models.ExamAnswer{
		{ID: 1, RecordID: 100, QuestionID: 3, Answer: "A,B"},
		{ID: 2, RecordID: 100, QuestionID: 1, Answer: "A"},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := &studentService{repo: repo, logger: logger}
	ctx := context.Background()

	t.Run("owned record with ordered answers", func(t *testing.T) {
		detail, err := service.RecordDetail(ctx, 100, "student-1")
		if err != nil {
			t.Fatalf("RecordDetail() error = %v", err)
		}
		if detail.Record.ID != 100 || detail.Exam.ID != 20 {
			t.Errorf("detail = record %d exam %d, want 100/20", detail.Record.ID, detail.Exam.ID)
		}
		if len(detail.Answers) != 3 {
			t.Fatalf("got %d answers, want all 3 paper questions", len(detail.Answers))
		}
		// Paper order, not answer order.
		if detail.Answers[0].QuestionID != 1 || detail.Answers[0].Answer != "A" {
			t.Errorf("first view = q%d %q, want q1 A", detail.Answers[0].QuestionID, detail.Answers[0].Answer)
		}
		if detail.Answers[1].Answer != "" {
			t.Errorf("unanswered question should show an empty answer, got %q", detail.Answers[1].Answer)
		}
	})

	t.Run("someone else's record", func(t *testing.T) {
		if _, err := service.RecordDetail(ctx, 100, "student-2"); !errors.Is(err, ErrRecordNotOwned) {
			t.Errorf("RecordDetail() error = %v, want ErrRecordNotOwned", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		if _, err := service.RecordDetail(ctx, 404, "student-1"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("RecordDetail() error = %v, want ErrSessionNotFound", err)
		}
	})
}

func TestStudentService_MyRecords_Pagination(t *testing.T) {
	repo := newMockRepository()
	for i := uint(1); i <= 3; i++ {
		repo.records[i] = &models.ExamRecord{ID: i, ExamID: 20, UserID: "student-1", Status: models.RecordGraded}
	}
	repo.records[4] = &models.ExamRecord{ID: 4, ExamID: 20, UserID: "student-2", Status: models.RecordGraded}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := &studentService{repo: repo, logger: logger}

	resp, err := service.MyRecords(context.Background(), "student-1", models.ListRecordsParams{})
	if err != nil {
		t.Fatalf("MyRecords() error = %v", err)
	}

	if resp.TotalElements != 3 {
		t.Errorf("TotalElements = %d, want 3", resp.TotalElements)
	}
	if resp.Size != 20 || resp.Page != 0 {
		t.Errorf("defaults = size %d page %d, want 20/0", resp.Size, resp.Page)
	}
	if resp.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", resp.TotalPages)
	}
}
