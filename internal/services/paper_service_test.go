package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

func TestNewPaperService(t *testing.T) {
	type args struct {
		repo      repositories.Repository
		db        *gorm.DB
		logger    *slog.Logger
		validator *validator.Validator
	}
	tests := []struct {
		name string
		args args
		want PaperService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewPaperService(tt.args.repo, tt.args.db, tt.args.logger, tt.args.validator)
		})
	}
}

func paperServiceFixture() (*MockRepository, *paperService) {
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := &paperService{repo: repo, logger: logger, validator: validator.New()}
	return repo, service
}

func TestPaperService_GetByID(t *testing.T) {
	repo, service := paperServiceFixture()
	repo.papers[10] = &models.ExamPaper{ID: 10, Name: "Midterm paper", TotalScore: 12, CreatedBy: "teacher-1"}
	repo.paperQuestions[10] = []*models.ExamPaperQuestion{
		{ID: 1, PaperID: 10, QuestionID: 1, Score: 5, Order: 1},
		{ID: 2, PaperID: 10, QuestionID: 2, Score: 7, Order: 2},
	}
	ctx := context.Background()

	resp, err := service.GetByID(ctx, 10)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if resp.QuestionCount != 2 {
		t.Errorf("QuestionCount = %d, want 2", resp.QuestionCount)
	}
	if resp.TotalScore != 12 {
		t.Errorf("TotalScore = %v, want 12", resp.TotalScore)
	}

	if _, err := service.GetByID(ctx, 404); !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("GetByID(404) error = %v, want ErrPaperNotFound", err)
	}
}

func TestPaperService_AddQuestion_Checks(t *testing.T) {
	repo, service := paperServiceFixture()
	repo.papers[10] = &models.ExamPaper{ID: 10, Name: "Midterm paper", CreatedBy: "teacher-1"}
	ctx := context.Background()

	t.Run("unknown question", func(t *testing.T) {
		req := &models.PaperQuestionRequest{QuestionID: 999, Order: 1}
		if _, err := service.AddQuestion(ctx, 10, req, "teacher-1"); !errors.Is(err, ErrQuestionNotFound) {
			t.Errorf("AddQuestion() error = %v, want ErrQuestionNotFound", err)
		}
	})

	t.Run("only the owner may modify", func(t *testing.T) {
		req := &models.PaperQuestionRequest{QuestionID: 1, Order: 1}
		_, err := service.AddQuestion(ctx, 10, req, "teacher-2")
		var perr *PermissionError
		if !errors.As(err, &perr) {
			t.Errorf("AddQuestion() error = %v, want PermissionError", err)
		}
	})

	t.Run("unscorable question", func(t *testing.T) {
		repo.questions[1] = &models.Question{ID: 1, Type: models.QuestionSingle, Stem: "pick one", Score: 0}
		req := &models.PaperQuestionRequest{QuestionID: 1, Order: 1}
		_, err := service.AddQuestion(ctx, 10, req, "teacher-1")
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("AddQuestion() error = %v, want ValidationErrors", err)
		}
	})
}
