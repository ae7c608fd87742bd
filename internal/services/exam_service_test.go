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
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

func TestNewExamService(t *testing.T) {
	type args struct {
		repo      repositories.Repository
		db        *gorm.DB
		logger    *slog.Logger
		validator *validator.Validator
	}
	tests := []struct {
		name string
		args args
		want ExamService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewExamService(tt.args.repo, tt.args.db, tt.args.logger, tt.args.validator)
		})
	}
}

func examServiceFixture() (*MockRepository, *examService) {
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := &examService{repo: repo, logger: logger, validator: validator.New()}
	return repo, service
}

func TestExamService_GetByID_OwnershipFlags(t *testing.T) {
	repo, service := examServiceFixture()
	repo.exams[20] = &models.Exam{
		ID:        20,
		PaperID:   10,
		Name:      "Midterm",
		CreatedBy: "teacher-1",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(2 * time.Hour),
	}
	ctx := context.Background()

	owner, err := service.GetByID(ctx, 20, "teacher-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !owner.CanEdit || !owner.CanDelete {
		t.Errorf("owner flags = edit %v delete %v, want both true", owner.CanEdit, owner.CanDelete)
	}

	other, err := service.GetByID(ctx, 20, "teacher-2")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if other.CanEdit || other.CanDelete {
		t.Errorf("non-owner flags = edit %v delete %v, want both false", other.CanEdit, other.CanDelete)
	}

	if _, err := service.GetByID(ctx, 404, "teacher-1"); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("GetByID(404) error = %v, want ErrExamNotFound", err)
	}
}

func TestExamService_GetByID_RecordsBlockDelete(t *testing.T) {
	repo, service := examServiceFixture()
	repo.exams[20] = &models.Exam{ID: 20, PaperID: 10, Name: "Midterm", CreatedBy: "teacher-1"}
	repo.records[1] = &models.ExamRecord{ID: 1, ExamID: 20, UserID: "s1", Status: models.RecordInProgress}

	resp, err := service.GetByID(context.Background(), 20, "teacher-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if resp.RecordCount != 1 {
		t.Errorf("RecordCount = %d, want 1", resp.RecordCount)
	}
	if !resp.CanEdit {
		t.Error("owner should still be able to edit")
	}
	if resp.CanDelete {
		t.Error("an exam with records must not be deletable")
	}
}

func TestExamService_Delete(t *testing.T) {
	repo, service := examServiceFixture()
	repo.exams[20] = &models.Exam{ID: 20, PaperID: 10, Name: "Midterm", CreatedBy: "teacher-1"}
	repo.records[1] = &models.ExamRecord{ID: 1, ExamID: 20, UserID: "s1", Status: models.RecordSubmitted}
	ctx := context.Background()

	t.Run("records block delete", func(t *testing.T) {
		if err := service.Delete(ctx, 20, "teacher-1"); !errors.Is(err, ErrExamHasRecords) {
			t.Errorf("Delete() error = %v, want ErrExamHasRecords", err)
		}
	})

	t.Run("only the owner may delete", func(t *testing.T) {
		err := service.Delete(ctx, 20, "teacher-2")
		var perr *PermissionError
		if !errors.As(err, &perr) {
			t.Errorf("Delete() error = %v, want PermissionError", err)
		}
	})
}

func TestExamService_Publish_InvalidTransition(t *testing.T) {
	repo, service := examServiceFixture()
	repo.exams[20] = &models.Exam{ID: 20, PaperID: 10, Name: "Midterm", CreatedBy: "teacher-1", Status: models.ExamStatusUnpublished}

	err := service.Publish(context.Background(), 20, "teacher-1")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Errorf("Publish() from unpublished error = %v, want ValidationErrors", err)
	}
}
