package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

func TestExportService_ExportStatistics(t *testing.T) {
	repo := newMockRepository()
	repo.exams[20] = &models.Exam{ID: 20, PaperID: 10, Name: "Midterm"}
	repo.papers[10] = &models.ExamPaper{ID: 10, TotalScore: 100}
	repo.paperQuestions[10] = []*models.ExamPaperQuestion{
		{ID: 1, PaperID: 10, QuestionID: 1, Score: 2, Order: 1, Question: models.Question{
			ID: 1, Type: models.QuestionSingle, Stem: "pick one", Answer: datatypes.JSON(`"A"`),
		}},
	}
	submitTime := time.Now()
	repo.records[1] = &models.ExamRecord{ID: 1, ExamID: 20, UserID: "s1", Status: models.RecordSubmitted, SubmitTime: &submitTime}
	repo.answers = []*models.ExamAnswer{
		{ID: 1, RecordID: 1, QuestionID: 1, Answer: "B"},
	}
	maxScore := 90.0
	repo.statusCounts = &repositories.RecordStatusCounts{Total: 1}
	repo.scoreStats = &repositories.RecordScoreStats{SubmittedCount: 1, AverageScore: 90, MaxScore: &maxScore, PassedCount: 1}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	analytics := &analyticsService{repo: repo, logger: logger}
	service := NewExportService(analytics, logger)

	data, filename, err := service.ExportStatistics(context.Background(), 20)
	if err != nil {
		t.Fatalf("ExportStatistics() error = %v", err)
	}

	if len(data) == 0 {
		t.Fatal("exported workbook is empty")
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("exported bytes are not a zip archive")
	}

	wantPrefix := fmt.Sprintf("exam_20_statistics_%s", time.Now().Format("20060102"))
	if len(filename) == 0 || filename[:len(wantPrefix)] != wantPrefix {
		t.Errorf("filename = %q, want prefix %q", filename, wantPrefix)
	}
}

func TestExportService_MissingExam(t *testing.T) {
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := NewExportService(&analyticsService{repo: repo, logger: logger}, logger)

	if _, _, err := service.ExportStatistics(context.Background(), 404); err == nil {
		t.Error("expected an error for a missing exam")
	}
}
