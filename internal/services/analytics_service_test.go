package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

func TestNewAnalyticsService(t *testing.T) {
	type args struct {
		repo   repositories.Repository
		db     *gorm.DB
		logger *slog.Logger
	}
	tests := []struct {
		name string
		args args
		want AnalyticsService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewAnalyticsService(tt.args.repo, tt.args.db, tt.args.logger)
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		decimals int
		want     float64
	}{
		{name: "repeating third at two places", v: 190.0 / 3, decimals: 2, want: 63.33},
		{name: "repeating two thirds rounds up", v: 200.0 / 3, decimals: 2, want: 66.67},
		{name: "exact half rounds up", v: 0.125, decimals: 2, want: 0.13},
		{name: "three places down", v: 1.0 / 3, decimals: 3, want: 0.333},
		{name: "three places up", v: 2.0 / 3, decimals: 3, want: 0.667},
		{name: "whole number unchanged", v: 75, decimals: 2, want: 75},
		{name: "zero", v: 0, decimals: 2, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundHalfUp(tt.v, tt.decimals); got != tt.want {
				t.Errorf("roundHalfUp(%v, %d) = %v, want %v", tt.v, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestAnalyticsService_ExamStatistics(t *testing.T) {
	repo := newMockRepository()
	repo.exams[20] = &models.Exam{ID: 20, PaperID: 10, Name: "Midterm"}
	repo.papers[10] = &models.ExamPaper{ID: 10, TotalScore: 100}

	// Scores 40, 60 and 90 with a pass mark of 60: two pass out of three.
	maxScore := 90.0
	minScore := 40.0
	repo.statusCounts = &repositories.RecordStatusCounts{Total: 4, InProgress: 1, Completed: 3, Graded: 3}
	repo.scoreStats = &repositories.RecordScoreStats{
		ScoredCount:    3,
		SubmittedCount: 3,
		AverageScore:   190.0 / 3,
		MaxScore:       &maxScore,
		MinScore:       &minScore,
		PassedCount:    2,
	}

	service := &analyticsService{repo: repo}
	stats, err := service.ExamStatistics(context.Background(), 20)
	if err != nil {
		t.Fatalf("ExamStatistics() error = %v", err)
	}

	if stats.AverageScore != 63.33 {
		t.Errorf("AverageScore = %v, want 63.33", stats.AverageScore)
	}
	if stats.PassRate != 66.67 {
		t.Errorf("PassRate = %v, want 66.67", stats.PassRate)
	}
	if stats.TotalRecords != 4 || stats.InProgress != 1 || stats.Completed != 3 || stats.GradedCount != 3 {
		t.Errorf("counts = %d/%d/%d/%d, want 4/1/3/3", stats.TotalRecords, stats.InProgress, stats.Completed, stats.GradedCount)
	}
	if stats.MaxScore == nil || *stats.MaxScore != 90 {
		t.Errorf("MaxScore = %v, want 90", stats.MaxScore)
	}
	if stats.PaperScore != 100 {
		t.Errorf("PaperScore = %v, want 100", stats.PaperScore)
	}
}

func TestAnalyticsService_ExamStatistics_NoSubmissions(t *testing.T) {
	repo := newMockRepository()
	repo.exams[20] = &models.Exam{ID: 20, PaperID: 10, Name: "Midterm"}
	repo.papers[10] = &models.ExamPaper{ID: 10, TotalScore: 100}
	repo.statusCounts = &repositories.RecordStatusCounts{Total: 1, InProgress: 1}
	repo.scoreStats = &repositories.RecordScoreStats{}

	service := &analyticsService{repo: repo}
	stats, err := service.ExamStatistics(context.Background(), 20)
	if err != nil {
		t.Fatalf("ExamStatistics() error = %v", err)
	}

	if stats.PassRate != 0 {
		t.Errorf("PassRate = %v, want 0 with no submissions", stats.PassRate)
	}
	if stats.AverageScore != 0 {
		t.Errorf("AverageScore = %v, want 0", stats.AverageScore)
	}
}

func TestAnalyticsService_WrongQuestionAnalysis(t *testing.T) {
	repo := newMockRepository()

	judge := &models.Question{ID: 1, Type: models.QuestionJudge, Stem: "true or false", Answer: datatypes.JSON(`"true"`)}
	single := &models.Question{ID: 2, Type: models.QuestionSingle, Stem: "pick one", Answer: datatypes.JSON(`"A"`)}
	short := &models.Question{ID: 3, Type: models.QuestionShort, Stem: "explain"}
	blank := &models.Question{ID: 4, Type: models.QuestionBlank, Stem: "fill in", Answer: datatypes.JSON(`"42"`)}

	repo.exams[20] = &models.Exam{ID: 20, PaperID: 10, Name: "Midterm"}
	repo.papers[10] = &models.ExamPaper{ID: 10}
	repo.paperQuestions[10] = []*models.ExamPaperQuestion{
		{ID: 1, PaperID: 10, QuestionID: 1, Score: 2, Order: 1, Question: *judge},
		{ID: 2, PaperID: 10, QuestionID: 2, Score: 2, Order: 2, Question: *single},
		{ID: 3, PaperID: 10, QuestionID: 3, Score: 6, Order: 3, Question: *short},
		{ID: 4, PaperID: 10, QuestionID: 4, Score: 2, Order: 4, Question: *blank},
	}

	submitTime := time.Now()
	repo.records[1] = &models.ExamRecord{ID: 1, ExamID: 20, UserID: "s1", Status: models.RecordSubmitted, SubmitTime: &submitTime}
	repo.records[2] = &models.ExamRecord{ID: 2, ExamID: 20, UserID: "s2", Status: models.RecordGraded, SubmitTime: &submitTime}
	repo.records[3] = &models.ExamRecord{ID: 3, ExamID: 20, UserID: "s3", Status: models.RecordInProgress}

	partial := 4.0
	full := 6.0
	repo.answers = []*models.ExamAnswer{
		// Judge question: two wrong, one right from a still-open session.
		{ID: 1, RecordID: 1, QuestionID: 1, Answer: "false"},
		{ID: 2, RecordID: 2, QuestionID: 1, Answer: "false"},
		{ID: 7, RecordID: 3, QuestionID: 1, Answer: "true"},
		// Single choice: one right, one wrong.
		{ID: 3, RecordID: 1, QuestionID: 2, Answer: "A"},
		{ID: 4, RecordID: 2, QuestionID: 2, Answer: "B"},
		// Short answer: graded with partial credit, but subjective
		// questions stay out of the analysis entirely.
		{ID: 5, RecordID: 1, QuestionID: 3, Answer: "text", Score: &partial},
		{ID: 6, RecordID: 2, QuestionID: 3, Answer: "text", Score: &full},
		// Blank question: nobody answered, so no row for it either.
	}

	service := &analyticsService{repo: repo}
	stats, err := service.WrongQuestionAnalysis(context.Background(), 20)
	if err != nil {
		t.Fatalf("WrongQuestionAnalysis() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2", len(stats))
	}
	for _, st := range stats {
		if !st.Type.IsObjective() {
			t.Errorf("analysis includes non-objective question %d (type %s)", st.QuestionID, st.Type)
		}
		if st.QuestionID == 4 {
			t.Errorf("analysis includes unanswered question 4")
		}
	}

	// Highest wrong rate first; answers from open sessions count too.
	if stats[0].QuestionID != 1 || stats[0].WrongRate != 0.667 {
		t.Errorf("stats[0] = question %d rate %v, want question 1 rate 0.667", stats[0].QuestionID, stats[0].WrongRate)
	}
	if stats[0].AnswerCount != 3 || stats[0].WrongCount != 2 {
		t.Errorf("judge counts = %d/%d, want 3/2", stats[0].AnswerCount, stats[0].WrongCount)
	}
	if stats[1].QuestionID != 2 || stats[1].WrongRate != 0.5 {
		t.Errorf("stats[1] = question %d rate %v, want question 2 rate 0.5", stats[1].QuestionID, stats[1].WrongRate)
	}
}
