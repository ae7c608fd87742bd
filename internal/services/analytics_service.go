package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

type analyticsService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewAnalyticsService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *analyticsService) ExamStatistics(ctx context.Context, examID uint) (*ExamStatistics, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	paper, err := s.repo.Paper().GetByID(ctx, s.db, exam.PaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to get exam paper: %w", err)
	}

	statusCounts, err := s.repo.Record().GetStatusCounts(ctx, s.db, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	scoreStats, err := s.repo.Record().GetScoreStats(ctx, s.db, examID, PassThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scores: %w", err)
	}

	passRate := 0.0
	if scoreStats.SubmittedCount > 0 {
		passRate = roundHalfUp(float64(scoreStats.PassedCount)*100/float64(scoreStats.SubmittedCount), 2)
	}

	return &ExamStatistics{
		ExamID:         exam.ID,
		ExamName:       exam.Name,
		PaperScore:     paper.TotalScore,
		TotalRecords:   statusCounts.Total,
		InProgress:     statusCounts.InProgress,
		Completed:      statusCounts.Completed,
		SubmittedCount: scoreStats.SubmittedCount,
		GradedCount:    statusCounts.Graded,
		AverageScore:   roundHalfUp(scoreStats.AverageScore, 2),
		MaxScore:       scoreStats.MaxScore,
		MinScore:       scoreStats.MinScore,
		PassRate:       passRate,
	}, nil
}

// WrongQuestionAnalysis counts, per objective paper question, how many
// answers differ from the canonical answer. Attempts span every live
// record of the exam, in-progress included; subjective questions and
// questions nobody answered are omitted. Results come back sorted by
// wrong rate, highest first.
func (s *analyticsService) WrongQuestionAnalysis(ctx context.Context, examID uint) ([]WrongQuestionStat, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
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

	answers, err := s.repo.Answer().GetByExam(ctx, s.db, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	type counter struct{ answered, wrong int }
	counts := make(map[uint]*counter, len(pqs))
	byQuestion := make(map[uint]*models.ExamPaperQuestion, len(pqs))
	for _, pq := range pqs {
		if !pq.Question.Type.IsObjective() {
			continue
		}
		counts[pq.QuestionID] = &counter{}
		byQuestion[pq.QuestionID] = pq
	}

	for _, ans := range answers {
		pq, ok := byQuestion[ans.QuestionID]
		if !ok {
			continue
		}
		c := counts[ans.QuestionID]
		c.answered++
		if ans.Answer != pq.Question.CanonicalAnswer() {
			c.wrong++
		}
	}

	stats := make([]WrongQuestionStat, 0, len(counts))
	for _, pq := range pqs {
		c, ok := counts[pq.QuestionID]
		if !ok || c.answered == 0 {
			continue
		}
		stats = append(stats, WrongQuestionStat{
			QuestionID:  pq.QuestionID,
			Type:        pq.Question.Type,
			Stem:        pq.Question.Stem,
			AnswerCount: c.answered,
			WrongCount:  c.wrong,
			WrongRate:   roundHalfUp(float64(c.wrong)/float64(c.answered), 3),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].WrongRate != stats[j].WrongRate {
			return stats[i].WrongRate > stats[j].WrongRate
		}
		return stats[i].QuestionID < stats[j].QuestionID
	})
	return stats, nil
}

func (s *analyticsService) CheatLogs(ctx context.Context, examID uint) ([]*models.ExamCheatLog, error) {
	logs, err := s.repo.CheatLog().GetByExam(ctx, s.db, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cheat logs: %w", err)
	}
	return logs, nil
}

// roundHalfUp rounds half away from zero at the given number of decimal
// places, so 63.335 at two places becomes 63.34.
func roundHalfUp(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Floor(v*pow+0.5) / pow
}
