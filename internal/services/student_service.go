package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

type studentService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewStudentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) StudentService {
	return &studentService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *studentService) MyRecords(ctx context.Context, userID string, params models.ListRecordsParams) (*models.PaginatedResponse, error) {
	size := params.Size
	if size <= 0 {
		size = 20
	}
	page := params.Page
	if page < 0 {
		page = 0
	}

	filters := repositories.RecordFilters{
		ExamID:    params.ExamID,
		Status:    params.Status,
		Limit:     size,
		Offset:    page * size,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
	}

	records, total, err := s.repo.Record().GetByUser(ctx, s.db, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &models.PaginatedResponse{
		Content:       records,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Page:          page,
	}, nil
}

// RecordDetail returns one finished sitting with the student's answers.
// Records belonging to someone else are rejected, not hidden.
func (s *studentService) RecordDetail(ctx context.Context, recordID uint, userID string) (*StudentRecordDetail, error) {
	record, err := s.repo.Record().GetByID(ctx, s.db, recordID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get exam record: %w", err)
	}
	if record.UserID != userID {
		return nil, ErrRecordNotOwned
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

	answers, err := s.repo.Answer().GetByRecord(ctx, s.db, recordID)
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

	return &StudentRecordDetail{
		Record:  record,
		Exam:    exam,
		Answers: views,
	}, nil
}
