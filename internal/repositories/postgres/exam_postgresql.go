package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/cache"
	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	cacheKey := fmt.Sprintf("exam:id:%d", id)
	var exam models.Exam

	err := e.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &exam, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, gorm.ErrRecordNotFound
			}
			return nil, fmt.Errorf("failed to get exam: %w", err)
		}
		return &dbExam, nil
	})
	if err != nil {
		return nil, err
	}

	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Save(exam).Error; err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, exam.ID)
	return nil
}

func (e *ExamPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ExamStatus, endTime *time.Time) error {
	db := e.getDB(tx)
	updates := map[string]interface{}{"status": status}
	if endTime != nil {
		updates["end_time"] = *endTime
	}

	if err := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update exam status: %w", err)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)
	return nil
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Exam{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)
	return nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.getDB(tx)
	var exams []*models.Exam
	var total int64

	query := db.WithContext(ctx).Model(&models.Exam{})
	query = e.helpers.ApplyExamFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Paper").Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

func (e *ExamPostgreSQL) CountRecords(ctx context.Context, tx *gorm.DB, examID uint) (int64, error) {
	return e.helpers.CountRecords(ctx, examID)
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// ===== PAPER REPOSITORY IMPLEMENTATION =====

type PaperPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewPaperPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.PaperRepository {
	return &PaperPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (p *PaperPostgreSQL) Create(ctx context.Context, tx *gorm.DB, paper *models.ExamPaper) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Create(paper).Error; err != nil {
		return fmt.Errorf("failed to create paper: %w", err)
	}
	return nil
}

func (p *PaperPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamPaper, error) {
	db := p.getDB(tx)
	cacheKey := fmt.Sprintf("paper:id:%d", id)
	var paper models.ExamPaper

	err := p.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &paper, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbPaper models.ExamPaper
		if err := db.WithContext(ctx).First(&dbPaper, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, gorm.ErrRecordNotFound
			}
			return nil, fmt.Errorf("failed to get paper: %w", err)
		}
		return &dbPaper, nil
	})
	if err != nil {
		return nil, err
	}

	return &paper, nil
}

func (p *PaperPostgreSQL) Update(ctx context.Context, tx *gorm.DB, paper *models.ExamPaper) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Save(paper).Error; err != nil {
		return fmt.Errorf("failed to update paper: %w", err)
	}

	p.invalidate(ctx, paper.ID)
	return nil
}

func (p *PaperPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.ExamPaper{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete paper: %w", err)
	}

	p.invalidate(ctx, id)
	return nil
}

func (p *PaperPostgreSQL) GetQuestions(ctx context.Context, tx *gorm.DB, paperID uint) ([]*models.ExamPaperQuestion, error) {
	db := p.getDB(tx)
	var questions []*models.ExamPaperQuestion
	if err := db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Order("position ASC, id ASC").
		Preload("Question").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get paper questions: %w", err)
	}

	return questions, nil
}

func (p *PaperPostgreSQL) AddQuestion(ctx context.Context, tx *gorm.DB, pq *models.ExamPaperQuestion) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Create(pq).Error; err != nil {
		return fmt.Errorf("failed to add paper question: %w", err)
	}

	p.invalidate(ctx, pq.PaperID)
	return nil
}

func (p *PaperPostgreSQL) RemoveQuestion(ctx context.Context, tx *gorm.DB, paperID, questionID uint) error {
	db := p.getDB(tx)
	result := db.WithContext(ctx).
		Where("paper_id = ? AND question_id = ?", paperID, questionID).
		Delete(&models.ExamPaperQuestion{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove paper question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	p.invalidate(ctx, paperID)
	return nil
}

// RecalculateTotalScore re-sums the paper question scores and writes the
// result back. Must run in the same transaction as the add/remove.
func (p *PaperPostgreSQL) RecalculateTotalScore(ctx context.Context, tx *gorm.DB, paperID uint) (float64, error) {
	db := p.getDB(tx)

	var total float64
	if err := db.WithContext(ctx).
		Model(&models.ExamPaperQuestion{}).
		Where("paper_id = ?", paperID).
		Select("COALESCE(SUM(score), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum paper question scores: %w", err)
	}

	if err := db.WithContext(ctx).
		Model(&models.ExamPaper{}).
		Where("id = ?", paperID).
		Update("total_score", total).Error; err != nil {
		return 0, fmt.Errorf("failed to update paper total score: %w", err)
	}

	p.invalidate(ctx, paperID)
	return total, nil
}

func (p *PaperPostgreSQL) invalidate(ctx context.Context, paperID uint) {
	cache.InvalidatePaperCache(ctx, p.cacheManager, paperID)
}

func (p *PaperPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

// ===== QUESTION REPOSITORY IMPLEMENTATION =====

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("question:id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, gorm.ErrRecordNotFound
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		return &dbQuestion, nil
	})
	if err != nil {
		return nil, err
	}

	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	return questions, nil
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
