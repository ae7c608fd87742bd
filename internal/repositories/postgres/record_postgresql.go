package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/examtaking-service/internal/cache"
	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

type RecordPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewRecordPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.RecordRepository {
	return &RecordPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *RecordPostgreSQL) Create(ctx context.Context, tx *gorm.DB, record *models.ExamRecord) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(record).Error
}

func (r *RecordPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamRecord, error) {
	db := r.getDB(tx)
	var record models.ExamRecord
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByExamAndUser returns the single live record for the pair. The
// unique index on (exam_id, user_id) guarantees at most one row.
func (r *RecordPostgreSQL) GetByExamAndUser(ctx context.Context, tx *gorm.DB, examID uint, userID string) (*models.ExamRecord, error) {
	db := r.getDB(tx)
	var record models.ExamRecord
	if err := db.WithContext(ctx).
		Where("exam_id = ? AND user_id = ?", examID, userID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *RecordPostgreSQL) Update(ctx context.Context, tx *gorm.DB, record *models.ExamRecord) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

func (r *RecordPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.RecordFilters) ([]*models.ExamRecord, int64, error) {
	db := r.getDB(tx)
	var records []*models.ExamRecord
	var total int64

	query := db.WithContext(ctx).Model(&models.ExamRecord{})
	query = r.helpers.ApplyRecordFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Exam").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *RecordPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamRecord, error) {
	db := r.getDB(tx)
	var records []*models.ExamRecord
	if err := db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get records by exam: %w", err)
	}
	return records, nil
}

func (r *RecordPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.RecordFilters) ([]*models.ExamRecord, int64, error) {
	filters.UserID = &userID
	return r.List(ctx, tx, filters)
}

// ListPendingGrading returns submitted records awaiting manual review,
// most recently submitted first.
func (r *RecordPostgreSQL) ListPendingGrading(ctx context.Context, tx *gorm.DB, examID uint, limit, offset int) ([]*models.ExamRecord, int64, error) {
	db := r.getDB(tx)
	var records []*models.ExamRecord
	var total int64

	query := db.WithContext(ctx).
		Model(&models.ExamRecord{}).
		Where("exam_id = ? AND status = ?", examID, models.RecordSubmitted)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("submit_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// GetScoreStats aggregates over records with a non-null total score in a
// single query. Rounding is left to the caller.
func (r *RecordPostgreSQL) GetScoreStats(ctx context.Context, tx *gorm.DB, examID uint, passThreshold float64) (*repositories.RecordScoreStats, error) {
	db := r.getDB(tx)
	stats := &repositories.RecordScoreStats{}

	err := db.WithContext(ctx).
		Model(&models.ExamRecord{}).
		Where("exam_id = ? AND total_score IS NOT NULL", examID).
		Select("COUNT(*), COALESCE(AVG(total_score), 0), MAX(total_score), MIN(total_score), SUM(CASE WHEN total_score >= ? THEN 1 ELSE 0 END)", passThreshold).
		Row().Scan(&stats.ScoredCount, &stats.AverageScore, &stats.MaxScore, &stats.MinScore, &stats.PassedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate record scores: %w", err)
	}

	if err := db.WithContext(ctx).
		Model(&models.ExamRecord{}).
		Where("exam_id = ? AND status >= ?", examID, models.RecordSubmitted).
		Count(&stats.SubmittedCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count submitted records: %w", err)
	}

	return stats, nil
}

func (r *RecordPostgreSQL) GetStatusCounts(ctx context.Context, tx *gorm.DB, examID uint) (*repositories.RecordStatusCounts, error) {
	counts := &repositories.RecordStatusCounts{}

	total, err := r.helpers.CountRecords(ctx, examID)
	if err != nil {
		return nil, err
	}
	counts.Total = total

	inProgress, err := r.helpers.CountRecordsByStatus(ctx, examID, models.RecordInProgress)
	if err != nil {
		return nil, err
	}
	counts.InProgress = inProgress

	graded, err := r.helpers.CountRecordsByStatus(ctx, examID, models.RecordGraded)
	if err != nil {
		return nil, err
	}
	counts.Graded = graded

	counts.Completed = total - inProgress
	return counts, nil
}

func (r *RecordPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== ANSWER REPOSITORY IMPLEMENTATION =====

type AnswerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// answerConflictUpdate resolves a duplicate (record_id, question_id)
// insert in the database: the incoming row fully replaces the stored
// one, so two racing saves settle as last write wins instead of a
// unique violation.
func answerConflictUpdate() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer", "score", "graded_by", "graded_at", "updated_at"}),
	}
}

// Upsert creates or replaces the answer row for (record, question).
// Last write wins; the caller sends a full replacement value.
func (ar *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.ExamAnswer) error {
	db := ar.getDB(tx)

	if err := db.WithContext(ctx).
		Clauses(answerConflictUpdate(), clause.Returning{}).
		Create(answer).Error; err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	cache.SafeDelete(ctx, ar.cacheManager.Fast, fmt.Sprintf("record:%d:answers", answer.RecordID))
	return nil
}

func (ar *AnswerPostgreSQL) GetByRecord(ctx context.Context, tx *gorm.DB, recordID uint) ([]*models.ExamAnswer, error) {
	db := ar.getDB(tx)
	var answers []*models.ExamAnswer
	if err := db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get answers by record: %w", err)
	}
	return answers, nil
}

func (ar *AnswerPostgreSQL) GetByRecordAndQuestion(ctx context.Context, tx *gorm.DB, recordID, questionID uint) (*models.ExamAnswer, error) {
	db := ar.getDB(tx)
	var answer models.ExamAnswer
	if err := db.WithContext(ctx).
		Where("record_id = ? AND question_id = ?", recordID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (ar *AnswerPostgreSQL) UpdateScore(ctx context.Context, tx *gorm.DB, id uint, score float64, gradedBy *string) error {
	db := ar.getDB(tx)
	updates := map[string]interface{}{
		"score": score,
	}
	if gradedBy != nil {
		now := time.Now()
		updates["graded_by"] = *gradedBy
		updates["graded_at"] = &now
	}

	if err := db.WithContext(ctx).
		Model(&models.ExamAnswer{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update answer score: %w", err)
	}

	return nil
}

// GetByExam returns answer rows across every record of the exam, used by
// the wrong-question analysis.
func (ar *AnswerPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamAnswer, error) {
	db := ar.getDB(tx)
	var answers []*models.ExamAnswer
	if err := db.WithContext(ctx).
		Joins("JOIN exam_records er ON er.id = exam_answers.record_id").
		Where("er.exam_id = ? AND er.deleted_at IS NULL", examID).
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get answers by exam: %w", err)
	}
	return answers, nil
}

func (ar *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

// ===== CHEAT LOG REPOSITORY IMPLEMENTATION =====

type CheatLogPostgreSQL struct {
	db *gorm.DB
}

func NewCheatLogPostgreSQL(db *gorm.DB) repositories.CheatLogRepository {
	return &CheatLogPostgreSQL{db: db}
}

// cheatConflictIncrement turns a duplicate (exam_id, user_id, cheat_type)
// insert into an atomic counter bump, so concurrent increments never
// lose a count to a read-modify-write race.
func cheatConflictIncrement(at time.Time) clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "exam_id"}, {Name: "user_id"}, {Name: "cheat_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":     gorm.Expr("exam_cheat_logs.count + 1"),
			"last_time": at,
		}),
	}
}

// Increment bumps the counter for (exam, user, type), creating the row on
// first sight. The counter never decreases.
func (c *CheatLogPostgreSQL) Increment(ctx context.Context, tx *gorm.DB, examID uint, userID, cheatType string, at time.Time) (*models.ExamCheatLog, error) {
	db := c.getDB(tx)

	log := models.ExamCheatLog{
		ExamID:    examID,
		UserID:    userID,
		CheatType: cheatType,
		Count:     1,
		LastTime:  at,
	}
	if err := db.WithContext(ctx).
		Clauses(cheatConflictIncrement(at), clause.Returning{}).
		Create(&log).Error; err != nil {
		return nil, fmt.Errorf("failed to record cheat event: %w", err)
	}

	return &log, nil
}

func (c *CheatLogPostgreSQL) GetByExamAndUser(ctx context.Context, tx *gorm.DB, examID uint, userID string) ([]*models.ExamCheatLog, error) {
	db := c.getDB(tx)
	var logs []*models.ExamCheatLog
	if err := db.WithContext(ctx).
		Where("exam_id = ? AND user_id = ?", examID, userID).
		Order("count DESC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get cheat logs: %w", err)
	}
	return logs, nil
}

func (c *CheatLogPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamCheatLog, error) {
	db := c.getDB(tx)
	var logs []*models.ExamCheatLog
	if err := db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("user_id ASC, count DESC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get cheat logs by exam: %w", err)
	}
	return logs, nil
}

func (c *CheatLogPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}
