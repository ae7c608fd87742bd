package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	Status    *models.ExamStatus `json:"status"`
	CreatedBy *string            `json:"created_by"`
	Search    string             `json:"search"`
	DateFrom  *time.Time         `json:"date_from"`
	DateTo    *time.Time         `json:"date_to"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "start_time", "name"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type RecordFilters struct {
	ExamID    *uint                `json:"exam_id"`
	UserID    *string              `json:"user_id"`
	Status    *models.RecordStatus `json:"status"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`
	SortOrder string               `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

// RecordScoreStats carries the raw SQL aggregates over records with a
// non-null total score. Rounding happens in the service layer.
type RecordScoreStats struct {
	ScoredCount    int64    `json:"scored_count"`
	SubmittedCount int64    `json:"submitted_count"`
	AverageScore   float64  `json:"average_score"`
	MaxScore       *float64 `json:"max_score"`
	MinScore       *float64 `json:"min_score"`
	PassedCount    int64    `json:"passed_count"`
}

type RecordStatusCounts struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"in_progress"`
	Graded     int64 `json:"graded"`
}

// ===== ENTITY REPOSITORY INTERFACES =====

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ExamStatus, endTime *time.Time) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
	CountRecords(ctx context.Context, tx *gorm.DB, examID uint) (int64, error)
}

type PaperRepository interface {
	Create(ctx context.Context, tx *gorm.DB, paper *models.ExamPaper) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamPaper, error)
	Update(ctx context.Context, tx *gorm.DB, paper *models.ExamPaper) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Paper questions, ordered by position.
	GetQuestions(ctx context.Context, tx *gorm.DB, paperID uint) ([]*models.ExamPaperQuestion, error)
	AddQuestion(ctx context.Context, tx *gorm.DB, pq *models.ExamPaperQuestion) error
	RemoveQuestion(ctx context.Context, tx *gorm.DB, paperID, questionID uint) error
	RecalculateTotalScore(ctx context.Context, tx *gorm.DB, paperID uint) (float64, error)
}

type QuestionRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
}

type RecordRepository interface {
	Create(ctx context.Context, tx *gorm.DB, record *models.ExamRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamRecord, error)
	GetByExamAndUser(ctx context.Context, tx *gorm.DB, examID uint, userID string) (*models.ExamRecord, error)
	Update(ctx context.Context, tx *gorm.DB, record *models.ExamRecord) error
	List(ctx context.Context, tx *gorm.DB, filters RecordFilters) ([]*models.ExamRecord, int64, error)
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamRecord, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters RecordFilters) ([]*models.ExamRecord, int64, error)
	ListPendingGrading(ctx context.Context, tx *gorm.DB, examID uint, limit, offset int) ([]*models.ExamRecord, int64, error)

	GetScoreStats(ctx context.Context, tx *gorm.DB, examID uint, passThreshold float64) (*RecordScoreStats, error)
	GetStatusCounts(ctx context.Context, tx *gorm.DB, examID uint) (*RecordStatusCounts, error)
}

type AnswerRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.ExamAnswer) error
	GetByRecord(ctx context.Context, tx *gorm.DB, recordID uint) ([]*models.ExamAnswer, error)
	GetByRecordAndQuestion(ctx context.Context, tx *gorm.DB, recordID, questionID uint) (*models.ExamAnswer, error)
	UpdateScore(ctx context.Context, tx *gorm.DB, id uint, score float64, gradedBy *string) error
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamAnswer, error)
}

type CheatLogRepository interface {
	Increment(ctx context.Context, tx *gorm.DB, examID uint, userID, cheatType string, at time.Time) (*models.ExamCheatLog, error)
	GetByExamAndUser(ctx context.Context, tx *gorm.DB, examID uint, userID string) ([]*models.ExamCheatLog, error)
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamCheatLog, error)
}
