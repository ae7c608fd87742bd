package services

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

// PassThreshold is the total score at or above which a record counts as
// passed in statistics.
const PassThreshold = 60.0

// ===== EXAM / PAPER DTOs =====

type ExamResponse struct {
	*models.Exam
	RecordCount int64 `json:"record_count"`
	CanEdit     bool  `json:"can_edit"`
	CanDelete   bool  `json:"can_delete"`
}

type ExamListResponse struct {
	Exams []*ExamResponse `json:"exams"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

type PaperResponse struct {
	*models.ExamPaper
	QuestionCount int `json:"question_count"`
}

// ===== SESSION DTOs =====

// SessionView is the student-facing shape of an ExamRecord.
type SessionView struct {
	RecordID   uint                `json:"record_id"`
	ExamID     uint                `json:"exam_id"`
	ExamName   string              `json:"exam_name"`
	Status     models.RecordStatus `json:"status"`
	StartTime  time.Time           `json:"start_time"`
	SubmitTime *time.Time          `json:"submit_time,omitempty"`

	// Timing derived from the paper duration and the exam window.
	DurationMinutes  int       `json:"duration_minutes"`
	EffectiveEnd     time.Time `json:"effective_end"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

// SessionStatus extends SessionView with progress counters.
type SessionStatus struct {
	SessionView
	QuestionCount int   `json:"question_count"`
	AnsweredCount int   `json:"answered_count"`
	CheatCount    int   `json:"cheat_count"`
	TotalScore    *float64 `json:"total_score,omitempty"`
}

// QuestionView is a question as shown to a student mid-session. The
// canonical answer is deliberately absent.
type QuestionView struct {
	QuestionID uint                `json:"question_id"`
	Type       models.QuestionType `json:"type"`
	Stem       string              `json:"stem"`
	Options    datatypes.JSON      `json:"options,omitempty"`
	Score      float64             `json:"score"`
	Order      int                 `json:"order"`
	Answer     string              `json:"answer,omitempty"` // the student's saved answer, if any
}

// ContinueView is the resume payload: status plus the full question list
// with previously saved answers filled in.
type ContinueView struct {
	SessionStatus
	Questions []QuestionView `json:"questions"`
}

type SaveAnswerResult struct {
	QuestionID uint   `json:"question_id"`
	Saved      bool   `json:"saved"`
	Reason     string `json:"reason,omitempty"` // set when Saved is false
}

// SaveAnswersResult reports the per-question outcome of a batch save.
// One rejected answer never aborts the rest.
type SaveAnswersResult struct {
	SavedCount int                `json:"saved_count"`
	Results    []SaveAnswerResult `json:"results"`
}

type SubmitResult struct {
	RecordID        uint                `json:"record_id"`
	Status          models.RecordStatus `json:"status"`
	SubmitTime      time.Time           `json:"submit_time"`
	ObjectiveScore  float64             `json:"objective_score"`
	SubjectiveScore float64             `json:"subjective_score"`
	TotalScore      float64             `json:"total_score"`
	PendingManual   int                 `json:"pending_manual"` // subjective answers awaiting a grader
}

// ===== GRADING DTOs =====

type GradingResult struct {
	AnswerID   uint       `json:"answer_id"`
	QuestionID uint       `json:"question_id"`
	Score      float64    `json:"score"`
	MaxScore   float64    `json:"max_score"`
	IsCorrect  bool       `json:"is_correct"`
	GradedAt   time.Time  `json:"graded_at"`
	GradedBy   *string    `json:"graded_by,omitempty"`
}

type RecordGradingResult struct {
	RecordID        uint                `json:"record_id"`
	Status          models.RecordStatus `json:"status"`
	ObjectiveScore  float64             `json:"objective_score"`
	SubjectiveScore float64             `json:"subjective_score"`
	TotalScore      float64             `json:"total_score"`
	IsPassing       bool                `json:"is_passing"`
	Questions       []GradingResult     `json:"questions"`
	GradedAt        time.Time           `json:"graded_at"`
}

// AnswerForGrading is one answer in the grader's review view, paired with
// its question including the canonical answer.
type AnswerForGrading struct {
	AnswerID    uint                `json:"answer_id"`
	QuestionID  uint                `json:"question_id"`
	Type        models.QuestionType `json:"type"`
	Stem        string              `json:"stem"`
	Options     datatypes.JSON      `json:"options,omitempty"`
	Correct     string              `json:"correct_answer"`
	Answer      string              `json:"answer"`
	MaxScore    float64             `json:"max_score"`
	Score       *float64            `json:"score"`
	IsObjective bool                `json:"is_objective"`
}

type RecordAnswersView struct {
	Record  *models.ExamRecord  `json:"record"`
	Answers []AnswerForGrading  `json:"answers"`
}

// ===== ANALYTICS DTOs =====

type ExamStatistics struct {
	ExamID         uint    `json:"exam_id"`
	ExamName       string  `json:"exam_name"`
	PaperScore     float64 `json:"paper_score"`
	TotalRecords   int64   `json:"total_records"`
	InProgress     int64   `json:"in_progress"`
	Completed      int64   `json:"completed"` // past in_progress; records only exist once a session starts, so there is no not-started count
	SubmittedCount int64   `json:"submitted_count"`
	GradedCount    int64   `json:"graded_count"`

	// Score aggregates over records with a total score, rounded half-up
	// to two decimals.
	AverageScore float64  `json:"average_score"`
	MaxScore     *float64 `json:"max_score"`
	MinScore     *float64 `json:"min_score"`
	PassRate     float64  `json:"pass_rate"` // percent of submitted records at or above PassThreshold
}

type WrongQuestionStat struct {
	QuestionID  uint                `json:"question_id"`
	Type        models.QuestionType `json:"type"`
	Stem        string              `json:"stem"`
	AnswerCount int                 `json:"answer_count"`
	WrongCount  int                 `json:"wrong_count"`
	WrongRate   float64             `json:"wrong_rate"` // 0..1, three decimals
}

// ===== STUDENT DTOs =====

type StudentRecordDetail struct {
	Record  *models.ExamRecord `json:"record"`
	Exam    *models.Exam       `json:"exam"`
	Answers []QuestionView     `json:"answers"`
}

// ===== SERVICE INTERFACES =====

type ExamService interface {
	Create(ctx context.Context, req *models.ExamCreateRequest, creatorID string) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error)
	Update(ctx context.Context, id uint, req *models.ExamUpdateRequest, userID string) (*ExamResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.ExamFilters, userID string) (*ExamListResponse, error)

	// Status management. Unpublish also moves the window end into the
	// past so no further session can start.
	Publish(ctx context.Context, id uint, userID string) error
	Unpublish(ctx context.Context, id uint, userID string) error
}

type PaperService interface {
	Create(ctx context.Context, req *models.PaperCreateRequest, creatorID string) (*PaperResponse, error)
	GetByID(ctx context.Context, id uint) (*PaperResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// Question management. Total score is recalculated in the same
	// transaction as every mutation.
	GetQuestions(ctx context.Context, paperID uint) ([]*models.ExamPaperQuestion, error)
	AddQuestion(ctx context.Context, paperID uint, req *models.PaperQuestionRequest, userID string) (*PaperResponse, error)
	RemoveQuestion(ctx context.Context, paperID, questionID uint, userID string) (*PaperResponse, error)
}

type SessionService interface {
	// Lifecycle
	Start(ctx context.Context, examID uint, userID string, roles []string) (*SessionView, error)
	Status(ctx context.Context, examID uint, userID string) (*SessionStatus, error)
	Questions(ctx context.Context, examID uint, userID string) ([]QuestionView, error)
	Continue(ctx context.Context, examID uint, userID string) (*ContinueView, error)
	Submit(ctx context.Context, examID uint, userID string) (*SubmitResult, error)

	// Answering
	SaveAnswer(ctx context.Context, examID uint, req *models.SaveAnswerRequest, userID string) error
	SaveAnswers(ctx context.Context, examID uint, req *models.SaveAnswersRequest, userID string) (*SaveAnswersResult, error)

	// Proctoring
	LogCheatEvent(ctx context.Context, examID uint, req *models.CheatEventRequest, userID string) (*models.ExamCheatLog, error)
}

type GradingService interface {
	// Manual grading of subjective answers
	GradeQuestion(ctx context.Context, recordID uint, req *models.GradeQuestionRequest, graderID string) (*GradingResult, error)
	GradeQuestions(ctx context.Context, recordID uint, req *models.GradeQuestionsRequest, graderID string) (*RecordGradingResult, error)

	// Auto grading
	AutoGradeRecord(ctx context.Context, recordID uint) (*RecordGradingResult, error)
	AutoGradeExam(ctx context.Context, examID uint) (map[uint]*RecordGradingResult, error)

	// Grader views
	ListPendingGrading(ctx context.Context, examID uint, page, size int) (*models.PaginatedResponse, error)
	RecordAnswers(ctx context.Context, recordID uint) (*RecordAnswersView, error)
}

type AnalyticsService interface {
	ExamStatistics(ctx context.Context, examID uint) (*ExamStatistics, error)
	WrongQuestionAnalysis(ctx context.Context, examID uint) ([]WrongQuestionStat, error)
	CheatLogs(ctx context.Context, examID uint) ([]*models.ExamCheatLog, error)
}

type StudentService interface {
	MyRecords(ctx context.Context, userID string, params models.ListRecordsParams) (*models.PaginatedResponse, error)
	RecordDetail(ctx context.Context, recordID uint, userID string) (*StudentRecordDetail, error)
}

type ExportService interface {
	// ExportStatistics renders the exam statistics and wrong question
	// analysis as an xlsx workbook. Returns the file bytes and a
	// suggested filename.
	ExportStatistics(ctx context.Context, examID uint) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Exam() ExamService
	Paper() PaperService
	Session() SessionService
	Grading() GradingService
	Analytics() AnalyticsService
	Student() StudentService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
