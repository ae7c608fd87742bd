package models

import (
	"time"

	"gorm.io/gorm"
)

type RecordStatus int

const (
	RecordInProgress RecordStatus = 1
	RecordSubmitted  RecordStatus = 2
	RecordGraded     RecordStatus = 3
)

// ExamRecord is one student's session on one exam. The partial unique
// index on (exam_id, user_id) is the race guard: a concurrent duplicate
// start surfaces as a constraint violation, never as a second row, while
// an administratively soft-deleted record frees the pair to start again.
type ExamRecord struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	ExamID uint   `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_user,where:deleted_at IS NULL"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_exam_user"`

	StartTime  time.Time  `json:"start_time" gorm:"not null"`
	SubmitTime *time.Time `json:"submit_time"`

	Status RecordStatus `json:"status" gorm:"default:1;index"`

	ObjectiveScore  float64  `json:"objective_score" gorm:"not null;default:0"`
	SubjectiveScore float64  `json:"subjective_score" gorm:"not null;default:0"`
	TotalScore      *float64 `json:"total_score"` // nil until submitted

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Exam    Exam         `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	Answers []ExamAnswer `json:"answers,omitempty" gorm:"foreignKey:RecordID"`
}

func (ExamRecord) TableName() string {
	return "exam_records"
}

// IsSubmitted reports whether the session has moved past in_progress.
func (r *ExamRecord) IsSubmitted() bool {
	return r.Status >= RecordSubmitted
}

// ExamAnswer holds one student's answer to one question. At most one live
// row per (record_id, question_id); saves are last-write-wins upserts.
type ExamAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	RecordID   uint `json:"record_id" gorm:"not null;uniqueIndex:idx_record_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_record_question"`

	Answer string   `json:"answer" gorm:"type:text"` // empty string is a cleared answer, not absence
	Score  *float64 `json:"score"`                   // nil until graded

	GradedBy *string    `json:"graded_by" gorm:"size:255"` // set by manual grading only
	GradedAt *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Record   ExamRecord `json:"-" gorm:"foreignKey:RecordID"`
	Question Question   `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}

// ExamCheatLog is a monotonic per-type counter of suspected cheating
// events. Count is only ever incremented.
type ExamCheatLog struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	ExamID uint   `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_user_type"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_exam_user_type"`

	CheatType string    `json:"cheat_type" gorm:"not null;size:64;uniqueIndex:idx_exam_user_type"`
	Count     int       `json:"count" gorm:"not null;default:0"`
	LastTime  time.Time `json:"last_time"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ExamCheatLog) TableName() string {
	return "exam_cheat_logs"
}
