package models

import (
	"time"

	"gorm.io/gorm"
)

// ExamPaper is an ordered, scored sequence of question references.
// TotalScore always equals the sum of the paper question scores and is
// recomputed inside the same transaction as every add/remove.
type ExamPaper struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null;size:255" validate:"required,min=2,max=255"`
	Description string `json:"description" gorm:"type:text"`

	TotalScore float64 `json:"total_score" gorm:"not null;default:0"`
	Duration   int     `json:"duration"` // minutes; 0 means derive from the exam window

	CreatedBy string `json:"created_by" gorm:"not null;size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []ExamPaperQuestion `json:"questions,omitempty" gorm:"foreignKey:PaperID"`
}

func (ExamPaper) TableName() string {
	return "exam_papers"
}

// ExamPaperQuestion places one question in a paper with an optional
// per-paper score override and a display position.
type ExamPaperQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	PaperID    uint `json:"paper_id" gorm:"not null;uniqueIndex:idx_paper_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_paper_question"`

	Score float64 `json:"score" gorm:"not null"` // full score for this question in this paper
	Order int     `json:"order" gorm:"column:position;not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Paper    ExamPaper `json:"-" gorm:"foreignKey:PaperID"`
	Question Question  `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExamPaperQuestion) TableName() string {
	return "exam_paper_questions"
}
