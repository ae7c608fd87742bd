package models

import (
	"time"

	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamStatusDraft       ExamStatus = "draft"
	ExamStatusPublished   ExamStatus = "published"
	ExamStatusUnpublished ExamStatus = "unpublished"
)

// Exam is one scheduled sitting of a paper. It is never hard-deleted
// while ExamRecords for it exist.
type Exam struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	PaperID uint   `json:"paper_id" gorm:"not null;index"`
	Name    string `json:"name" gorm:"not null;size:255" validate:"required,min=2,max=255"`

	// Open window. Sessions may only be started while now is inside
	// [StartTime, EndTime).
	StartTime time.Time `json:"start_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`

	AllowRoles string     `json:"allow_roles" gorm:"size:255"` // comma-separated role names
	Status     ExamStatus `json:"status" gorm:"default:draft;index"`
	CreatedBy  string     `json:"created_by" gorm:"not null;size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Paper   ExamPaper    `json:"paper,omitempty" gorm:"foreignKey:PaperID"`
	Records []ExamRecord `json:"records,omitempty" gorm:"foreignKey:ExamID"`
}

func (Exam) TableName() string {
	return "exams"
}

// IsOpen reports whether the exam window contains now.
func (e *Exam) IsOpen(now time.Time) bool {
	return !now.Before(e.StartTime) && now.Before(e.EndTime)
}
