package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionJudge    QuestionType = "judge"
	QuestionBlank    QuestionType = "blank"
	QuestionShort    QuestionType = "short"
)

// IsObjective reports whether the type carries a canonical answer and is
// auto-gradable. Short answers are graded by hand.
func (t QuestionType) IsObjective() bool {
	switch t {
	case QuestionSingle, QuestionMultiple, QuestionJudge, QuestionBlank:
		return true
	}
	return false
}

type DifficultyLevel int

const (
	DifficultyEasy   DifficultyLevel = 1
	DifficultyMedium DifficultyLevel = 2
	DifficultyHard   DifficultyLevel = 3
)

type Question struct {
	ID   uint         `json:"id" gorm:"primaryKey"`
	Type QuestionType `json:"type" gorm:"not null;index"`
	Stem string       `json:"stem" gorm:"type:text;not null" validate:"required"`

	// Options and canonical answer stored as JSONB. Answer is read only by
	// the grading path and is never rendered into student-facing views.
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`
	Answer  datatypes.JSON `json:"-" gorm:"type:jsonb"`

	Score      float64         `json:"score" gorm:"not null;default:0"` // default full score, overridable per paper
	CategoryID *uint           `json:"category_id" gorm:"index"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:2;index"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// CanonicalAnswer returns the stored answer payload as a plain string for
// the exact-equality comparison the objective grader uses.
func (q *Question) CanonicalAnswer() string {
	return jsonText(q.Answer)
}

// jsonText unwraps a JSONB scalar into the raw string used for grading
// comparison. A JSON string value loses its quotes; everything else keeps
// its serialized form.
func jsonText(raw datatypes.JSON) string {
	s := string(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
