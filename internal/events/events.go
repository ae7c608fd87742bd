package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "examtaking-service"
	EventVersion = "1.0"
)

// Topic / event type constants. The event type doubles as the Kafka topic.
const (
	SessionStarted   = "exam.session.started"
	SessionSubmitted = "exam.session.submitted"
	RecordGraded     = "exam.record.graded"
	CheatLogged      = "exam.cheat.logged"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent wraps a payload in a fresh envelope.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// ===== EVENT PAYLOADS =====

type SessionStartedEvent struct {
	RecordID  uint      `json:"record_id"`
	ExamID    uint      `json:"exam_id"`
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
}

type SessionSubmittedEvent struct {
	RecordID       uint      `json:"record_id"`
	ExamID         uint      `json:"exam_id"`
	UserID         string    `json:"user_id"`
	SubmitTime     time.Time `json:"submit_time"`
	ObjectiveScore float64   `json:"objective_score"`
	TotalScore     float64   `json:"total_score"`
	PendingManual  int       `json:"pending_manual"`
}

type RecordGradedEvent struct {
	RecordID        uint    `json:"record_id"`
	ExamID          uint    `json:"exam_id"`
	UserID          string  `json:"user_id"`
	ObjectiveScore  float64 `json:"objective_score"`
	SubjectiveScore float64 `json:"subjective_score"`
	TotalScore      float64 `json:"total_score"`
	GradedBy        string  `json:"graded_by,omitempty"`
}

type CheatLoggedEvent struct {
	ExamID    uint      `json:"exam_id"`
	UserID    string    `json:"user_id"`
	CheatType string    `json:"cheat_type"`
	Count     int       `json:"count"`
	LastTime  time.Time `json:"last_time"`
}
