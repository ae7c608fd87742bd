package models

import (
	"testing"
	"time"
)

func TestExam_IsOpen(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	exam := &Exam{StartTime: start, EndTime: end}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before start", now: start.Add(-time.Minute), want: false},
		{name: "exactly at start", now: start, want: true},
		{name: "inside window", now: start.Add(time.Hour), want: true},
		{name: "exactly at end", now: end, want: false},
		{name: "after end", now: end.Add(time.Minute), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exam.IsOpen(tt.now); got != tt.want {
				t.Errorf("IsOpen(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestExamRecord_IsSubmitted(t *testing.T) {
	tests := []struct {
		status RecordStatus
		want   bool
	}{
		{RecordInProgress, false},
		{RecordSubmitted, true},
		{RecordGraded, true},
	}
	for _, tt := range tests {
		r := &ExamRecord{Status: tt.status}
		if got := r.IsSubmitted(); got != tt.want {
			t.Errorf("IsSubmitted() with status %d = %v, want %v", tt.status, got, tt.want)
		}
	}
}
