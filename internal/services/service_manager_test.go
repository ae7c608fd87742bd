package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/SAP-F-2025/examtaking-service/internal/events"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newMockRepository()
	v := validator.New()
	publisher := events.NewMockEventPublisher(logger)
	ctx := context.Background()

	sm := NewDefaultServiceManager(nil, repo, logger, v, publisher)

	t.Run("getter panics before initialize", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for uninitialized service")
			}
		}()
		sm.Exam()
	})

	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	// Initialize is idempotent.
	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize() error = %v", err)
	}

	for name, get := range map[string]func() any{
		"exam":      func() any { return sm.Exam() },
		"paper":     func() any { return sm.Paper() },
		"session":   func() any { return sm.Session() },
		"grading":   func() any { return sm.Grading() },
		"analytics": func() any { return sm.Analytics() },
		"student":   func() any { return sm.Student() },
		"export":    func() any { return sm.Export() },
	} {
		if get() == nil {
			t.Errorf("%s service is nil after initialize", name)
		}
	}

	if err := sm.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := sm.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after shutdown should fail")
	}
}
