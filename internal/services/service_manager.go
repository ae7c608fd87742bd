package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/events"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	config    ServiceManagerConfig

	// Service instances
	examService      ExamService
	paperService     PaperService
	sessionService   SessionService
	gradingService   GradingService
	analyticsService AnalyticsService
	studentService   StudentService
	exportService    ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,
		DefaultTimeout:     30 * time.Second,
	}
	return NewServiceManager(db, repo, logger, validator, publisher, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.examService = NewExamService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.paperService = NewPaperService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.sessionService = NewSessionService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.gradingService = NewGradingService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.analyticsService = NewAnalyticsService(sm.repo, sm.db, sm.logger)
	sm.studentService = NewStudentService(sm.repo, sm.db, sm.logger)
	sm.exportService = NewExportService(sm.analyticsService, sm.logger)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

// ===== SERVICE GETTERS =====

func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.examService == nil {
		panic("exam service not initialized")
	}
	return sm.examService
}

func (sm *serviceManager) Paper() PaperService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.paperService == nil {
		panic("paper service not initialized")
	}
	return sm.paperService
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.sessionService == nil {
		panic("session service not initialized")
	}
	return sm.sessionService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.gradingService == nil {
		panic("grading service not initialized")
	}
	return sm.gradingService
}

func (sm *serviceManager) Analytics() AnalyticsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.analyticsService == nil {
		panic("analytics service not initialized")
	}
	return sm.analyticsService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.studentService == nil {
		panic("student service not initialized")
	}
	return sm.studentService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.exportService == nil {
		panic("export service not initialized")
	}
	return sm.exportService
}

// ===== HEALTH AND LIFECYCLE =====

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down")
	return nil
}
