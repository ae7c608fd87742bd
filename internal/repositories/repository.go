package repositories

import "context"

// Repository aggregates all entity repositories.
type Repository interface {
	// Exam domain
	Exam() ExamRepository
	Paper() PaperRepository
	Question() QuestionRepository

	// Session domain
	Record() RecordRepository
	Answer() AnswerRepository
	CheatLog() CheatLogRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
