package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

type paperService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewPaperService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) PaperService {
	return &paperService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CRUD =====

func (s *paperService) Create(ctx context.Context, req *models.PaperCreateRequest, creatorID string) (*PaperResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	paper := &models.ExamPaper{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		CreatedBy:   creatorID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Paper().Create(ctx, tx, paper)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exam paper: %w", err)
	}

	s.logger.Info("Exam paper created", "paper_id", paper.ID, "creator_id", creatorID)
	return &PaperResponse{ExamPaper: paper}, nil
}

func (s *paperService) GetByID(ctx context.Context, id uint) (*PaperResponse, error) {
	paper, err := s.repo.Paper().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to get exam paper: %w", err)
	}

	questions, err := s.repo.Paper().GetQuestions(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load paper questions: %w", err)
	}

	return &PaperResponse{ExamPaper: paper, QuestionCount: len(questions)}, nil
}

func (s *paperService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.getOwnedPaper(ctx, id, userID, "delete"); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Paper().Delete(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete exam paper: %w", err)
	}

	s.logger.Info("Exam paper deleted", "paper_id", id, "user_id", userID)
	return nil
}

// ===== QUESTION MANAGEMENT =====

func (s *paperService) GetQuestions(ctx context.Context, paperID uint) ([]*models.ExamPaperQuestion, error) {
	if _, err := s.repo.Paper().GetByID(ctx, s.db, paperID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to get exam paper: %w", err)
	}
	return s.repo.Paper().GetQuestions(ctx, s.db, paperID)
}

func (s *paperService) AddQuestion(ctx context.Context, paperID uint, req *models.PaperQuestionRequest, userID string) (*PaperResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	paper, err := s.getOwnedPaper(ctx, paperID, userID, "modify")
	if err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, s.db, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if errs := s.validator.Business().ValidatePaperQuestion(req, question.Score); len(errs) > 0 {
		return nil, errs
	}

	score := question.Score
	if req.Score != nil {
		score = *req.Score
	}

	pq := &models.ExamPaperQuestion{
		PaperID:    paperID,
		QuestionID: req.QuestionID,
		Score:      score,
		Order:      req.Order,
	}

	// The insert and the total recompute share one transaction so the
	// paper total never drifts from the sum of its questions.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Paper().AddQuestion(ctx, tx, pq); err != nil {
			return err
		}
		total, err := s.repo.Paper().RecalculateTotalScore(ctx, tx, paperID)
		if err != nil {
			return err
		}
		paper.TotalScore = total
		return nil
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, NewBusinessRuleError("duplicate_question", "question is already in the paper")
		}
		return nil, fmt.Errorf("failed to add question to paper: %w", err)
	}

	s.logger.Info("Question added to paper",
		"paper_id", paperID,
		"question_id", req.QuestionID,
		"score", score,
		"total_score", paper.TotalScore)

	return s.GetByID(ctx, paperID)
}

func (s *paperService) RemoveQuestion(ctx context.Context, paperID, questionID uint, userID string) (*PaperResponse, error) {
	paper, err := s.getOwnedPaper(ctx, paperID, userID, "modify")
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Paper().RemoveQuestion(ctx, tx, paperID, questionID); err != nil {
			return err
		}
		total, err := s.repo.Paper().RecalculateTotalScore(ctx, tx, paperID)
		if err != nil {
			return err
		}
		paper.TotalScore = total
		return nil
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotInPaper
		}
		return nil, fmt.Errorf("failed to remove question from paper: %w", err)
	}

	s.logger.Info("Question removed from paper",
		"paper_id", paperID,
		"question_id", questionID,
		"total_score", paper.TotalScore)

	return s.GetByID(ctx, paperID)
}

// ===== HELPERS =====

func (s *paperService) getOwnedPaper(ctx context.Context, id uint, userID, action string) (*models.ExamPaper, error) {
	paper, err := s.repo.Paper().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to get exam paper: %w", err)
	}
	if paper.CreatedBy != userID {
		return nil, NewPermissionError(userID, fmt.Sprintf("%s paper %d", action, id))
	}
	return paper, nil
}
