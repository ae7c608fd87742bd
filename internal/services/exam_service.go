package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
	"github.com/SAP-F-2025/examtaking-service/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ExamService {
	return &examService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CRUD =====

func (s *examService) Create(ctx context.Context, req *models.ExamCreateRequest, creatorID string) (*ExamResponse, error) {
	s.logger.Info("Creating exam", "name", req.Name, "creator_id", creatorID)

	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if errs := s.validator.Business().ValidateExamCreate(req); len(errs) > 0 {
		return nil, errs
	}

	// The paper must exist before an exam can reference it.
	if _, err := s.repo.Paper().GetByID(ctx, s.db, req.PaperID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to get exam paper: %w", err)
	}

	status := models.ExamStatusDraft
	if req.Publish {
		status = models.ExamStatusPublished
	}

	exam := &models.Exam{
		PaperID:    req.PaperID,
		Name:       req.Name,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		AllowRoles: req.AllowRoles,
		Status:     status,
		CreatedBy:  creatorID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Exam().Create(ctx, tx, exam)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created", "exam_id", exam.ID, "status", exam.Status)
	return s.buildExamResponse(ctx, exam, creatorID)
}

func (s *examService) GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return s.buildExamResponse(ctx, exam, userID)
}

func (s *examService) Update(ctx context.Context, id uint, req *models.ExamUpdateRequest, userID string) (*ExamResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	exam, err := s.getOwnedExam(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Business().ValidateExamUpdate(req, exam); len(errs) > 0 {
		return nil, errs
	}

	if req.Name != nil {
		exam.Name = *req.Name
	}
	if req.StartTime != nil {
		exam.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		exam.EndTime = *req.EndTime
	}
	if req.AllowRoles != nil {
		exam.AllowRoles = *req.AllowRoles
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Exam().Update(ctx, tx, exam)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}

	s.logger.Info("Exam updated", "exam_id", id, "user_id", userID)
	return s.buildExamResponse(ctx, exam, userID)
}

func (s *examService) Delete(ctx context.Context, id uint, userID string) error {
	exam, err := s.getOwnedExam(ctx, id, userID, "delete")
	if err != nil {
		return err
	}

	recordCount, err := s.repo.Exam().CountRecords(ctx, s.db, id)
	if err != nil {
		return fmt.Errorf("failed to count exam records: %w", err)
	}
	if errs := s.validator.Business().ValidateExamDelete(recordCount); len(errs) > 0 {
		return ErrExamHasRecords
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Exam().Delete(ctx, tx, exam.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info("Exam deleted", "exam_id", id, "user_id", userID)
	return nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters, userID string) (*ExamListResponse, error) {
	exams, total, err := s.repo.Exam().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	responses := make([]*ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, &ExamResponse{
			Exam:      exam,
			CanEdit:   exam.CreatedBy == userID,
			CanDelete: exam.CreatedBy == userID,
		})
	}

	size := filters.Limit
	page := 0
	if size > 0 {
		page = filters.Offset / size
	}
	return &ExamListResponse{Exams: responses, Total: total, Page: page, Size: size}, nil
}

// ===== STATUS MANAGEMENT =====

func (s *examService) Publish(ctx context.Context, id uint, userID string) error {
	exam, err := s.getOwnedExam(ctx, id, userID, "publish")
	if err != nil {
		return err
	}
	if errs := s.validator.Business().ValidatePublishTransition(exam.Status, models.ExamStatusPublished); len(errs) > 0 {
		return errs
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Exam().UpdateStatus(ctx, tx, id, models.ExamStatusPublished, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to publish exam: %w", err)
	}

	s.logger.Info("Exam published", "exam_id", id, "user_id", userID)
	return nil
}

// Unpublish withdraws a published exam and drags the window end into the
// past, so no new session can start even if the status is flipped back.
func (s *examService) Unpublish(ctx context.Context, id uint, userID string) error {
	exam, err := s.getOwnedExam(ctx, id, userID, "unpublish")
	if err != nil {
		return err
	}
	if errs := s.validator.Business().ValidatePublishTransition(exam.Status, models.ExamStatusUnpublished); len(errs) > 0 {
		return errs
	}

	now := time.Now()
	endTime := &now
	if exam.EndTime.Before(now) {
		endTime = nil // already over, leave the window alone
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Exam().UpdateStatus(ctx, tx, id, models.ExamStatusUnpublished, endTime)
	})
	if err != nil {
		return fmt.Errorf("failed to unpublish exam: %w", err)
	}

	s.logger.Info("Exam unpublished", "exam_id", id, "user_id", userID)
	return nil
}

// ===== HELPERS =====

func (s *examService) getOwnedExam(ctx context.Context, id uint, userID, action string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.CreatedBy != userID {
		return nil, NewPermissionError(userID, fmt.Sprintf("%s exam %d", action, id))
	}
	return exam, nil
}

func (s *examService) buildExamResponse(ctx context.Context, exam *models.Exam, userID string) (*ExamResponse, error) {
	recordCount, err := s.repo.Exam().CountRecords(ctx, s.db, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count exam records: %w", err)
	}

	owned := exam.CreatedBy == userID
	return &ExamResponse{
		Exam:        exam,
		RecordCount: recordCount,
		CanEdit:     owned,
		CanDelete:   owned && recordCount == 0,
	}, nil
}
