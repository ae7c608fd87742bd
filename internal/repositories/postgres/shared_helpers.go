package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountRecords counts records for an exam
func (h *SharedHelpers) CountRecords(ctx context.Context, examID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.ExamRecord{}).
		Where("exam_id = ?", examID).
		Count(&count).Error
	return count, err
}

// CountRecordsByStatus counts records by status
func (h *SharedHelpers) CountRecordsByStatus(ctx context.Context, examID uint, status models.RecordStatus) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.ExamRecord{}).
		Where("exam_id = ? AND status = ?", examID, status).
		Count(&count).Error
	return count, err
}

// ApplyExamFilters applies common filters to exam queries
func (h *SharedHelpers) ApplyExamFilters(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Search+"%")
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyRecordFilters applies common filters to record queries
func (h *SharedHelpers) ApplyRecordFilters(query *gorm.DB, filters repositories.RecordFilters) *gorm.DB {
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"id":          true,
		"name":        true,
		"status":      true,
		"start_time":  true,
		"submit_time": true,
		"total_score": true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
