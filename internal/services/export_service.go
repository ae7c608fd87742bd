package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

type exportService struct {
	analytics AnalyticsService
	logger    *slog.Logger
}

func NewExportService(analytics AnalyticsService, logger *slog.Logger) ExportService {
	return &exportService{
		analytics: analytics,
		logger:    logger,
	}
}

// ExportStatistics writes a two-sheet workbook: overall exam statistics
// and the per-question wrong answer analysis.
func (s *exportService) ExportStatistics(ctx context.Context, examID uint) ([]byte, string, error) {
	stats, err := s.analytics.ExamStatistics(ctx, examID)
	if err != nil {
		return nil, "", err
	}
	wrong, err := s.analytics.WrongQuestionAnalysis(ctx, examID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Error("Failed to close workbook", "error", err)
		}
	}()

	const statsSheet = "Statistics"
	if err := f.SetSheetName("Sheet1", statsSheet); err != nil {
		return nil, "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	statRows := [][]interface{}{
		{"Exam", stats.ExamName},
		{"Paper Score", stats.PaperScore},
		{"Total Records", stats.TotalRecords},
		{"In Progress", stats.InProgress},
		{"Submitted", stats.SubmittedCount},
		{"Graded", stats.GradedCount},
		{"Average Score", stats.AverageScore},
		{"Pass Rate (%)", stats.PassRate},
	}
	if stats.MaxScore != nil {
		statRows = append(statRows, []interface{}{"Max Score", *stats.MaxScore})
	}
	if stats.MinScore != nil {
		statRows = append(statRows, []interface{}{"Min Score", *stats.MinScore})
	}
	for i, row := range statRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(statsSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write stats row: %w", err)
		}
	}

	const wrongSheet = "Wrong Questions"
	if _, err := f.NewSheet(wrongSheet); err != nil {
		return nil, "", fmt.Errorf("failed to add sheet: %w", err)
	}

	header := []interface{}{"Question ID", "Type", "Stem", "Answered", "Wrong", "Wrong Rate"}
	if err := f.SetSheetRow(wrongSheet, "A1", &header); err != nil {
		return nil, "", fmt.Errorf("failed to write header: %w", err)
	}
	for i, stat := range wrong {
		row := []interface{}{stat.QuestionID, string(stat.Type), stat.Stem, stat.AnswerCount, stat.WrongCount, stat.WrongRate}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(wrongSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write analysis row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize workbook: %w", err)
	}

	filename := fmt.Sprintf("exam_%d_statistics_%s.xlsx", examID, time.Now().Format("20060102"))
	s.logger.Info("Statistics exported", "exam_id", examID, "filename", filename, "bytes", buf.Len())
	return buf.Bytes(), filename, nil
}
