package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ExportService renders attempt results for a definition into downloadable
// spreadsheets.
type ExportService interface {
	ExportAttemptsToExcel(ctx context.Context, definitionID string) ([]byte, error)
	ExportAttemptsToCSV(ctx context.Context, definitionID string) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var attemptExportHeaders = []string{
	"Attempt ID", "Respondent ID", "Status", "Started At", "Completed At",
	"Score", "Max Score", "Percentage", "Maturity Level",
}

func (s *exportService) ExportAttemptsToExcel(ctx context.Context, definitionID string) ([]byte, error) {
	rows, err := s.attemptRows(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range attemptExportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported attempts to Excel", "definition_id", definitionID, "rows", len(rows))
	return buf.Bytes(), nil
}

func (s *exportService) ExportAttemptsToCSV(ctx context.Context, definitionID string) ([]byte, error) {
	rows, err := s.attemptRows(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(attemptExportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.logger.Info("Exported attempts to CSV", "definition_id", definitionID, "rows", len(rows))
	return []byte(buf.String()), nil
}

func (s *exportService) attemptRows(ctx context.Context, definitionID string) ([][]string, error) {
	if _, err := s.repo.Definition().GetRecord(ctx, definitionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("failed to get definition record: %w", err)
	}

	attempts, _, err := s.repo.Attempt().GetByDefinition(ctx, definitionID, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}

	rows := make([][]string, 0, len(attempts))
	for _, attempt := range attempts {
		completedAt := ""
		if attempt.CompletedAt != nil {
			completedAt = attempt.CompletedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{
			attempt.ID,
			attempt.RespondentID,
			string(attempt.Status),
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
			completedAt,
			strconv.Itoa(attempt.Score),
			strconv.Itoa(attempt.MaxScore),
			strconv.Itoa(attempt.Percent),
			attempt.Level,
		})
	}
	return rows, nil
}
