// Package excelreport exports a run report as an XLSX workbook for operator
// review: a summary sheet, per-stage counts and the collected errors.
package excelreport

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/openjurist/enhancer/internal/core/domain"
)

const (
	summarySheet = "Summary"
	stagesSheet  = "Stages"
	errorsSheet  = "Errors"
)

func Write(report *domain.RunReport, path string) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(stagesSheet); err != nil {
		return fmt.Errorf("create stages sheet: %w", err)
	}
	if _, err := f.NewSheet(errorsSheet); err != nil {
		return fmt.Errorf("create errors sheet: %w", err)
	}

	if err := writeSummary(f, report); err != nil {
		return err
	}
	if err := writeStages(f, report); err != nil {
		return err
	}
	if err := writeErrors(f, report); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report *domain.RunReport) error {
	rows := [][]any{
		{"Run ID", report.RunID},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", report.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Documents attempted", report.DocumentsAttempted},
		{"Documents processed", report.DocumentsProcessed},
		{"Documents dropped", report.DocumentsDropped},
		{"Quality score", report.QualityScore},
		{"Completeness score", report.CompletenessScore},
		{"Persist failures", report.PersistFailures},
		{"Index failures", report.IndexFailures},
		{"Errors", report.Summary.ErrorCount},
		{"Warnings", report.Summary.WarningCount},
	}
	for category, score := range report.CategoryScores {
		rows = append(rows, []any{
			fmt.Sprintf("Score (%s, n=%d)", category, report.CategoryCounts[category]),
			score,
		})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeStages(f *excelize.File, report *domain.RunReport) error {
	header := []any{"Stage", "Resolved", "Unresolved", "Skipped", "Failed"}
	if err := f.SetSheetRow(stagesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write stages header: %w", err)
	}

	row := 2
	for _, stage := range domain.StageOrder {
		counts := report.StageCounts[stage]
		values := []any{string(stage), counts.Resolved, counts.Unresolved, counts.Skipped, counts.Failed}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("stages cell: %w", err)
		}
		if err := f.SetSheetRow(stagesSheet, cell, &values); err != nil {
			return fmt.Errorf("write stages row: %w", err)
		}
		row++
	}
	return nil
}

func writeErrors(f *excelize.File, report *domain.RunReport) error {
	header := []any{"Stage", "Document", "Message"}
	if err := f.SetSheetRow(errorsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write errors header: %w", err)
	}

	for i, entry := range report.Errors {
		values := []any{string(entry.Stage), entry.DocumentID, entry.Message}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("errors cell: %w", err)
		}
		if err := f.SetSheetRow(errorsSheet, cell, &values); err != nil {
			return fmt.Errorf("write errors row: %w", err)
		}
	}
	return nil
}
