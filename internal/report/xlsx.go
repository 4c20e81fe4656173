package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/sweep"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/models"
)

// Workbook sheet names
const (
	RunsSheet    = "Runs"
	SummarySheet = "Summary"
)

// SummaryHeader is the header row of the Summary sheet
var SummaryHeader = []string{"Bundle Size", "Runs", "Valid Runs", "Mean Fitness", "Std Fitness", "Best Run", "Best Fitness"}

// WriteXLSX writes a workbook with a Runs sheet (the CSV columns) and a
// Summary sheet (one row per bundle size)
func WriteXLSX(path string, rows []models.SweepRow, summaries []sweep.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with Sheet1; rename it rather than leave it empty
	if err := f.SetSheetName("Sheet1", RunsSheet); err != nil {
		return err
	}
	if err := writeSheet(f, RunsSheet, CSVHeader, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.BundleSize, r.Run, r.CallGasLimit, r.VerificationGasLimit, r.PreVerificationGas,
			r.MaxFeePerGas, r.MaxPriorityFeePerGas, r.Fitness}
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	if err := writeSheet(f, SummarySheet, SummaryHeader, len(summaries), func(i int) []any {
		s := summaries[i]
		return []any{s.BundleSize, s.Runs, s.ValidRuns, s.MeanFitness, s.StdFitness, s.BestRun, s.BestFitness}
	}); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, n int, row func(int) []any) error {
	for j, name := range header {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		for j, v := range row(i) {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
