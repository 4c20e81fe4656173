package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/sweep"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/models"
)

// Output file names
const (
	CSVFileName  = "multi_userops_results.csv"
	XLSXFileName = "results.xlsx"
	SummaryName  = "summary.json"
)

// CSVHeader is the header row of the results CSV
var CSVHeader = []string{
	"Bundle Size", "Run", "callGasLimit", "verificationGasLimit", "preVerificationGas",
	"maxFeePerGas", "maxPriorityFeePerGas", "Fitness",
}

// UserOpFileName is the per-run UserOperation record file
func UserOpFileName(bundleSize int64, run int) string {
	return fmt.Sprintf("userOp_bundle%d_run%d.json", bundleSize, run)
}

// GasOutputFileName is the per-run gas/latency record file
func GasOutputFileName(bundleSize int64, run int) string {
	return fmt.Sprintf("gasOutput_bundle%d_run%d.json", bundleSize, run)
}

// Writer persists sweep results to a directory
type Writer struct {
	dir  string
	xlsx bool
	log  *slog.Logger
}

var _ sweep.Sink = (*Writer)(nil)

// NewWriter creates a writer for dir; xlsx also produces the workbook
func NewWriter(dir string, xlsx bool) *Writer {
	return &Writer{dir: dir, xlsx: xlsx, log: logger.Default}
}

// WithLogger sets the logger
func (w *Writer) WithLogger(l *slog.Logger) *Writer {
	w.log = l
	return w
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// WriteSweep writes per-run JSON records, the CSV, the summary and,
// when enabled, the workbook
func (w *Writer) WriteSweep(ctx context.Context, res *sweep.Result) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rows := make([]models.SweepRow, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteRun(o); err != nil {
			return err
		}
		rows = append(rows, o.Row())
	}

	if err := WriteCSV(filepath.Join(w.dir, CSVFileName), rows); err != nil {
		return err
	}
	if err := WriteJSON(filepath.Join(w.dir, SummaryName), res.Summaries); err != nil {
		return err
	}
	if w.xlsx {
		if err := WriteXLSX(filepath.Join(w.dir, XLSXFileName), rows, res.Summaries); err != nil {
			return err
		}
	}

	w.log.Info("sweep results written", "dir", w.dir, "runs", len(rows), "xlsx", w.xlsx)
	return nil
}

// WriteRun writes the UserOperation and gas output records of one run
func (w *Writer) WriteRun(o sweep.RunOutcome) error {
	if err := WriteJSON(filepath.Join(w.dir, UserOpFileName(o.BundleSize, o.Run)), o.UserOperation()); err != nil {
		return err
	}
	return WriteJSON(filepath.Join(w.dir, GasOutputFileName(o.BundleSize, o.Run)), o.GasOutput())
}

// WriteJSON writes v as indented JSON
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// csvRecord renders a row in CSVHeader column order
func csvRecord(r models.SweepRow) []string {
	return []string{
		strconv.FormatInt(r.BundleSize, 10),
		strconv.Itoa(r.Run),
		strconv.FormatInt(r.CallGasLimit, 10),
		strconv.FormatInt(r.VerificationGasLimit, 10),
		strconv.FormatInt(r.PreVerificationGas, 10),
		formatFloat(r.MaxFeePerGas),
		formatFloat(r.MaxPriorityFeePerGas),
		formatFloat(r.Fitness),
	}
}

// WriteCSV writes the results CSV
func WriteCSV(path string, rows []models.SweepRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(csvRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV reads a results CSV written by WriteCSV
func ReadCSV(path string) ([]models.SweepRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}

	rows := make([]models.SweepRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec []string) (models.SweepRow, error) {
	if len(rec) != len(CSVHeader) {
		return models.SweepRow{}, fmt.Errorf("expected %d columns, got %d", len(CSVHeader), len(rec))
	}
	var (
		r    models.SweepRow
		errs [8]error
		run  int64
	)
	r.BundleSize, errs[0] = strconv.ParseInt(rec[0], 10, 64)
	run, errs[1] = strconv.ParseInt(rec[1], 10, 64)
	r.CallGasLimit, errs[2] = strconv.ParseInt(rec[2], 10, 64)
	r.VerificationGasLimit, errs[3] = strconv.ParseInt(rec[3], 10, 64)
	r.PreVerificationGas, errs[4] = strconv.ParseInt(rec[4], 10, 64)
	r.MaxFeePerGas, errs[5] = strconv.ParseFloat(rec[5], 64)
	r.MaxPriorityFeePerGas, errs[6] = strconv.ParseFloat(rec[6], 64)
	r.Fitness, errs[7] = strconv.ParseFloat(rec[7], 64)
	for i, err := range errs {
		if err != nil {
			return models.SweepRow{}, fmt.Errorf("column %q: %w", CSVHeader[i], err)
		}
	}
	r.Run = int(run)
	return r, nil
}
