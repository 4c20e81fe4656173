package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/sweep"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/userop"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/models"
)

func outcome(bundle int64, run int, cost float64, valid bool) sweep.RunOutcome {
	c := evolution.Candidate[userop.Genome]{
		Genome: userop.Genome{
			CallGasLimit:         30000,
			VerificationGasLimit: 30000,
			PreVerificationGas:   50000,
			MaxFeePerGas:         2,
			MaxPriorityFeePerGas: 0.5,
		},
	}
	if valid {
		c.Evaluation = evolution.Evaluation{Valid: true, Cost: cost, GasUsed: 120000 * bundle, LatencyMs: 950}
	} else {
		c.Evaluation = evolution.Penalty()
	}
	return sweep.RunOutcome{SweepID: "sweep-test", BundleSize: bundle, Run: run, Seed: int64(run - 1), Best: c, Generations: 5}
}

func testResult() *sweep.Result {
	outcomes := []sweep.RunOutcome{
		outcome(5, 1, 0.0012, true),
		outcome(5, 2, 0.0011, true),
		outcome(10, 1, 0.0023, true),
		outcome(10, 2, 0, false),
	}
	return &sweep.Result{
		SweepID:   "sweep-test",
		Outcomes:  outcomes,
		Summaries: sweep.Summarize(outcomes),
		BestIndex: sweep.Best(outcomes),
	}
}

func TestFileNames(t *testing.T) {
	if got := UserOpFileName(100, 3); got != "userOp_bundle100_run3.json" {
		t.Fatalf("unexpected user operation file name %q", got)
	}
	if got := GasOutputFileName(5, 20); got != "gasOutput_bundle5_run20.json" {
		t.Fatalf("unexpected gas output file name %q", got)
	}
}

func TestWriteSweep(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res := testResult()

	if err := NewWriter(dir, true).WriteSweep(context.Background(), res); err != nil {
		t.Fatalf("WriteSweep error: %v", err)
	}

	for _, o := range res.Outcomes {
		for _, name := range []string{UserOpFileName(o.BundleSize, o.Run), GasOutputFileName(o.BundleSize, o.Run)} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Fatalf("expected %s to exist: %v", name, err)
			}
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, UserOpFileName(5, 1)))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	var op models.UserOperation
	if err := json.Unmarshal(data, &op); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if op.BundleSize != 5 || op.CallGasLimit != 30000 || op.CallData != models.DefaultCallData {
		t.Fatalf("unexpected user operation record %+v", op)
	}

	data, err = os.ReadFile(filepath.Join(dir, GasOutputFileName(10, 2)))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !strings.Contains(string(data), `"invalid"`) {
		t.Fatalf("expected invalid gas output, got %s", data)
	}

	if _, err := os.Stat(filepath.Join(dir, SummaryName)); err != nil {
		t.Fatalf("expected summary file: %v", err)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	res := testResult()
	if err := NewWriter(dir, false).WriteSweep(context.Background(), res); err != nil {
		t.Fatalf("WriteSweep error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, XLSXFileName)); !os.IsNotExist(err) {
		t.Fatalf("expected no workbook when xlsx is disabled, stat error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, CSVFileName))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	header := strings.SplitN(string(raw), "\n", 2)[0]
	if header != strings.Join(CSVHeader, ",") {
		t.Fatalf("unexpected header %q", header)
	}

	rows, err := ReadCSV(filepath.Join(dir, CSVFileName))
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if len(rows) != len(res.Outcomes) {
		t.Fatalf("expected %d rows, got %d", len(res.Outcomes), len(rows))
	}
	for i, o := range res.Outcomes {
		want := o.Row()
		got := rows[i]
		if got.BundleSize != want.BundleSize || got.Run != want.Run || got.Fitness != want.Fitness ||
			got.MaxPriorityFeePerGas != want.MaxPriorityFeePerGas || got.PreVerificationGas != want.PreVerificationGas {
			t.Fatalf("row %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestReadCSVRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := strings.Join(CSVHeader, ",") + "\n5,1,abc,1,1,1,1,1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadCSV(path)
	if err == nil || !strings.Contains(err.Error(), "callGasLimit") {
		t.Fatalf("expected a callGasLimit column error, got %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	dir := t.TempDir()
	res := testResult()
	if err := NewWriter(dir, true).WriteSweep(context.Background(), res); err != nil {
		t.Fatalf("WriteSweep error: %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, XLSXFileName))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != RunsSheet || sheets[1] != SummarySheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	runs, err := f.GetRows(RunsSheet)
	if err != nil {
		t.Fatalf("GetRows error: %v", err)
	}
	if len(runs) != len(res.Outcomes)+1 {
		t.Fatalf("expected %d rows in %s, got %d", len(res.Outcomes)+1, RunsSheet, len(runs))
	}
	if runs[0][0] != "Bundle Size" || runs[1][0] != "5" || runs[3][0] != "10" {
		t.Fatalf("unexpected runs sheet contents %v", runs)
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows error: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("expected header plus two bundle sizes, got %v", summary)
	}
	// bundle 5: best is run 2
	if summary[1][0] != "5" || summary[1][5] != "2" {
		t.Fatalf("unexpected summary row %v", summary[1])
	}
}

func TestWriteSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewWriter(t.TempDir(), false).WriteSweep(ctx, testResult()); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
