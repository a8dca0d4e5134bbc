package job

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetmerge/internal/config"
	"github.com/klytics/sheetmerge/internal/merge"
	"github.com/klytics/sheetmerge/internal/workbook"
)

const validJob = `
name: awards
folder: /data/classes
tasks:
  - label: OLE
  - label: Displine
    on_failure: skip
  - label: Custom
    process: AA2:AD10
    criteria: AA2:AA10
    when: sheet != "Summary"
consolidate:
  task: OLE
  columns:
    class_name: 1
    class_number: 2
    grouping: 3
    value: 4
`

func TestParseValid(t *testing.T) {
	f, err := Parse([]byte(validJob))
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "awards" || len(f.Tasks) != 3 {
		t.Errorf("unexpected job %+v", f)
	}
	if f.Tasks[2].When != `sheet != "Summary"` {
		t.Errorf("when = %q", f.Tasks[2].When)
	}
	if f.Consolidate == nil || f.Consolidate.Columns.Value != 4 {
		t.Errorf("consolidate = %+v", f.Consolidate)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no folder", "tasks:\n  - label: OLE\n", "folder"},
		{"no tasks", "folder: x\n", "no tasks"},
		{"no label", "folder: x\ntasks:\n  - process: AA1:AB2\n", "label"},
		{"duplicate", "folder: x\ntasks:\n  - label: A\n  - label: A\n", "duplicate"},
		{"bad on_failure", "folder: x\ntasks:\n  - label: A\n    on_failure: retry\n", "on_failure"},
		{"unknown consolidate task", "folder: x\ntasks:\n  - label: A\nconsolidate:\n  task: B\n", "unknown task"},
		{"missing columns", "folder: x\ntasks:\n  - label: A\nconsolidate:\n  task: A\n", "columns"},
		{"bad yaml", "folder: [", "invalid job YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("got %v", err)
	}
}

func TestLoadResolvesRelativeFolder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(path, []byte("folder: term1\ntasks:\n  - label: OLE\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "term1"); f.Folder != want {
		t.Errorf("folder = %q, want %q", f.Folder, want)
	}
}

func TestBuildFromPreset(t *testing.T) {
	cfg := config.Default()
	task, err := Build(TaskSpec{Label: "Displine"}, "/data", false, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if task.Process.String() != "BB26:BJ205" || task.Criteria.String() != "BB26:BB205" {
		t.Errorf("ranges = %s / %s", task.Process, task.Criteria)
	}
	if !task.Layout.DisciplineConcat {
		t.Error("Displine preset should concatenate the discipline column")
	}
	if task.Layout.ProvenanceColumn != 19 || task.Header.Mode != merge.HeaderEnumerated {
		t.Errorf("unexpected layout/header %+v %+v", task.Layout, task.Header)
	}
	if task.Fills[workbook.MarkZeroSuppressed] != "FFC1CC" {
		t.Errorf("fills = %v", task.Fills)
	}
	if task.OutputName() != "merge_Displine.xlsx" {
		t.Errorf("output = %s", task.OutputName())
	}
}

func TestBuildOverrides(t *testing.T) {
	cfg := config.Default()
	no := false
	task, err := Build(TaskSpec{
		Label:      "Late",
		Preset:     "ole",
		Criteria:   "CW26:CW205",
		Discipline: &no,
		Header:     "constant",
	}, "/data", true, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if task.Label != "Late" || task.Process.String() != "CV26:DM205" || task.Criteria.String() != "CW26:CW205" {
		t.Errorf("unexpected task %+v", task)
	}
	if task.Header.Mode != merge.HeaderConstant || task.Header.Token != "t1" {
		t.Errorf("header = %+v", task.Header)
	}
	if !task.Scan.Recursive {
		t.Error("recursive flag lost")
	}
}

func TestBuildErrors(t *testing.T) {
	cfg := config.Default()
	if _, err := Build(TaskSpec{Label: "x", Preset: "missing"}, "/d", false, cfg); err == nil {
		t.Error("expected unknown preset error")
	}
	if _, err := Build(TaskSpec{Label: "x"}, "/d", false, cfg); err == nil {
		t.Error("expected missing process range error")
	}
	if _, err := Build(TaskSpec{Label: "x", Process: "bad"}, "/d", false, cfg); err == nil {
		t.Error("expected malformed range error")
	}
}

func writeClassBook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", "7A")
	cells := map[string]interface{}{
		"AA2": "alice", "AB2": 1, "AC2": "gold", "AD2": "math",
		"AA3": "Alice", "AB3": 1, "AC3": "gold", "AD3": "art",
		"AA4": "bob", "AB4": 2, "AC4": "silver", "AD4": "pe",
	}
	for ref, v := range cells {
		if err := f.SetCellValue("7A", ref, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func TestExecutorRunsTasksAndConsolidates(t *testing.T) {
	dir := t.TempDir()
	writeClassBook(t, filepath.Join(dir, "class7.xlsx"))

	f := &File{
		Name:   "awards",
		Folder: dir,
		Tasks: []TaskSpec{
			{Label: "awards", Process: "AA2:AD10", Criteria: "AA2:AA10"},
			{Label: "broken", Process: "A15:B21", OnFailure: "skip"},
			{Label: "names", Process: "AA2:AA10"},
		},
		Consolidate: &ConsolidateSpec{
			Task:    "awards",
			Columns: consolidateColumns(),
		},
	}

	var finished []string
	res, err := NewExecutor(config.Default(), OnTask(func(tr TaskResult) {
		finished = append(finished, tr.Label)
	})).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Tasks) != 3 || strings.Join(finished, ",") != "awards,broken,names" {
		t.Fatalf("tasks = %+v", res.Tasks)
	}
	if res.Tasks[0].Report.RowsMerged != 3 {
		t.Errorf("awards rows = %d", res.Tasks[0].Report.RowsMerged)
	}
	if res.Tasks[1].Error == "" {
		t.Error("broken task should record an error")
	}
	if !res.Failed() {
		t.Error("Failed should report the skipped task")
	}
	if res.Tasks[2].Report == nil || res.Tasks[2].Report.FilesFound != 1 {
		t.Errorf("names task should not pick up merge_awards.xlsx: %+v", res.Tasks[2].Report)
	}

	c := res.Consolidation
	if c == nil {
		t.Fatal("missing consolidation result")
	}
	if c.RowsDeleted != 1 || c.GroupsMerged != 1 {
		t.Errorf("consolidation = %+v", c)
	}
	if filepath.Base(c.Output) != "merge_awards_processed.xlsx" {
		t.Errorf("output = %s", c.Output)
	}
	if _, err := os.Stat(c.Output); err != nil {
		t.Errorf("output missing: %v", err)
	}

	h, err := workbook.Open(c.Output)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	s, err := h.Sheet("Merged Data awards")
	if err != nil {
		t.Fatal(err)
	}
	if v := s.Cell(2, 4).Text; v != "math, art" {
		t.Errorf("combined = %q", v)
	}
}

func TestExecutorAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	f := &File{
		Folder: dir,
		Tasks: []TaskSpec{
			{Label: "broken", Process: "A15:B21"},
			{Label: "never", Process: "AA2:AA10"},
		},
	}
	res, err := NewExecutor(config.Default()).Run(context.Background(), f)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(res.Tasks) != 1 {
		t.Errorf("second task should not run, got %d results", len(res.Tasks))
	}
}

func TestExecutorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &File{Folder: t.TempDir(), Tasks: []TaskSpec{{Label: "a", Process: "AA2:AA10"}}}
	if _, err := NewExecutor(config.Default()).Run(ctx, f); err != context.Canceled {
		t.Errorf("got %v", err)
	}
}

func TestOutputs(t *testing.T) {
	f, err := Parse([]byte(validJob))
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(Outputs(f), ",")
	want := "merge_OLE.xlsx,merge_Displine.xlsx,merge_Custom.xlsx,merge_OLE_processed.xlsx"
	if got != want {
		t.Errorf("Outputs = %s, want %s", got, want)
	}
}

func TestResultErrorMessages(t *testing.T) {
	res := &Result{Tasks: []TaskResult{
		{Label: "OLE", Report: &merge.Report{Errors: []merge.FileError{{File: "b.xlsx", Message: "corrupt"}}}},
		{Label: "Custom", Error: "invalid range"},
		{Label: "Empty"},
	}}
	got := strings.Join(res.ErrorMessages(), "|")
	if got != "OLE: b.xlsx: corrupt|Custom: invalid range" {
		t.Errorf("got %q", got)
	}

	var none *Result
	if msgs := none.ErrorMessages(); msgs != nil {
		t.Errorf("nil result gave %v", msgs)
	}
}
