package search

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetmerge/internal/progress"
	"github.com/klytics/sheetmerge/internal/scan"
)

// Search tests assert with testify, like the merge engine tests.
func writeBook(t *testing.T, path string, sheets map[string]map[string]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	first := true
	for name, cells := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for ref, v := range cells {
			require.NoError(t, f.SetCellValue(name, ref, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestParseTerms(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob smith"}, ParseTerms(" Alice, ,Bob Smith ,"))
	assert.Empty(t, ParseTerms(" , "))
}

func TestRunFindsTermsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "term2"), 0o755))
	writeBook(t, filepath.Join(dir, "a.xlsx"), map[string]map[string]interface{}{
		"7A": {"H3": "Class 7A", "H4": "Ms Lee", "B10": "ALICE Tan", "C10": 42, "D11": "bobby"},
	})
	writeBook(t, filepath.Join(dir, "term2", "b.xlsm"), map[string]map[string]interface{}{
		"7B": {"A1": "no match", "E5": "Alice again"},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("junk"), 0o644))

	res, err := Run(context.Background(), dir, ParseTerms("alice,bob"), Options{
		Scan: scan.Options{Recursive: true, Extensions: []string{".xlsx", ".xlsm"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.FilesSearched)
	require.Len(t, res.Unreadable, 1)
	assert.Equal(t, "broken.xlsx", filepath.Base(res.Unreadable[0].File))

	require.Len(t, res.Hits, 3)
	h := res.Hits[0]
	assert.Equal(t, "7A", h.Sheet)
	assert.Equal(t, "ALICE Tan", h.Text)
	assert.Equal(t, "alice", h.Term)
	assert.Equal(t, 10, h.Row)
	assert.Equal(t, 2, h.Column)
	assert.Equal(t, "B10", h.Cell)
	assert.Equal(t, []string{"Class 7A", "Ms Lee", "", ""}, h.Context)

	assert.Equal(t, "bob", res.Hits[1].Term)
	assert.Equal(t, "b.xlsm", filepath.Base(res.Hits[2].File))
}

func TestRunReportsFilesToTracker(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, filepath.Join(dir, "a.xlsx"), map[string]map[string]interface{}{
		"7A": {"B2": "alice"},
	})
	writeBook(t, filepath.Join(dir, "c.xlsx"), map[string]map[string]interface{}{
		"7C": {"B2": "carol"},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("junk"), 0o644))

	tracker := progress.New("Searching")
	tracker.Enabled = false
	_, err := Run(context.Background(), dir, []string{"alice"}, Options{
		Scan:     scan.Options{Extensions: []string{".xlsx"}},
		Progress: tracker,
	})
	require.NoError(t, err)

	s := tracker.Stats()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, []string{"broken.xlsx"}, s.Failed)
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := Run(context.Background(), t.TempDir(), nil, Options{})
	assert.Error(t, err)

	_, err = Run(context.Background(), t.TempDir(), []string{"x"}, Options{ContextCells: []string{"8H"}})
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	res := &Result{
		ContextCells: []string{"H3"},
		Hits: []Hit{
			{File: "/d/a.xlsx", Sheet: "7A", Text: "Alice, Tan", Row: 10, Column: 2, Context: []string{"Class 7A"}},
		},
	}
	var buf bytes.Buffer
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, WriteCSV(&buf, res, at))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Export Date (UTC):,2024-05-01 08:30:00", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "Filename,Sheet Name,Cell Content,Row,Column,H3", lines[2])

	rec, err := csv.NewReader(strings.NewReader(lines[3])).Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"/d/a.xlsx", "7A", "Alice, Tan", "10", "2", "Class 7A"}, rec)
}
