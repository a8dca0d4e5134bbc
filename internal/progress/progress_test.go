package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewWithEnvDisable(t *testing.T) {
	t.Setenv("SHEETMERGE_NO_PROGRESS", "1")
	if New("merge").Enabled {
		t.Error("expected tracker to be disabled with SHEETMERGE_NO_PROGRESS=1")
	}
}

func TestNewWithJSONDisable(t *testing.T) {
	t.Setenv("SHEETMERGE_JSON", "true")
	if New("merge").Enabled {
		t.Error("expected tracker to be disabled with SHEETMERGE_JSON=true")
	}
}

func TestTrackerCounts(t *testing.T) {
	tr := &Tracker{Width: 30}
	tr.StartFile(1, 3, "a.xlsx")
	tr.Sheet("7A", 10)
	tr.Sheet("7B", 5)
	tr.StartFile(2, 3, "b.xlsx")
	tr.Fail("b.xlsx", errors.New("corrupt"))
	tr.StartFile(3, 3, "c.xlsx")
	tr.Sheet("7C", 2)

	s := tr.Stats()
	if s.Files != 2 || s.Total != 3 || s.Sheets != 3 || s.Rows != 17 {
		t.Errorf("unexpected stats %+v", s)
	}
	if len(s.Failed) != 1 || s.Failed[0] != "b.xlsx" {
		t.Errorf("failed = %v", s.Failed)
	}
}

func TestStartFileClamps(t *testing.T) {
	tr := &Tracker{Width: 30}
	tr.StartFile(9, 3, "x.xlsx")
	if s := tr.Stats(); s.Files != 3 {
		t.Errorf("files = %d, want 3", s.Files)
	}
	tr.StartFile(0, 3, "x.xlsx")
	if s := tr.Stats(); s.Files != 0 {
		t.Errorf("files = %d, want 0", s.Files)
	}
}

func TestTrackerRendersToOut(t *testing.T) {
	var buf bytes.Buffer
	tr := &Tracker{Width: 10, Label: "Merging", Enabled: true, Out: &buf}
	tr.StartFile(2, 2, "b.xlsx")
	tr.Sheet("7A", 4)
	tr.Fail("b.xlsx", errors.New("locked"))
	tr.Finish("1 file(s) merged")

	out := buf.String()
	for _, want := range []string{
		"Merging [=====     ] 1/2 files  0 sheets  0 rows  b.xlsx",
		"b.xlsx / 7A +4",
		"✗ skipped b.xlsx: locked\n",
		"✓ 1 file(s) merged (1 skipped)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestFinishResets(t *testing.T) {
	tr := &Tracker{Width: 30}
	tr.StartFile(1, 1, "a.xlsx")
	tr.Sheet("S", 3)
	tr.Finish("done")
	if s := tr.Stats(); s.Total != 0 || s.Rows != 0 || len(s.Failed) != 0 {
		t.Errorf("stats not reset: %+v", s)
	}
}

func TestDisabledTrackerDoesNotWrite(t *testing.T) {
	var buf bytes.Buffer
	tr := &Tracker{Width: 30, Out: &buf}
	tr.StartFile(1, 10, "a.xlsx")
	tr.Fail("a.xlsx", errors.New("nothing"))
	tr.Finish("done")
	if buf.Len() > 0 {
		t.Errorf("disabled tracker should not write, wrote %q", buf.String())
	}
}
