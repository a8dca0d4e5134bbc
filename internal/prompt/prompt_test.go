package prompt

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chzyer/readline"
)

type scriptReader struct {
	lines   []string
	prompts []string
	err     error
}

func (s *scriptReader) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func (s *scriptReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestAskUsesDefault(t *testing.T) {
	r := &scriptReader{lines: []string{"  "}}
	p := NewWithReader(r, nil)

	got, err := p.Ask("Process range", "CV26:DM205", nil)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "CV26:DM205" {
		t.Errorf("got %q, want default", got)
	}
	if r.prompts[0] != "Process range [CV26:DM205]: " {
		t.Errorf("prompt = %q", r.prompts[0])
	}
}

func TestAskRetriesInvalid(t *testing.T) {
	var out bytes.Buffer
	r := &scriptReader{lines: []string{"nonsense", "bb26:bj205"}}
	p := NewWithReader(r, &out)

	got, err := p.Ask("Process range", "", CheckRange(2, true))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "bb26:bj205" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(out.String(), "malformed range") {
		t.Errorf("expected the parse error to be shown, got %q", out.String())
	}
}

func TestAskGivesUp(t *testing.T) {
	r := &scriptReader{lines: []string{"x", "y", "z", "CV1:CV2"}}
	p := NewWithReader(r, nil)

	if _, err := p.Ask("Process range", "", CheckRange(2, true)); err == nil {
		t.Fatal("expected error after repeated invalid answers")
	}
}

func TestAskAborted(t *testing.T) {
	p := NewWithReader(&scriptReader{err: readline.ErrInterrupt}, nil)
	if _, err := p.Ask("Folder", "", nil); !errors.Is(err, ErrAborted) {
		t.Errorf("expected ErrAborted, got %v", err)
	}

	p = NewWithReader(&scriptReader{}, nil)
	if _, err := p.Ask("Folder", "", nil); !errors.Is(err, ErrAborted) {
		t.Errorf("expected ErrAborted on EOF, got %v", err)
	}
}

func TestFillMerge(t *testing.T) {
	dir := t.TempDir()
	r := &scriptReader{lines: []string{dir, "", ""}}
	p := NewWithReader(r, nil)

	in := MergeInputs{}
	err := p.FillMerge(&in, MergeInputs{Process: "CV26:DM205", Criteria: "CV26:CV205"}, 2)
	if err != nil {
		t.Fatalf("FillMerge: %v", err)
	}
	if in.Folder != dir || in.Process != "CV26:DM205" || in.Criteria != "CV26:CV205" {
		t.Errorf("unexpected inputs %+v", in)
	}
}

func TestFillMergeKeepsGivenValues(t *testing.T) {
	r := &scriptReader{}
	p := NewWithReader(r, nil)

	in := MergeInputs{Folder: "x", Process: "AA1:AB2", Criteria: "AA1:AA2"}
	if err := p.FillMerge(&in, MergeInputs{}, 2); err != nil {
		t.Fatalf("FillMerge: %v", err)
	}
	if len(r.prompts) != 0 {
		t.Errorf("expected no prompts, got %v", r.prompts)
	}
}

func TestCheckFolder(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CheckFolder(dir); err != nil {
		t.Errorf("dir: %v", err)
	}
	if err := CheckFolder(file); err == nil {
		t.Error("expected error for a file")
	}
	if err := CheckFolder(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for a missing path")
	}
	if err := CheckFolder(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestCheckRangeOptional(t *testing.T) {
	if err := CheckRange(2, false)(""); err != nil {
		t.Errorf("blank optional range: %v", err)
	}
	if err := CheckRange(2, true)(""); err == nil {
		t.Error("expected error for blank required range")
	}
	if err := CheckRange(2, true)("A15:B21"); err == nil {
		t.Error("expected error for single-letter columns in legacy width")
	}
	if err := CheckRange(0, true)("A15:B21"); err != nil {
		t.Errorf("auto width: %v", err)
	}
}

func TestListDirs(t *testing.T) {
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, "term1"), 0o755)
	os.Mkdir(filepath.Join(dir, ".hidden"), 0o755)
	os.WriteFile(filepath.Join(dir, "a.xlsx"), nil, 0o644)

	got := listDirs(dir + string(filepath.Separator))
	if len(got) != 1 || !strings.HasSuffix(got[0], "term1"+string(filepath.Separator)) {
		t.Errorf("got %v", got)
	}
}
