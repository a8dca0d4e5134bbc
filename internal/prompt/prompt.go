// Package prompt asks for missing merge parameters on the terminal.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/klytics/sheetmerge/internal/rangespec"
)

// ErrAborted is returned when the user interrupts a prompt or closes input.
var ErrAborted = errors.New("input aborted")

// MaxAttempts is how many invalid answers Ask accepts before giving up.
const MaxAttempts = 3

// LineReader is the part of *readline.Instance the prompter uses.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// Prompter reads answers line by line.
type Prompter struct {
	r      LineReader
	out    io.Writer
	closer io.Closer
}

// New opens a readline prompter with folder-path completion. historyFile may
// be empty.
func New(historyFile string) (*Prompter, error) {
	if historyFile != "" {
		os.MkdirAll(filepath.Dir(historyFile), 0o755)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(readline.PcItemDynamic(listDirs)),
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, fmt.Errorf("could not start interactive input: %w", err)
	}
	return &Prompter{r: rl, out: rl.Stderr(), closer: rl}, nil
}

// NewWithReader builds a prompter over any line source.
func NewWithReader(r LineReader, out io.Writer) *Prompter {
	if out == nil {
		out = io.Discard
	}
	return &Prompter{r: r, out: out}
}

// Close releases the terminal.
func (p *Prompter) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Ask prompts for a value. An empty answer takes def. check, when non-nil,
// validates the answer; invalid answers are reported and asked again.
func (p *Prompter) Ask(label, def string, check func(string) error) (string, error) {
	prompt := label + ": "
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, def)
	}

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		p.r.SetPrompt(prompt)
		line, err := p.r.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return "", ErrAborted
			}
			return "", err
		}

		answer := strings.TrimSpace(line)
		if answer == "" {
			answer = def
		}
		if check == nil {
			return answer, nil
		}
		if lastErr = check(answer); lastErr == nil {
			return answer, nil
		}
		fmt.Fprintf(p.out, "  %s\n", lastErr)
	}
	return "", fmt.Errorf("%s: too many invalid answers: %w", label, lastErr)
}

// MergeInputs are the values an interactive merge needs.
type MergeInputs struct {
	Folder   string
	Process  string
	Criteria string
}

// FillMerge asks for every empty field of in, offering defaults for the
// ranges. Criteria may be left blank.
func (p *Prompter) FillMerge(in *MergeInputs, defaults MergeInputs, labelWidth int) error {
	var err error
	if in.Folder == "" {
		if in.Folder, err = p.Ask("Folder", defaults.Folder, CheckFolder); err != nil {
			return err
		}
	}
	if in.Process == "" {
		if in.Process, err = p.Ask("Process range", defaults.Process, CheckRange(labelWidth, true)); err != nil {
			return err
		}
	}
	if in.Criteria == "" {
		if in.Criteria, err = p.Ask("Criteria range", defaults.Criteria, CheckRange(labelWidth, false)); err != nil {
			return err
		}
	}
	return nil
}

// CheckFolder requires an existing directory.
func CheckFolder(path string) error {
	if path == "" {
		return errors.New("a folder is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s — check that the path is correct", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a folder", path)
	}
	return nil
}

// CheckRange validates range text the way the merge engine will read it.
func CheckRange(labelWidth int, required bool) func(string) error {
	return func(text string) error {
		if text == "" {
			if required {
				return errors.New("a range is required, e.g. CV26:DM205")
			}
			return nil
		}
		spec, err := rangespec.Parse(text, rangespec.WithLabelWidth(labelWidth))
		if err != nil {
			return err
		}
		_, _, err = spec.Columns()
		return err
	}
}

func listDirs(line string) []string {
	dir := line
	if dir == "" {
		dir = "."
	} else if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir = filepath.Dir(dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, filepath.Join(dir, e.Name())+string(filepath.Separator))
		}
	}
	return out
}
