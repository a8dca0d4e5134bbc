// Package job runs YAML job files: a set of merge tasks over one folder,
// optionally followed by consolidation of one task's output.
package job

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/klytics/sheetmerge/internal/consolidate"
)

// File is a complete job definition.
type File struct {
	Name        string           `yaml:"name" json:"name"`
	Folder      string           `yaml:"folder" json:"folder"`
	Recursive   bool             `yaml:"recursive,omitempty" json:"recursive,omitempty"`
	Tasks       []TaskSpec       `yaml:"tasks" json:"tasks"`
	Consolidate *ConsolidateSpec `yaml:"consolidate,omitempty" json:"consolidate,omitempty"`
}

// TaskSpec describes one merge task. Empty fields fall back to the config
// preset named by Preset (or Label), then to the global defaults.
type TaskSpec struct {
	Label         string `yaml:"label" json:"label"`
	Preset        string `yaml:"preset,omitempty" json:"preset,omitempty"`
	Process       string `yaml:"process,omitempty" json:"process,omitempty"`
	Criteria      string `yaml:"criteria,omitempty" json:"criteria,omitempty"`
	Extent        string `yaml:"extent,omitempty" json:"extent,omitempty"`
	RequireMarker *bool  `yaml:"require_marker,omitempty" json:"requireMarker,omitempty"`
	MarkerCell    string `yaml:"marker_cell,omitempty" json:"markerCell,omitempty"`
	Discipline    *bool  `yaml:"discipline,omitempty" json:"discipline,omitempty"`
	Header        string `yaml:"header,omitempty" json:"header,omitempty"`
	HeaderToken   string `yaml:"header_token,omitempty" json:"headerToken,omitempty"`
	When          string `yaml:"when,omitempty" json:"when,omitempty"`
	OnFailure     string `yaml:"on_failure,omitempty" json:"onFailure,omitempty"`
}

// ConsolidateSpec consolidates the output of the task labelled Task.
type ConsolidateSpec struct {
	Task    string              `yaml:"task" json:"task"`
	Sheet   string              `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Columns consolidate.Columns `yaml:"columns" json:"columns"`
	Output  string              `yaml:"output,omitempty" json:"output,omitempty"`
}

// Load reads and parses a job YAML file. A relative folder is resolved
// against the directory holding the job file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read job file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(f.Folder) {
		f.Folder = filepath.Join(filepath.Dir(path), f.Folder)
	}
	return f, nil
}

// Parse parses a job from YAML bytes.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid job YAML: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func validate(f *File) error {
	if f.Folder == "" {
		return fmt.Errorf("job is missing a 'folder' field")
	}
	if len(f.Tasks) == 0 {
		return fmt.Errorf("job %q has no tasks defined", f.Name)
	}

	seen := make(map[string]bool)
	for i, t := range f.Tasks {
		if t.Label == "" {
			return fmt.Errorf("task %d is missing a 'label' field", i+1)
		}
		if seen[t.Label] {
			return fmt.Errorf("duplicate task label %q — each task writes merge_<label>.xlsx, so labels must be unique", t.Label)
		}
		seen[t.Label] = true

		switch t.OnFailure {
		case "", "abort", "skip":
		default:
			return fmt.Errorf("task %q: on_failure must be abort or skip, got %q", t.Label, t.OnFailure)
		}
	}

	if c := f.Consolidate; c != nil {
		if !seen[c.Task] {
			return fmt.Errorf("consolidate refers to unknown task %q", c.Task)
		}
		cols := c.Columns
		if cols.ClassName < 1 || cols.ClassNumber < 1 || cols.Grouping < 1 || cols.Value < 1 {
			return fmt.Errorf("consolidate columns must all be set and start at 1, got %+v", cols)
		}
	}
	return nil
}
