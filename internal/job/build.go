package job

import (
	"fmt"

	"github.com/klytics/sheetmerge/internal/config"
	"github.com/klytics/sheetmerge/internal/merge"
	"github.com/klytics/sheetmerge/internal/rangespec"
	"github.com/klytics/sheetmerge/internal/scan"
	"github.com/klytics/sheetmerge/internal/workbook"
)

// Fills returns the highlight colors configured in cfg.
func Fills(cfg *config.Config) workbook.Fills {
	fills := workbook.DefaultFills()
	if cfg.Merge.ZeroFill != "" {
		fills[workbook.MarkZeroSuppressed] = cfg.Merge.ZeroFill
	}
	if cfg.Consolidate.Fill != "" {
		fills[workbook.MarkConsolidated] = cfg.Consolidate.Fill
	}
	return fills
}

// ScanOptions returns the file filter configured in cfg.
func ScanOptions(cfg *config.Config, recursive bool) scan.Options {
	return scan.Options{
		Recursive:  recursive || cfg.Scan.Recursive,
		Extensions: cfg.Scan.Extensions,
		LockPrefix: cfg.Scan.LockPrefix,
	}
}

// Build resolves a task spec against its preset and the configuration.
func Build(spec TaskSpec, folder string, recursive bool, cfg *config.Config) (merge.Task, error) {
	presetName := spec.Preset
	if presetName == "" {
		presetName = spec.Label
	}
	preset, hasPreset := cfg.Preset(presetName)
	if spec.Preset != "" && !hasPreset {
		return merge.Task{}, fmt.Errorf("unknown task preset %q — configured presets: %v", spec.Preset, cfg.PresetNames())
	}

	process := firstNonEmpty(spec.Process, preset.Process)
	if process == "" {
		return merge.Task{}, fmt.Errorf("task %q has no process range — pass one such as CV26:DM205 or define a preset", spec.Label)
	}
	width := rangespec.WithLabelWidth(cfg.Range.LabelWidth)
	proc, err := rangespec.Parse(process, width)
	if err != nil {
		return merge.Task{}, err
	}
	var crit rangespec.Spec
	if c := firstNonEmpty(spec.Criteria, preset.Criteria); c != "" {
		if crit, err = rangespec.Parse(c, width); err != nil {
			return merge.Task{}, err
		}
	}

	requireMarker := preset.RequireMarker
	if spec.RequireMarker != nil {
		requireMarker = *spec.RequireMarker
	}
	discipline := preset.Discipline
	if spec.Discipline != nil {
		discipline = *spec.Discipline
	}

	return merge.Task{
		Label:    spec.Label,
		Folder:   folder,
		Process:  proc,
		Criteria: crit,
		Extent:   merge.ExtentPolicy(firstNonEmpty(spec.Extent, preset.Extent)),
		Admission: merge.Admission{
			Blacklist:     cfg.Scan.Blacklist,
			RequireMarker: requireMarker,
			MarkerCell:    firstNonEmpty(spec.MarkerCell, cfg.Marker.Cell),
			Sentinel:      cfg.Marker.Sentinel,
			Expr:          spec.When,
		},
		Layout: merge.Layout{
			ProvenanceColumn: cfg.Merge.ProvenanceColumn,
			ConcatColumn:     cfg.Merge.ConcatColumn,
			DisciplineColumn: cfg.Merge.DisciplineColumn,
			DisciplineConcat: discipline,
		},
		Header: merge.Header{
			Mode:  merge.HeaderMode(firstNonEmpty(spec.Header, cfg.Merge.HeaderMode)),
			Token: firstNonEmpty(spec.HeaderToken, cfg.Merge.HeaderToken),
		},
		Scan:  ScanOptions(cfg, recursive),
		Fills: Fills(cfg),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
