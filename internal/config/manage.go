package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetmerge/internal/rangespec"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Validate checks config values and returns a list of issues.
func Validate(cfg *Config) []ConfigIssue {
	var issues []ConfigIssue

	width := rangespec.WithLabelWidth(cfg.Range.LabelWidth)
	for _, name := range sortedKeys(cfg.Tasks) {
		p := cfg.Tasks[name]
		key := "tasks." + name
		if p.Process == "" {
			issues = append(issues, ConfigIssue{
				Key:      key + ".process",
				Severity: "error",
				Message:  fmt.Sprintf("task %q has no process range", name),
				Fix:      fmt.Sprintf("sheetmerge config set %s.process CV26:DM205", key),
			})
		}
		for field, text := range map[string]string{"process": p.Process, "criteria": p.Criteria} {
			if text == "" {
				continue
			}
			spec, err := rangespec.Parse(text, width)
			if err == nil {
				_, _, err = spec.Columns()
			}
			if err != nil {
				issues = append(issues, ConfigIssue{
					Key:      key + "." + field,
					Severity: "error",
					Message:  err.Error(),
				})
			}
		}
		switch p.Extent {
		case "", "forward", "backward", "full":
		default:
			issues = append(issues, ConfigIssue{
				Key:      key + ".extent",
				Severity: "error",
				Message:  fmt.Sprintf("unknown extent %q", p.Extent),
				Fix:      "use forward, backward or full",
			})
		}
	}

	switch cfg.Merge.HeaderMode {
	case "enumerated", "constant":
	default:
		issues = append(issues, ConfigIssue{
			Key:      "merge.header_mode",
			Severity: "error",
			Message:  fmt.Sprintf("unknown header mode %q", cfg.Merge.HeaderMode),
			Fix:      "sheetmerge config set merge.header_mode enumerated",
		})
	}

	for key, color := range map[string]string{"merge.zero_fill": cfg.Merge.ZeroFill, "consolidate.fill": cfg.Consolidate.Fill} {
		if !hexColor.MatchString(color) {
			issues = append(issues, ConfigIssue{
				Key:      key,
				Severity: "error",
				Message:  fmt.Sprintf("%q is not an RRGGBB color", color),
			})
		}
	}

	if cfg.Marker.Cell != "" {
		if _, _, err := excelize.CellNameToCoordinates(cfg.Marker.Cell); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "marker.cell",
				Severity: "error",
				Message:  fmt.Sprintf("invalid marker cell %q", cfg.Marker.Cell),
			})
		}
	}
	for _, cell := range cfg.Search.ContextCells {
		if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "search.context_cells",
				Severity: "warning",
				Message:  fmt.Sprintf("invalid context cell %q will be ignored", cell),
			})
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, ConfigIssue{
			Key:      "log.level",
			Severity: "warning",
			Message:  fmt.Sprintf("unknown log level %q, using info", cfg.Log.Level),
		})
	}

	if cfg.Log.File == "" {
		issues = append(issues, ConfigIssue{
			Key:      "log.file",
			Severity: "info",
			Message:  "no log file configured, logging to stderr only",
			Fix:      "sheetmerge config set log.file ~/.sheetmerge/sheetmerge.log",
		})
	}

	return issues
}

func sortedKeys(m map[string]Preset) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Init writes a config file holding the defaults.
func Init() error {
	setDefaults(viper.GetViper())
	return SaveConfig()
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig deletes the config file and restores the defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	viper.Reset()
	setDefaults(viper.GetViper())
	return nil
}

// SaveConfig writes the current config to ConfigPath.
func SaveConfig() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sb.WriteString("Scan\n")
	sb.WriteString(fmt.Sprintf("  extensions:   %s\n", strings.Join(cfg.Scan.Extensions, ", ")))
	sb.WriteString(fmt.Sprintf("  recursive:    %v\n", cfg.Scan.Recursive))
	sb.WriteString(fmt.Sprintf("  blacklist:    %s\n", strings.Join(cfg.Scan.Blacklist, ", ")))
	sb.WriteString("\n")

	sb.WriteString("Merge\n")
	sb.WriteString(fmt.Sprintf("  label width:  %d\n", cfg.Range.LabelWidth))
	sb.WriteString(fmt.Sprintf("  columns:      provenance %d, concat %d, discipline %d\n",
		cfg.Merge.ProvenanceColumn, cfg.Merge.ConcatColumn, cfg.Merge.DisciplineColumn))
	sb.WriteString(fmt.Sprintf("  header:       %s", cfg.Merge.HeaderMode))
	if cfg.Merge.HeaderMode == "constant" {
		sb.WriteString(fmt.Sprintf(" (%s)", cfg.Merge.HeaderToken))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  marker:       %s %s\n", orDefault(cfg.Marker.Cell, "<criteria column, row 4>"), cfg.Marker.Sentinel))
	sb.WriteString(fmt.Sprintf("  fills:        zero %s, consolidated %s\n", cfg.Merge.ZeroFill, cfg.Consolidate.Fill))
	sb.WriteString("\n")

	sb.WriteString("Tasks\n")
	for _, name := range sortedKeys(cfg.Tasks) {
		p := cfg.Tasks[name]
		label := orDefault(p.Label, name)
		sb.WriteString(fmt.Sprintf("  %-10s %s", label, p.Process))
		if p.Criteria != "" {
			sb.WriteString(fmt.Sprintf("  criteria %s", p.Criteria))
		}
		if p.Discipline {
			sb.WriteString("  +discipline")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Logging\n")
	sb.WriteString(fmt.Sprintf("  level:        %s\n", cfg.Log.Level))
	sb.WriteString(fmt.Sprintf("  file:         %s\n", orDefault(cfg.Log.File, "<none>")))
	sb.WriteString(fmt.Sprintf("  history:      %v (%s)\n", cfg.History.Enabled, cfg.History.File))

	return sb.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
