// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Preset is a named merge task stored in the config file.
type Preset struct {
	Label         string `mapstructure:"label" json:"label"`
	Process       string `mapstructure:"process" json:"process"`
	Criteria      string `mapstructure:"criteria" json:"criteria,omitempty"`
	Extent        string `mapstructure:"extent" json:"extent,omitempty"`
	RequireMarker bool   `mapstructure:"require_marker" json:"requireMarker,omitempty"`
	Discipline    bool   `mapstructure:"discipline" json:"discipline,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	Scan struct {
		Extensions []string `mapstructure:"extensions"`
		LockPrefix string   `mapstructure:"lock_prefix"`
		Blacklist  []string `mapstructure:"blacklist"`
		Recursive  bool     `mapstructure:"recursive"`
	} `mapstructure:"scan"`
	Range struct {
		LabelWidth int `mapstructure:"label_width"`
	} `mapstructure:"range"`
	Merge struct {
		ProvenanceColumn int    `mapstructure:"provenance_column"`
		ConcatColumn     int    `mapstructure:"concat_column"`
		DisciplineColumn int    `mapstructure:"discipline_column"`
		HeaderMode       string `mapstructure:"header_mode"`
		HeaderToken      string `mapstructure:"header_token"`
		ZeroFill         string `mapstructure:"zero_fill"`
	} `mapstructure:"merge"`
	Marker struct {
		Cell     string `mapstructure:"cell"`
		Sentinel string `mapstructure:"sentinel"`
	} `mapstructure:"marker"`
	Consolidate struct {
		Fill string `mapstructure:"fill"`
	} `mapstructure:"consolidate"`
	Search struct {
		ContextCells []string `mapstructure:"context_cells"`
	} `mapstructure:"search"`
	Log struct {
		File  string `mapstructure:"file"`
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	History struct {
		Enabled bool   `mapstructure:"enabled"`
		File    string `mapstructure:"file"`
	} `mapstructure:"history"`
	Output struct {
		Color bool `mapstructure:"color"`
	} `mapstructure:"output"`
	Tasks map[string]Preset `mapstructure:"tasks"`
}

var configFile string

// UseFile makes Load read path instead of ~/.sheetmerge/config.yaml.
func UseFile(path string) {
	configFile = path
}

// Load reads the configuration from ~/.sheetmerge/config.yaml and
// SHEETMERGE_* environment variables.
func Load() (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("SHEETMERGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing default config file is fine; an explicit one must exist.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config %s: %w", viper.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.extensions", []string{".xlsx"})
	v.SetDefault("scan.lock_prefix", "~$")
	v.SetDefault("scan.blacklist", []string{"index", "list", "setting", "TEMPLATE", "STUDENTINFO"})
	v.SetDefault("scan.recursive", false)
	v.SetDefault("range.label_width", 2)
	v.SetDefault("merge.provenance_column", 19)
	v.SetDefault("merge.concat_column", 16)
	v.SetDefault("merge.discipline_column", 9)
	v.SetDefault("merge.header_mode", "enumerated")
	v.SetDefault("merge.header_token", "t1")
	v.SetDefault("merge.zero_fill", "FFC1CC")
	v.SetDefault("marker.cell", "")
	v.SetDefault("marker.sentinel", "✔")
	v.SetDefault("consolidate.fill", "FFFF00")
	v.SetDefault("search.context_cells", []string{"H3", "H4", "H5", "H17"})
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.file", filepath.Join(configDir(), "history.jsonl"))
	v.SetDefault("output.color", true)
	v.SetDefault("tasks", DefaultPresets())
}

// Default returns the built-in configuration, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &cfg
}

// DefaultPresets returns the OLE and Displine tasks the class workbooks use.
func DefaultPresets() map[string]interface{} {
	return map[string]interface{}{
		"ole": map[string]interface{}{
			"label":    "OLE",
			"process":  "CV26:DM205",
			"criteria": "CV26:CV205",
		},
		"displine": map[string]interface{}{
			"label":      "Displine",
			"process":    "BB26:BJ205",
			"criteria":   "BB26:BB205",
			"discipline": true,
		},
	}
}

// Preset looks up a task preset by label, ignoring case.
func (c *Config) Preset(label string) (Preset, bool) {
	p, ok := c.Tasks[strings.ToLower(label)]
	if !ok {
		return Preset{}, false
	}
	if p.Label == "" {
		p.Label = label
	}
	return p, true
}

// PresetNames lists the configured preset labels.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Tasks))
	for key, p := range c.Tasks {
		if p.Label != "" {
			names = append(names, p.Label)
		} else {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetmerge"
	}
	return filepath.Join(home, ".sheetmerge")
}
