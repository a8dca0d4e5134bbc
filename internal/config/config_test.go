package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	configFile = ""
	t.Setenv("HOME", dir)
	t.Cleanup(func() {
		viper.Reset()
		configFile = ""
	})
	return dir
}

func TestLoadDefaults(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Range.LabelWidth != 2 {
		t.Errorf("label width = %d", cfg.Range.LabelWidth)
	}
	if cfg.Merge.ProvenanceColumn != 19 || cfg.Merge.ConcatColumn != 16 || cfg.Merge.DisciplineColumn != 9 {
		t.Errorf("unexpected merge columns %+v", cfg.Merge)
	}
	if cfg.Marker.Sentinel != "✔" {
		t.Errorf("sentinel = %q", cfg.Marker.Sentinel)
	}
	if len(cfg.Search.ContextCells) != 4 {
		t.Errorf("context cells = %v", cfg.Search.ContextCells)
	}

	p, ok := cfg.Preset("ole")
	if !ok {
		t.Fatal("OLE preset missing")
	}
	if p.Label != "OLE" || p.Process != "CV26:DM205" || p.Criteria != "CV26:CV205" {
		t.Errorf("unexpected OLE preset %+v", p)
	}
	p, ok = cfg.Preset("Displine")
	if !ok || !p.Discipline || p.Process != "BB26:BJ205" {
		t.Errorf("unexpected Displine preset %+v", p)
	}
	if _, ok := cfg.Preset("nope"); ok {
		t.Error("unexpected preset")
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := setupTestConfig(t)
	path := filepath.Join(dir, "custom.yaml")
	content := "merge:\n  header_mode: constant\ntasks:\n  awards:\n    label: Awards\n    process: AA2:AD50\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	UseFile(path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Merge.HeaderMode != "constant" {
		t.Errorf("header mode = %q", cfg.Merge.HeaderMode)
	}
	if p, ok := cfg.Preset("awards"); !ok || p.Process != "AA2:AD50" {
		t.Errorf("awards preset = %+v", p)
	}
	if ConfigPath() != path {
		t.Errorf("ConfigPath = %q", ConfigPath())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := setupTestConfig(t)
	UseFile(filepath.Join(dir, "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverride(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("SHEETMERGE_MERGE_HEADER_TOKEN", "col")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Merge.HeaderToken != "col" {
		t.Errorf("header token = %q", cfg.Merge.HeaderToken)
	}
}

func TestValidate(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, issue := range Validate(cfg) {
		if issue.Severity == "error" {
			t.Errorf("unexpected error on defaults: %+v", issue)
		}
	}

	cfg.Tasks["bad"] = Preset{Process: "A15:B21", Extent: "sideways"}
	cfg.Merge.ZeroFill = "pink"
	cfg.Merge.HeaderMode = "fancy"

	keys := map[string]bool{}
	for _, issue := range Validate(cfg) {
		if issue.Severity == "error" {
			keys[issue.Key] = true
		}
	}
	for _, want := range []string{"tasks.bad.process", "tasks.bad.extent", "merge.zero_fill", "merge.header_mode"} {
		if !keys[want] {
			t.Errorf("expected error for %s, got %v", want, keys)
		}
	}
}

func TestSetAndGet(t *testing.T) {
	dir := setupTestConfig(t)

	if err := Set("merge.header_token", "x1"); err != nil {
		t.Fatal(err)
	}
	if got := Get("merge.header_token"); got != "x1" {
		t.Errorf("Get = %q, want %q", got, "x1")
	}
	if _, err := os.Stat(filepath.Join(dir, ".sheetmerge", "config.yaml")); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}

func TestInitAndReset(t *testing.T) {
	setupTestConfig(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cv26:dm205") && !strings.Contains(string(data), "CV26:DM205") {
		t.Errorf("defaults missing from written config:\n%s", data)
	}

	viper.Set("merge.header_mode", "constant")
	if err := ResetConfig(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(ConfigPath()); !os.IsNotExist(err) {
		t.Error("config file should be removed")
	}
	if viper.GetString("merge.header_mode") != "enumerated" {
		t.Errorf("header mode should reset, got %q", viper.GetString("merge.header_mode"))
	}
}

func TestShowConfig(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	out := ShowConfig(cfg)
	for _, want := range []string{"CV26:DM205", "Displine", "+discipline", "FFC1CC"} {
		if !strings.Contains(out, want) {
			t.Errorf("ShowConfig missing %q", want)
		}
	}
}

func TestConfigPath(t *testing.T) {
	setupTestConfig(t)
	path := ConfigPath()
	if !strings.Contains(path, ".sheetmerge") || !strings.HasSuffix(path, "config.yaml") {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestPresetNames(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	names := cfg.PresetNames()
	if len(names) != 2 || names[0] != "Displine" || names[1] != "OLE" {
		t.Errorf("names = %v", names)
	}
}

func TestDefaultIgnoresEnvironment(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("SHEETMERGE_MERGE_HEADER_MODE", "constant")
	cfg := Default()
	if cfg.Merge.HeaderMode != "enumerated" {
		t.Errorf("header mode = %q", cfg.Merge.HeaderMode)
	}
	if _, ok := cfg.Preset("OLE"); !ok {
		t.Error("OLE preset missing from defaults")
	}
}
