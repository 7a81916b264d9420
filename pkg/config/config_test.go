package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/astrokit/crpipe/pkg/tool"
)

func TestLoadConfig_ProjectConfig(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tempDir)
	defer os.Chdir(oldWd)

	projectConfig := `
tools_dir: /opt/crpipe/tools
timeout_ms: 120000
`
	os.WriteFile("crpipe.yaml", []byte(projectConfig), 0644)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ToolsDir != "/opt/crpipe/tools" {
		t.Errorf("Expected tools_dir /opt/crpipe/tools, got %s", cfg.ToolsDir)
	}

	if cfg.TimeoutMs != 120000 {
		t.Errorf("Expected timeout_ms 120000, got %d", cfg.TimeoutMs)
	}
}

func TestLoadConfig_LocalOverride(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tempDir)
	defer os.Chdir(oldWd)

	projectConfig := `
tools_dir: /opt/crpipe/tools
lock:
  backend: memory
`
	os.WriteFile("crpipe.yaml", []byte(projectConfig), 0644)

	os.MkdirAll(ConfigRoot, 0755)
	localConfig := `
lock:
  backend: valkey
  addr: localhost:6379
`
	os.WriteFile(filepath.Join(ConfigRoot, "config.yaml"), []byte(localConfig), 0644)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Local override should win
	if cfg.Lock.Backend != "valkey" {
		t.Errorf("Expected lock backend valkey (from local override), got %s", cfg.Lock.Backend)
	}

	// Untouched project keys survive the merge
	if cfg.ToolsDir != "/opt/crpipe/tools" {
		t.Errorf("Expected tools_dir /opt/crpipe/tools, got %s", cfg.ToolsDir)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tempDir)
	defer os.Chdir(oldWd)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Lock.Backend != "memory" {
		t.Errorf("Expected default lock backend memory, got %s", cfg.Lock.Backend)
	}

	if cfg.PresetsDir == "" {
		t.Error("Expected a default presets_dir, got empty string")
	}
}

func TestLoadConfig_ToolOverrides(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tempDir)
	defer os.Chdir(oldWd)

	projectConfig := `
tools:
  lacosmic:
    script: /opt/custom/lacosmic_cli.py
    output_suffix: _clean
    timeout_ms: 300000
`
	os.WriteFile("crpipe.yaml", []byte(projectConfig), 0644)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	reg := tool.NewRegistry()
	if err := cfg.ApplyToolOverrides(reg); err != nil {
		t.Fatalf("ApplyToolOverrides failed: %v", err)
	}

	lac, err := reg.Lookup("lacosmic")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if lac.Script != "/opt/custom/lacosmic_cli.py" {
		t.Errorf("Expected overridden script, got %s", lac.Script)
	}
	if lac.OutputSuffix != "_clean" {
		t.Errorf("Expected overridden output suffix _clean, got %s", lac.OutputSuffix)
	}
	if lac.MaskSuffix != "_crm" {
		t.Errorf("Expected untouched mask suffix _crm, got %s", lac.MaskSuffix)
	}
	if lac.Timeout != 300000 {
		t.Errorf("Expected overridden timeout 300000, got %d", lac.Timeout)
	}
}

func TestApplyToolOverrides_UnknownTool(t *testing.T) {
	cfg := &Config{Tools: map[string]ToolOverride{"nonesuch": {Script: "x.py"}}}
	if err := cfg.ApplyToolOverrides(tool.NewRegistry()); err == nil {
		t.Error("Expected an error for an unknown tool override")
	}
}
