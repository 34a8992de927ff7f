package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAgentBindingsMissingFileReturnsEmpty(t *testing.T) {
	bindings, err := LoadAgentBindings(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadAgentBindings() error = %v", err)
	}
	if len(bindings) != 0 {
		t.Fatalf("LoadAgentBindings() = %+v, want empty", bindings)
	}
}

func TestLoadAgentBindingsEmptyPathReturnsEmpty(t *testing.T) {
	bindings, err := LoadAgentBindings("")
	if err != nil {
		t.Fatalf("LoadAgentBindings() error = %v", err)
	}
	if len(bindings) != 0 {
		t.Fatalf("LoadAgentBindings() = %+v, want empty", bindings)
	}
}

func TestLoadAgentBindingsParsesModelOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp_config.json")
	contents := "initial-access:\n  model: claude-opus-4\nplanner:\n  model: claude-haiku-4\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	bindings, err := LoadAgentBindings(path)
	if err != nil {
		t.Fatalf("LoadAgentBindings() error = %v", err)
	}
	if got := bindings["initial-access"].Model; got != "claude-opus-4" {
		t.Errorf("bindings[initial-access].Model = %q, want claude-opus-4", got)
	}
	if got := bindings["planner"].Model; got != "claude-haiku-4" {
		t.Errorf("bindings[planner].Model = %q, want claude-haiku-4", got)
	}
}
