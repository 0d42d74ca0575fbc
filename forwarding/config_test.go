package forwarding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forwarding.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[[source]]
type = "file"
path = "/tmp/trace.out"
events = [1, 2]

[[source]]
type = "tcp"
address = "127.0.0.1:7070"
events = [2]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Type != "file" || cfg.Sources[0].Path != "/tmp/trace.out" {
		t.Errorf("unexpected first source: %+v", cfg.Sources[0])
	}
	if len(cfg.Sources[0].Events) != 2 || cfg.Sources[0].Events[1] != 2 {
		t.Errorf("unexpected event bindings: %v", cfg.Sources[0].Events)
	}
	if cfg.Sources[1].Address != "127.0.0.1:7070" {
		t.Errorf("unexpected second source: %+v", cfg.Sources[1])
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadConfigBadTOML(t *testing.T) {
	path := writeConfig(t, "[[source]\ntype =")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[[source]]
type = "file"
path = "`+filepath.Join(dir, "out.log")+`"
events = [11]

[[source]]
type = "store"
path = "`+filepath.Join(dir, "events.db")+`"
events = [11]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	m := NewManager()
	if err := m.Apply(cfg); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	defer m.CloseAll()

	if err := m.Deliver(11, true, "configured"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.log"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "configured") {
		t.Errorf("file sink missing message, has %q", data)
	}
}

func TestApplyUnknownType(t *testing.T) {
	cfg := &Config{Sources: []SourceConfig{{Type: "carrier-pigeon"}}}
	m := NewManager()
	if err := m.Apply(cfg); err == nil || !strings.Contains(err.Error(), "unknown source type") {
		t.Errorf("expected an unknown source type error, got %v", err)
	}
}
