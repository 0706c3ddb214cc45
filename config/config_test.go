package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/creslin7/ss7stack/mtp3"
)

func TestLoadErrorsOnExplicitMissingFile(t *testing.T) {
	cfg, links, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatalf("Load with an explicit missing path should error, got cfg=%+v links=%v", cfg, links)
	}
}

func TestLoadSearchesDefaultsWhenPathEmpty(t *testing.T) {
	cfg, links, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Variant != mtp3.ITU {
		t.Errorf("Variant = %v, want ITU default", cfg.Variant)
	}
	if cfg.NI != mtp3.NINational {
		t.Errorf("NI = %v, want NINational default", cfg.NI)
	}
	if cfg.OwnPC != 0 {
		t.Errorf("OwnPC = %d, want 0 default", cfg.OwnPC)
	}
	if len(links) != 0 {
		t.Errorf("links = %v, want none configured", links)
	}
}

func TestLoadReadsDashedPointCodesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ss7stack.yaml")
	contents := `
variant: ansi
own_point_code: "1-2-3"
network_indicator: national
links:
  - name: link0
    device: /dev/ttyUSB0
    adjacent_point_code: "4-5-6"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, links, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Variant != mtp3.ANSI {
		t.Errorf("Variant = %v, want ANSI", cfg.Variant)
	}
	wantOwnPC := uint32(1<<16 | 2<<8 | 3)
	if cfg.OwnPC != wantOwnPC {
		t.Errorf("OwnPC = %d, want %d", cfg.OwnPC, wantOwnPC)
	}
	if len(links) != 1 {
		t.Fatalf("links = %d entries, want 1", len(links))
	}
	wantAdjPC := uint32(4<<16 | 5<<8 | 6)
	if links[0].AdjPC != wantAdjPC {
		t.Errorf("links[0].AdjPC = %d, want %d", links[0].AdjPC, wantAdjPC)
	}
	if links[0].Name != "link0" {
		t.Errorf("links[0].Name = %q, want link0", links[0].Name)
	}
}

func TestLoadRejectsInvalidPointCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ss7stack.yaml")
	contents := "own_point_code: \"not-a-point-code\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := Load(path); err == nil {
		t.Errorf("Load: expected an error for an unparseable point code")
	}
}

func TestWriteExampleConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	if err := WriteExampleConfig(path); err != nil {
		t.Fatalf("WriteExampleConfig: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if f.Variant != "itu" {
		t.Errorf("Variant = %q, want itu", f.Variant)
	}
	if len(f.Links) != 1 {
		t.Fatalf("Links = %d entries, want 1", len(f.Links))
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load(written example): %v", err)
	}
}
