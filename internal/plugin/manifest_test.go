package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "plugin.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{
		"name": "git-status",
		"version": "1.2.0",
		"main": "git.lua",
		"requires": ["core"],
		"after": ["theme"]
	}`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	if m.Name != "git-status" {
		t.Errorf("Name = %q, want %q", m.Name, "git-status")
	}
	if m.MainPath() != filepath.Join(dir, "git.lua") {
		t.Errorf("MainPath() = %q, want %q", m.MainPath(), filepath.Join(dir, "git.lua"))
	}
	if !reflect.DeepEqual(m.Requires, []string{"core"}) {
		t.Errorf("Requires = %v, want [core]", m.Requires)
	}
	if !reflect.DeepEqual(m.After, []string{"theme"}) {
		t.Errorf("After = %v, want [theme]", m.After)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"name": "minimal"}`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Main != "init.lua" {
		t.Errorf("Main = %q, want init.lua", m.Main)
	}
	if m.Version != "0.0.0" {
		t.Errorf("Version = %q, want 0.0.0", m.Version)
	}
}

func TestLoadManifestInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{not json`)

	if _, err := LoadManifest(path); err == nil {
		t.Error("LoadManifest() error = nil, want parse error")
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  error
	}{
		{"valid", Manifest{Name: "ok", Version: "1.0.0", Main: "init.lua"}, nil},
		{"single letter name", Manifest{Name: "x", Version: "1.0.0"}, nil},
		{"missing name", Manifest{Version: "1.0.0"}, ErrMissingName},
		{"uppercase name", Manifest{Name: "Bad", Version: "1.0.0"}, ErrInvalidName},
		{"trailing hyphen", Manifest{Name: "bad-", Version: "1.0.0"}, ErrInvalidName},
		{"bad version", Manifest{Name: "ok", Version: "1.0"}, ErrInvalidVersion},
		{"prerelease version", Manifest{Name: "ok", Version: "1.0.0-beta.1"}, nil},
		{"bad main", Manifest{Name: "ok", Version: "1.0.0", Main: "init.py"}, ErrInvalidMain},
		{"self requires", Manifest{Name: "ok", Version: "1.0.0", Requires: []string{"ok"}}, ErrSelfReference},
		{"self before", Manifest{Name: "ok", Version: "1.0.0", Before: []string{"ok"}}, ErrSelfReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewManifestMinimal(t *testing.T) {
	m := NewManifestMinimal("quick", "/plugins")
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if m.MainPath() != filepath.Join("/plugins", "init.lua") {
		t.Errorf("MainPath() = %q", m.MainPath())
	}
}

func TestManifestClone(t *testing.T) {
	original := &Manifest{
		Name:     "orig",
		Version:  "1.0.0",
		Requires: []string{"dep"},
	}

	clone := original.Clone()
	clone.Requires[0] = "modified"

	if original.Requires[0] == "modified" {
		t.Error("Clone is not a deep copy - Requires was modified")
	}
}

func TestManifestString(t *testing.T) {
	m := &Manifest{Name: "git-status", Version: "1.2.0"}
	if got := m.String(); got != "git-status v1.2.0" {
		t.Errorf("String() = %q, want %q", got, "git-status v1.2.0")
	}

	m.DisplayName = "Git Status"
	if got := m.String(); got != "Git Status v1.2.0" {
		t.Errorf("String() = %q, want %q", got, "Git Status v1.2.0")
	}
}
