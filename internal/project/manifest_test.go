package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[package]
name = "demo"

[index]
source = "lib"
jobs = 4
`)

	m, ok, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("manifest not found")
	}
	if m.Config.Package.Name != "demo" {
		t.Fatalf("name = %q", m.Config.Package.Name)
	}
	if m.Config.Index.Jobs != 4 {
		t.Fatalf("jobs = %d", m.Config.Index.Jobs)
	}
	if !m.Config.Index.Cache {
		t.Fatalf("cache should default to true")
	}
	if m.SourceDir() != filepath.Join(dir, "lib") {
		t.Fatalf("source dir = %q", m.SourceDir())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[package]
name = "demo"
`)

	m, ok, err := Load(dir)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if m.Config.Index.Source != "src" {
		t.Fatalf("source = %q, want src", m.Config.Index.Source)
	}
	if m.Config.Index.Jobs != 0 {
		t.Fatalf("jobs = %d, want 0", m.Config.Index.Jobs)
	}
}

func TestLoadManifestMissingName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[package]
`)

	if _, _, err := Load(dir); err == nil {
		t.Fatalf("expected error for missing package name")
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !ok {
		t.Fatalf("manifest not found from nested dir")
	}
	if path != filepath.Join(dir, ManifestName) {
		t.Fatalf("path = %q", path)
	}
}

func TestFindManifestAbsent(t *testing.T) {
	_, ok, err := FindManifest(t.TempDir())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if ok {
		t.Fatalf("unexpected manifest")
	}
}
