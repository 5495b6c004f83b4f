package openscad

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.scad"), "use <lib/shapes.scad>\n// include <ignored.scad>\ninclude <./common.scad>\nshape();\n")
	writeFile(t, filepath.Join(dir, "lib", "shapes.scad"), "include <../common.scad>\nuse <MCAD/boxes.scad>\nmodule shape() { cube(1); }\n")
	writeFile(t, filepath.Join(dir, "common.scad"), "size = 1;\n")

	deps, err := NewRenderer(dir).ResolveDependencies("main.scad")
	if err != nil {
		t.Fatalf("ResolveDependencies failed: %v", err)
	}

	expected := []string{
		filepath.Join(dir, "main.scad"),
		filepath.Join(dir, "lib", "shapes.scad"),
		filepath.Join(dir, "common.scad"),
	}
	if len(deps) != len(expected) {
		t.Fatalf("Dependency count failed: expected %d, got %d (%v)", len(expected), len(deps), deps)
	}
	for i := range expected {
		if deps[i] != expected[i] {
			t.Errorf("Dependency %d failed: expected %s, got %s", i, expected[i], deps[i])
		}
	}
}

func TestResolveDependenciesMissingRoot(t *testing.T) {
	if _, err := NewRenderer(t.TempDir()).ResolveDependencies("missing.scad"); err == nil {
		t.Error("Expected error for missing file")
	}
}
