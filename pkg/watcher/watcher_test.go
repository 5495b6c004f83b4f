package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchDebounced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.stl")
	if err := os.WriteFile(path, []byte("solid a"), 0o644); err != nil {
		t.Fatal(err)
	}

	fw, err := NewFileWatcher(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	defer fw.Close()

	changed := make(chan string, 10)
	if err := fw.Watch([]string{path}, func(p string) { changed <- p }); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	// unrelated files in the same directory are ignored
	os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644)
	for i := 0; i < 3; i++ {
		os.WriteFile(path, []byte("solid b"), 0o644)
	}

	select {
	case got := <-changed:
		abs, _ := filepath.Abs(path)
		if got != abs {
			t.Errorf("Callback failed: expected %s, got %s", abs, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a change notification")
	}

	// the burst collapses into a single callback
	select {
	case got := <-changed:
		t.Errorf("Debounce failed: unexpected second callback for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRemoveAll(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.scad")
	b := filepath.Join(dir, "b.scad")
	os.WriteFile(a, nil, 0o644)
	os.WriteFile(b, nil, 0o644)

	fw, err := NewFileWatcher(time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer fw.Close()
	if err := fw.Watch([]string{a, b}, func(string) {}); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if n := len(fw.Files()); n != 2 {
		t.Errorf("Files failed: expected 2, got %d", n)
	}
	if err := fw.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if n := len(fw.Files()); n != 0 {
		t.Errorf("Files failed: expected 0, got %d", n)
	}
}
