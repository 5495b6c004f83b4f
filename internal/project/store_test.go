package project

import (
	"context"
	"errors"
	"testing"

	"github.com/philipparndt/gosprack/internal/storage/core"
	"github.com/philipparndt/gosprack/internal/storage/memory"
)

func TestKey(t *testing.T) {
	tests := map[string]string{
		"tower":        "tower.sprack",
		"tower.sprack": "tower.sprack",
		" crates/box ": "crates/box.sprack",
	}
	for in, want := range tests {
		got, err := Key(in)
		if err != nil || got != want {
			t.Errorf("Key(%q) failed: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	for _, bad := range []string{"", "  ", "../up"} {
		if _, err := Key(bad); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("Key(%q) failed: expected ErrInvalidKey, got %v", bad, err)
		}
	}
}

func TestSaveLoadList(t *testing.T) {
	reg, models := session(t, true)
	reg.SetProjectName("tower")
	reg.CreateEvenlySpacedLayers(2, 10)
	f, err := Export(reg, models)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	ctx := context.Background()
	store := memory.New()
	info, err := Save(ctx, store, "tower", f)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if info.Key != "tower.sprack" || info.ContentType != "application/json" {
		t.Errorf("Save failed: got %+v", info)
	}

	loaded, err := Load(ctx, store, "tower")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ProjectName != "tower" || len(loaded.Layers) != 2 {
		t.Errorf("Load failed: got %s with %d layers", loaded.ProjectName, len(loaded.Layers))
	}

	names, err := List(ctx, store)
	if err != nil || len(names) != 1 || names[0] != "tower" {
		t.Errorf("List failed: got %v (%v)", names, err)
	}

	if _, err := Load(ctx, store, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Load missing failed: expected ErrNotFound, got %v", err)
	}
}
