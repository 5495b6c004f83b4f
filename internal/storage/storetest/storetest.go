// Package storetest runs a shared behaviour suite against core.Store drivers.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/philipparndt/gosprack/internal/storage/core"
)

// Run exercises put, overwrite, get, head, list and delete
func Run(t *testing.T, s core.Store) {
	t.Helper()
	ctx := context.Background()

	info, err := s.Put(ctx, "projects/tree.sprack", bytes.NewReader([]byte("first")), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if info.Key != "projects/tree.sprack" || info.Size != 5 {
		t.Errorf("Put info failed: got %+v", info)
	}

	// overwrite
	if _, err := s.Put(ctx, "projects/tree.sprack", bytes.NewReader([]byte("second")), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	if _, err := s.Put(ctx, "projects/rock.sprack", bytes.NewReader([]byte("rock")), core.PutOptions{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := s.Put(ctx, "other/x", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info, rc, err := s.Get(ctx, "projects/tree.sprack")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "second" {
		t.Errorf("Get failed: expected second, got %q", data)
	}
	if info.Size != 6 {
		t.Errorf("Get size failed: expected 6, got %d", info.Size)
	}

	head, err := s.Head(ctx, "projects/tree.sprack")
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head.Size != 6 || head.ContentType != "application/json" {
		t.Errorf("Head failed: got %+v", head)
	}

	list, err := s.List(ctx, "projects/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].Key != "projects/rock.sprack" || list[1].Key != "projects/tree.sprack" {
		t.Errorf("List failed: got %+v", list)
	}

	ok, err := s.Delete(ctx, "projects/rock.sprack")
	if err != nil || !ok {
		t.Errorf("Delete failed: %v %v", ok, err)
	}
	if _, err := s.Head(ctx, "projects/rock.sprack"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Head after delete failed: expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get missing failed: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Put(ctx, "../escape", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("Put invalid key failed: expected ErrInvalidKey, got %v", err)
	}
}
