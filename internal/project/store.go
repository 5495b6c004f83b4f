package project

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/philipparndt/gosprack/internal/storage/core"
)

const (
	// Extension is appended to project names to form storage keys
	Extension   = ".sprack"
	contentType = "application/json"
)

// Key returns the storage key for a project name
func Key(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty project name", core.ErrInvalidKey)
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	return core.CleanKey(name)
}

// Save writes the bundle under name, replacing any previous version
func Save(ctx context.Context, store core.Store, name string, f *File) (core.Info, error) {
	key, err := Key(name)
	if err != nil {
		return core.Info{}, err
	}
	data, err := Marshal(f)
	if err != nil {
		return core.Info{}, err
	}
	return store.Put(ctx, key, bytes.NewReader(data), core.PutOptions{ContentType: contentType})
}

// Load reads and decodes the bundle stored under name
func Load(ctx context.Context, store core.Store, name string) (*File, error) {
	key, err := Key(name)
	if err != nil {
		return nil, err
	}
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(rc)
}

// List returns the names of all stored projects
func List(ctx context.Context, store core.Store) ([]string, error) {
	infos, err := store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, info := range infos {
		if strings.HasSuffix(info.Key, Extension) {
			names = append(names, strings.TrimSuffix(info.Key, Extension))
		}
	}
	return names, nil
}
