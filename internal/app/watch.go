package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/philipparndt/gosprack/pkg/openscad"
	"github.com/philipparndt/gosprack/pkg/watcher"
)

// Watch loads path and re-slices whenever it or, for OpenSCAD sources, one
// of its dependencies changes. onReload receives the result of every reload
// and may be nil. Watching stops when ctx is done or the session closes.
func (a *App) Watch(ctx context.Context, path string, onReload func(error)) error {
	if _, err := a.LoadModel(ctx, path); err != nil {
		return err
	}

	files, err := watchFiles(path)
	if err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(a.Config.Watch.Debounce)
	if err != nil {
		return err
	}
	callback := func(changed string) {
		a.logger.Info("source changed, re-slicing", "file", changed)
		err := a.Reload(ctx)
		if err != nil {
			a.logger.Error("reload failed", "error", err)
		} else {
			a.logger.Info("layers re-sliced", "count", a.Layers.Len())
		}
		if onReload != nil {
			onReload(err)
		}
	}
	if err := fw.Watch(files, callback); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch files: %w", err)
	}

	a.mu.Lock()
	old := a.watcher
	a.watcher = fw
	a.mu.Unlock()
	if old != nil {
		old.Close()
	}

	fw.Start(ctx)
	a.logger.Info("watching for changes", "files", len(files))
	return nil
}

// watchFiles returns the source file and, for OpenSCAD, its includes
func watchFiles(path string) ([]string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".scad" {
		return []string{path}, nil
	}
	deps, err := openscad.NewRenderer(filepath.Dir(path)).ResolveDependencies(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	return deps, nil
}
