// Package app wires the model, slice registry, renderer, storage and metrics
// into one headless session used by the CLI, the HTTP API and MCP.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/philipparndt/gosprack/internal/config"
	"github.com/philipparndt/gosprack/internal/layer"
	"github.com/philipparndt/gosprack/internal/metrics"
	"github.com/philipparndt/gosprack/internal/model"
	"github.com/philipparndt/gosprack/internal/project"
	"github.com/philipparndt/gosprack/internal/stack"
	"github.com/philipparndt/gosprack/internal/storage"
	"github.com/philipparndt/gosprack/internal/storage/core"
	"github.com/philipparndt/gosprack/pkg/modelio"
	"github.com/philipparndt/gosprack/pkg/render"
	"github.com/philipparndt/gosprack/pkg/scene"
	"github.com/philipparndt/gosprack/pkg/watcher"
)

// ErrNoSource is returned by Reload when the model did not come from a file
var ErrNoSource = errors.New("model has no source file")

// App is a slicing session
type App struct {
	Config  *config.Config
	Models  *model.Service
	Layers  *layer.Registry
	Store   core.Store
	Metrics *metrics.Metrics

	render *render.Context
	logger *slog.Logger

	mu      sync.Mutex
	source  string
	watcher *watcher.FileWatcher
}

// Option customises New
type Option func(*App)

// WithStore uses s instead of opening the configured storage driver
func WithStore(s core.Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithLogger replaces the default logger
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// New creates a session from cfg. A nil cfg uses the defaults.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{
		Config:  cfg,
		Models:  model.NewService(),
		Metrics: metrics.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Store == nil {
		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		a.Store = store
	}

	rc, err := render.NewContext(cfg.Layers.Width, cfg.Layers.Height,
		render.WithClearColor(config.MustColor(cfg.Render.ClearColor, color.NRGBA{})),
		render.WithDepthRange(cfg.Render.DepthRange),
		render.WithObserver(a.Metrics.Observe),
	)
	if err != nil {
		return nil, err
	}
	a.render = rc

	reg, err := layer.NewRegistry(rc, a.Models, layer.Options{
		Width:    cfg.Layers.Width,
		Height:   cfg.Layers.Height,
		MaxSize:  cfg.Layers.MaxSize,
		MaxCount: cfg.Layers.MaxCount,
		Light: scene.AmbientLight{
			Color:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			Intensity: cfg.Render.AmbientIntensity,
		},
	})
	if err != nil {
		return nil, err
	}
	a.Layers = reg
	a.Metrics.RegisterLayerCount(reg.Len)

	a.logger.Debug("session created",
		"storage", a.Store.Driver(),
		"width", cfg.Layers.Width,
		"height", cfg.Layers.Height)
	return a, nil
}

// LoadModel reads a model file and remembers it as the reload source
func (a *App) LoadModel(ctx context.Context, path string) (*model.Model, error) {
	m, err := a.Models.Load(ctx, path)
	if err != nil {
		a.Metrics.Error("MODEL_LOAD")
		return nil, err
	}
	a.Metrics.ModelLoaded(string(modelio.DetectFormat(path, nil)))

	a.mu.Lock()
	a.source = path
	a.mu.Unlock()
	return m, nil
}

// LoadModelBytes decodes an uploaded model. The session loses its reload source.
func (a *App) LoadModelBytes(data []byte, format modelio.Format, name string) (*model.Model, error) {
	m, err := a.Models.LoadBytes(data, format, name)
	if err != nil {
		a.Metrics.Error("MODEL_LOAD")
		return nil, err
	}
	a.Metrics.ModelLoaded(string(format))

	a.mu.Lock()
	a.source = ""
	a.mu.Unlock()
	return m, nil
}

// Source returns the file the current model was loaded from
func (a *App) Source() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

// Reload loads the source file again and re-slices every layer
func (a *App) Reload(ctx context.Context) error {
	path := a.Source()
	if path == "" {
		return ErrNoSource
	}
	if _, err := a.LoadModel(ctx, path); err != nil {
		return err
	}
	return a.Layers.Rebuild()
}

// Slices returns the latest raster of every layer in stack order
func (a *App) Slices() []image.Image {
	textures := a.Layers.Textures()
	images := make([]image.Image, len(textures))
	for i, t := range textures {
		images[i] = t.Image
	}
	return images
}

// StackPreview composites the slices into a sprite-stack image. A zero
// background falls back to the configured stack colour.
func (a *App) StackPreview(opts stack.PreviewOptions) (*image.RGBA, error) {
	if err := a.checkScale(opts.Scale); err != nil {
		return nil, err
	}
	if math.IsNaN(opts.Spacing) || opts.Spacing < 0 || opts.Spacing > float64(a.Config.Layers.MaxCanvas) {
		return nil, fmt.Errorf("%w: spacing %v", layer.ErrInvalidSize, opts.Spacing)
	}
	if math.IsNaN(opts.Angle) || math.IsInf(opts.Angle, 0) {
		return nil, fmt.Errorf("%w: angle %v", layer.ErrInvalidSize, opts.Angle)
	}
	if opts.Background == (color.NRGBA{}) {
		opts.Background = config.MustColor(a.Config.Colors.Stack, color.NRGBA{})
	}

	slices := a.Slices()
	if err := a.checkCanvas(stack.PreviewSize(slices, opts)); err != nil {
		return nil, err
	}
	return stack.RenderPreview(slices, opts), nil
}

// SpriteSheet lays the slices out horizontally, optionally with their names
func (a *App) SpriteSheet(scale int, labels bool) (*image.RGBA, error) {
	if err := a.checkScale(scale); err != nil {
		return nil, err
	}
	opts := stack.SheetOptions{
		Scale:      scale,
		Padding:    1,
		Background: config.MustColor(a.Config.Colors.PNG, color.NRGBA{}),
	}

	textures := a.Layers.Textures()
	slices := make([]image.Image, len(textures))
	for i, t := range textures {
		slices[i] = t.Image
		if labels {
			opts.Labels = append(opts.Labels, t.Layer.Name)
		}
	}
	if err := a.checkCanvas(stack.SheetSize(slices, opts)); err != nil {
		return nil, err
	}
	return stack.SpriteSheet(slices, opts)
}

// checkScale accepts 0 for the default scale
func (a *App) checkScale(scale int) error {
	if scale < 0 || scale > a.Config.Layers.MaxScale {
		return fmt.Errorf("%w: scale %d outside 1..%d", layer.ErrInvalidSize, scale, a.Config.Layers.MaxScale)
	}
	return nil
}

func (a *App) checkCanvas(width, height int) error {
	if limit := a.Config.Layers.MaxCanvas; width > limit || height > limit {
		return fmt.Errorf("%w: %dx%d image exceeds the limit of %d", layer.ErrInvalidSize, width, height, limit)
	}
	return nil
}

// ExportProject captures the session as a bundle
func (a *App) ExportProject() (*project.File, error) {
	return project.Export(a.Layers, a.Models)
}

// ImportProject replaces the session with a bundle
func (a *App) ImportProject(f *project.File) error {
	if err := project.Import(a.Layers, a.Models, f); err != nil {
		a.Metrics.Error(layer.Code(err))
		return err
	}
	a.Metrics.ModelLoaded(string(modelio.FormatGLB))
	a.mu.Lock()
	a.source = ""
	a.mu.Unlock()
	return nil
}

// SaveProject exports the session into the store. An empty name uses the
// project name.
func (a *App) SaveProject(ctx context.Context, name string) (core.Info, error) {
	if name == "" {
		name = a.Layers.ProjectName()
	}
	f, err := a.ExportProject()
	if err != nil {
		return core.Info{}, err
	}
	info, err := project.Save(ctx, a.Store, name, f)
	if err != nil {
		return core.Info{}, err
	}
	a.logger.Info("project saved", "key", info.Key, "size", info.Size)
	return info, nil
}

// OpenProject imports a bundle from the store
func (a *App) OpenProject(ctx context.Context, name string) error {
	f, err := project.Load(ctx, a.Store, name)
	if err != nil {
		return err
	}
	return a.ImportProject(f)
}

// ListProjects returns the stored project names
func (a *App) ListProjects(ctx context.Context) ([]string, error) {
	return project.List(ctx, a.Store)
}

// Close stops watching and releases the store
func (a *App) Close() error {
	a.mu.Lock()
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Close())
	}
	if c, ok := a.Store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
