package layer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/philipparndt/gosprack/internal/model"
	"github.com/philipparndt/gosprack/pkg/render"
	"github.com/philipparndt/gosprack/pkg/scene"
)

const (
	DefaultWidth          = 32
	DefaultHeight         = 32
	DefaultLayerHeight    = 0.0
	DefaultLayerThickness = 10.0
	DefaultMaxSize        = 1024
	DefaultMaxCount       = 256
)

// ErrDuplicateID is returned when a layer is created with an id in use
var ErrDuplicateID = errors.New("layer id already exists")

// Layer is a slice record. Raster holds the PNG of the most recent render.
type Layer struct {
	ID        string
	Name      string
	Height    float64
	Thickness float64
	Raster    []byte
}

// ModelSource provides the model new layers are sliced from
type ModelSource interface {
	Current() *model.Model
}

// Options configures a Registry
type Options struct {
	Width  int
	Height int
	Light  scene.AmbientLight
	// MaxSize caps the raster width and height
	MaxSize int
	// MaxCount caps CreateEvenlySpacedLayers
	MaxCount int
	// NewID generates layer ids; uuid v4 when nil
	NewID func() string
}

// Texture is the last rendered image of a layer
type Texture struct {
	Layer Layer
	Image image.Image
}

type entry struct {
	layer    Layer
	renderer *Renderer
}

// Registry is the ordered collection of layers. Each layer owns exactly one
// Renderer; both are created and disposed together. Rendering goes through
// one shared render context, one layer at a time.
type Registry struct {
	mu     sync.Mutex
	rc     *render.Context
	models ModelSource
	light  scene.AmbientLight
	newID  func() string
	width  int
	height int

	maxSize  int
	maxCount int

	layers      []*entry
	active      string
	projectName string
}

// NewRegistry creates an empty registry and resizes rc to the default size
func NewRegistry(rc *render.Context, models ModelSource, opts Options) (*Registry, error) {
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = DefaultMaxCount
	}
	if err := validateSize(opts.Width, opts.Height, opts.MaxSize); err != nil {
		return nil, err
	}
	if opts.Light == (scene.AmbientLight{}) {
		opts.Light = DefaultAmbient
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if err := rc.Resize(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	return &Registry{
		rc:     rc,
		models: models,
		light:  opts.Light,
		newID:  opts.NewID,
		width:  opts.Width,
		height: opts.Height,

		maxSize:  opts.MaxSize,
		maxCount: opts.MaxCount,
	}, nil
}

func (r *Registry) find(id string) (int, *entry) {
	for i, e := range r.layers {
		if e.layer.ID == id {
			return i, e
		}
	}
	return -1, nil
}

// CreateLayer slices the current model at height with the given thickness
// and appends the layer. An empty name becomes "Layer <n>".
func (r *Registry) CreateLayer(height, thickness float64, name string) (Layer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(r.newID(), height, thickness, name)
}

// CreateLayerWithID is CreateLayer with a caller supplied id
func (r *Registry) CreateLayerWithID(id string, height, thickness float64, name string) (Layer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, e := r.find(id); e != nil {
		return Layer{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	return r.create(id, height, thickness, name)
}

func (r *Registry) create(id string, height, thickness float64, name string) (Layer, error) {
	m := r.models.Current()
	if m == nil {
		return Layer{}, ErrNoModel
	}

	rend, err := NewRenderer(r.rc, m.Root, m.Snapshot(), height, thickness, r.light)
	if err != nil {
		return Layer{}, err
	}
	raster, err := rend.Render()
	if err != nil {
		rend.Dispose()
		return Layer{}, fmt.Errorf("failed to render layer: %w", err)
	}

	if name == "" {
		name = fmt.Sprintf("Layer %d", len(r.layers))
	}
	e := &entry{
		layer: Layer{
			ID:        id,
			Name:      name,
			Height:    height,
			Thickness: thickness,
			Raster:    raster,
		},
		renderer: rend,
	}
	r.layers = append(r.layers, e)

	slog.Debug("layer created", "id", id, "height", height, "thickness", thickness)
	return e.layer, nil
}

// CreateEvenlySpacedLayers replaces all layers with count layers at
// heights floor(100/count*i).
func (r *Registry) CreateEvenlySpacedLayers(count int, thickness float64) ([]Layer, error) {
	if count < 0 {
		return nil, ErrInvalidCount
	}
	if count > r.maxCount {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", ErrInvalidCount, count, r.maxCount)
	}
	if err := validateThickness(thickness); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if count > 0 && r.models.Current() == nil {
		return nil, ErrNoModel
	}
	r.removeAll()

	separation := 100 / float64(count)
	out := make([]Layer, 0, count)
	for i := 0; i < count; i++ {
		l, err := r.create(r.newID(), math.Floor(separation*float64(i)), thickness, "")
		if err != nil {
			return out, err
		}
		out = append(out, l)
	}
	return out, nil
}

// RemoveLayer disposes and removes a layer. Unknown ids are ignored.
func (r *Registry) RemoveLayer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, e := r.find(id)
	if e == nil {
		return
	}
	e.renderer.Dispose()
	r.layers = append(r.layers[:i], r.layers[i+1:]...)
	if r.active == id {
		r.active = ""
	}
}

// RemoveAllLayers disposes every layer
func (r *Registry) RemoveAllLayers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeAll()
}

func (r *Registry) removeAll() {
	for _, e := range r.layers {
		e.renderer.Dispose()
	}
	r.layers = nil
	r.active = ""
}

// SetLayerHeight moves a layer and re-renders it
func (r *Registry) SetLayerHeight(id string, percent float64) error {
	return r.update(id, func(e *entry) (func(), error) {
		prev := e.renderer.Height()
		if err := e.renderer.SetHeight(percent); err != nil {
			return nil, err
		}
		e.layer.Height = percent
		return func() {
			_ = e.renderer.SetHeight(prev)
			e.layer.Height = prev
		}, nil
	})
}

// SetLayerThickness changes a layer's thickness and re-renders it
func (r *Registry) SetLayerThickness(id string, percent float64) error {
	return r.update(id, func(e *entry) (func(), error) {
		prev := e.renderer.Thickness()
		if err := e.renderer.SetThickness(percent); err != nil {
			return nil, err
		}
		e.layer.Thickness = percent
		return func() {
			_ = e.renderer.SetThickness(prev)
			e.layer.Thickness = prev
		}, nil
	})
}

// UpdateLayer changes any of height, thickness and name in one step. Nil
// fields are left alone. Every value is validated before the layer is
// touched, so a rejected update leaves it unchanged.
func (r *Registry) UpdateLayer(id string, height, thickness *float64, name *string) error {
	if height != nil {
		if err := validateHeight(*height); err != nil {
			return err
		}
	}
	if thickness != nil {
		if err := validateThickness(*thickness); err != nil {
			return err
		}
	}
	if height == nil && thickness == nil {
		if name != nil {
			r.SetLayerName(id, *name)
		}
		return nil
	}

	return r.update(id, func(e *entry) (func(), error) {
		prev := e.layer
		undo := func() {
			_ = e.renderer.SetThickness(prev.Thickness)
			_ = e.renderer.SetHeight(prev.Height)
			e.layer.Height = prev.Height
			e.layer.Thickness = prev.Thickness
			e.layer.Name = prev.Name
		}
		if height != nil {
			_ = e.renderer.SetHeight(*height)
			e.layer.Height = *height
		}
		if thickness != nil {
			_ = e.renderer.SetThickness(*thickness)
			e.layer.Thickness = *thickness
		}
		if name != nil {
			e.layer.Name = *name
		}
		return undo, nil
	})
}

// update applies a change and re-renders. If rendering fails the change is
// reverted with the returned undo.
func (r *Registry) update(id string, apply func(*entry) (func(), error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, e := r.find(id)
	if e == nil {
		return nil
	}
	undo, err := apply(e)
	if err != nil {
		return err
	}
	raster, err := e.renderer.Render()
	if err != nil {
		undo()
		return fmt.Errorf("failed to render layer: %w", err)
	}
	e.layer.Raster = raster
	return nil
}

// SetLayerName renames a layer without re-rendering
func (r *Registry) SetLayerName(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, e := r.find(id); e != nil {
		e.layer.Name = name
	}
}

// SetLayerOrder moves a layer to index, clamped to the valid range.
// The relative order of the other layers is kept.
func (r *Registry) SetLayerOrder(id string, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.move(id, index)
}

// ShiftLayerOrder moves a layer by delta positions
func (r *Registry) ShiftLayerOrder(id string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, e := r.find(id)
	if e == nil {
		return
	}
	r.move(id, i+delta)
}

func (r *Registry) move(id string, index int) {
	i, e := r.find(id)
	if e == nil {
		return
	}
	index = max(0, min(index, len(r.layers)-1))
	if index == i {
		return
	}
	r.layers = append(r.layers[:i], r.layers[i+1:]...)
	r.layers = append(r.layers[:index], append([]*entry{e}, r.layers[index:]...)...)
}

// SetLayerSize resizes the shared target and re-renders every layer in order
func (r *Registry) SetLayerSize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := validateSize(width, height, r.maxSize); err != nil {
		return err
	}

	if err := r.rc.Resize(width, height); err != nil {
		return err
	}
	r.width, r.height = width, height
	return r.renderAll()
}

func (r *Registry) renderAll() error {
	for _, e := range r.layers {
		raster, err := e.renderer.Render()
		if err != nil {
			return fmt.Errorf("failed to render layer %s: %w", e.layer.ID, err)
		}
		e.layer.Raster = raster
	}
	return nil
}

// Rebuild re-slices every layer against the current model, keeping ids,
// names, parameters and order. Layers are only replaced if all succeed.
func (r *Registry) Rebuild() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.models.Current()
	if m == nil {
		return ErrNoModel
	}

	rebuilt := make([]*entry, 0, len(r.layers))
	discard := func() {
		for _, e := range rebuilt {
			e.renderer.Dispose()
		}
	}
	for _, old := range r.layers {
		rend, err := NewRenderer(r.rc, m.Root, m.Snapshot(), old.layer.Height, old.layer.Thickness, r.light)
		if err != nil {
			discard()
			return err
		}
		raster, err := rend.Render()
		if err != nil {
			rend.Dispose()
			discard()
			return fmt.Errorf("failed to render layer %s: %w", old.layer.ID, err)
		}
		l := old.layer
		l.Raster = raster
		rebuilt = append(rebuilt, &entry{layer: l, renderer: rend})
	}

	for _, e := range r.layers {
		e.renderer.Dispose()
	}
	r.layers = rebuilt
	slog.Info("layers rebuilt", "count", len(rebuilt))
	return nil
}

// Reset disposes every layer and restores the default size
func (r *Registry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeAll()
	if err := r.rc.Resize(DefaultWidth, DefaultHeight); err != nil {
		return err
	}
	r.width, r.height = DefaultWidth, DefaultHeight
	return nil
}

// Layers returns a copy of the ordered collection
func (r *Registry) Layers() []Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Layer, len(r.layers))
	for i, e := range r.layers {
		out[i] = e.layer
	}
	return out
}

// Layer returns a layer by id
func (r *Registry) Layer(id string) (Layer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, e := r.find(id); e != nil {
		return e.layer, true
	}
	return Layer{}, false
}

// Index returns the position of a layer or -1
func (r *Registry) Index(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, _ := r.find(id)
	return i
}

// Textures returns the last rendered image of every layer in stack order.
// Layers that were never rendered are skipped. Frames are not modified after
// rendering, so the snapshot stays valid while layers keep changing.
func (r *Registry) Textures() []Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Texture, 0, len(r.layers))
	for _, e := range r.layers {
		if img := e.renderer.Texture(); img != nil {
			out = append(out, Texture{Layer: e.layer, Image: img})
		}
	}
	return out
}

// Renderer returns the renderer backing a layer. The renderer is shared with
// the registry; use Textures to read images while layers may change.
func (r *Registry) Renderer(id string) (*Renderer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, e := r.find(id); e != nil {
		return e.renderer, true
	}
	return nil, false
}

// Len returns the number of layers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.layers)
}

// Size returns the layer raster dimensions
func (r *Registry) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// SetActive selects a layer. It reports false for unknown ids.
func (r *Registry) SetActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		r.active = ""
		return true
	}
	if _, e := r.find(id); e == nil {
		return false
	}
	r.active = id
	return true
}

// Active returns the selected layer
func (r *Registry) Active() (Layer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, e := r.find(r.active); e != nil {
		return e.layer, true
	}
	return Layer{}, false
}

// ProjectName returns the project name
func (r *Registry) ProjectName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projectName
}

// SetProjectName sets the project name
func (r *Registry) SetProjectName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projectName = name
}
