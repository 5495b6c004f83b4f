// Package model holds the currently loaded model and the snapshots slices
// are created from.
package model

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/modelio"
	"github.com/philipparndt/gosprack/pkg/scene"
)

// ErrNoModel is returned when an operation needs a loaded model
var ErrNoModel = errors.New("no model loaded")

// Snapshot is the model geometry a slice is created against.
// It is captured once and never follows later model changes.
type Snapshot struct {
	Min  geometry.Vector3
	Size geometry.Vector3
}

// MinY returns the lowest point of the model
func (s Snapshot) MinY() float64 {
	return s.Min.Y
}

// Model is a loaded, centered scene graph with its bounds
type Model struct {
	Name   string
	Root   *scene.Node
	Box    geometry.BoundingBox
	Size   geometry.Vector3
	Center geometry.Vector3
}

// Snapshot captures the current bounds
func (m *Model) Snapshot() Snapshot {
	return Snapshot{Min: m.Box.Min, Size: m.Size}
}

// Prepare centers the scene on the origin with its base at y=0 and removes
// metalness from every material. The bounds are recomputed after the move.
func Prepare(root *scene.Node) *Model {
	box := root.BoundingBox()
	if !box.IsEmpty() {
		center := box.Center()
		offset := geometry.NewVector3(-center.X, -box.Min.Y, -center.Z)
		root.Transform = geometry.Translation4(offset).Mul(root.Transform)
	}

	for _, mat := range root.Materials() {
		mat.Metalness = 0
	}

	box = root.BoundingBox()
	return &Model{
		Name:   root.Name,
		Root:   root,
		Box:    box,
		Size:   box.Size(),
		Center: box.Center(),
	}
}

// Service owns the current model
type Service struct {
	mu      sync.RWMutex
	current *Model
}

// NewService creates a service without a model
func NewService() *Service {
	return &Service{}
}

// Set prepares root and makes it the current model
func (s *Service) Set(root *scene.Node) *Model {
	m := Prepare(root)

	s.mu.Lock()
	s.current = m
	s.mu.Unlock()

	slog.Info("model loaded",
		"name", m.Name,
		"triangles", len(root.WorldTriangles()),
		"size", m.Size)
	return m
}

// Load reads a model file and makes it current
func (s *Service) Load(ctx context.Context, path string) (*Model, error) {
	root, err := modelio.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Set(root), nil
}

// LoadBytes decodes a model and makes it current
func (s *Service) LoadBytes(data []byte, format modelio.Format, name string) (*Model, error) {
	root, err := modelio.LoadBytes(data, format, name)
	if err != nil {
		return nil, err
	}
	return s.Set(root), nil
}

// Current returns the loaded model or nil
func (s *Service) Current() *Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Clear forgets the current model
func (s *Service) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Export writes the current model as glTF
func (s *Service) Export(w io.Writer, binary bool) error {
	m := s.Current()
	if m == nil {
		return ErrNoModel
	}
	return modelio.Export(w, m.Root, binary)
}
