// Package mcptools exposes a slicing session as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/philipparndt/gosprack/internal/app"
	"github.com/philipparndt/gosprack/internal/layer"
)

// Implementation identifies the server to MCP clients
var Implementation = &mcp.Implementation{Name: "gosprack", Version: "1.0.0"}

// NewServer creates an MCP server with every tool registered
func NewServer(a *app.App) *mcp.Server {
	srv := mcp.NewServer(Implementation, nil)
	Register(srv, a)
	return srv
}

// Register adds the sprack_* tools to srv
func Register(srv *mcp.Server, a *app.App) {
	t := &tools{app: a}
	t.createLayer(srv)
	t.evenLayers(srv)
	t.listLayers(srv)
	t.updateLayer(srv)
	t.removeLayer(srv)
	t.moveLayer(srv)
	t.setSize(srv)
	t.loadModel(srv)
	t.saveProject(srv)
	t.openProject(srv)
}

type tools struct {
	app *app.App
}

// inputSchema builds a JSON Schema object with type "object"
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers a handler that decodes arguments into Req and encodes
// the result as JSON text. Errors become tool errors prefixed with their code.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, fn func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := fn(ctx, &r)
		if err != nil {
			var res mcp.CallToolResult
			if code := layer.Code(err); code != "" {
				err = fmt.Errorf("%s: %w", code, err)
			}
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

type layerView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Index     int     `json:"index"`
	Height    float64 `json:"height"`
	Thickness float64 `json:"thickness"`
	PNGBytes  int     `json:"png_bytes"`
}

func (t *tools) view(l layer.Layer) layerView {
	return layerView{
		ID:        l.ID,
		Name:      l.Name,
		Index:     t.app.Layers.Index(l.ID),
		Height:    l.Height,
		Thickness: l.Thickness,
		PNGBytes:  len(l.Raster),
	}
}

func (t *tools) all() []layerView {
	layers := t.app.Layers.Layers()
	out := make([]layerView, len(layers))
	for i, l := range layers {
		out[i] = t.view(l)
	}
	return out
}

func (t *tools) mustExist(id string) (layer.Layer, error) {
	l, ok := t.app.Layers.Layer(id)
	if !ok {
		return layer.Layer{}, fmt.Errorf("layer %s not found", id)
	}
	return l, nil
}

var (
	heightProp    = map[string]any{"type": "number", "minimum": 0, "maximum": 100, "description": "Slice center as a percentage of model height"}
	thicknessProp = map[string]any{"type": "number", "minimum": 1, "maximum": 100, "description": "Slab thickness as a percentage of model height"}
	idProp        = map[string]any{"type": "string", "description": "Layer id"}
)

// --- layers ---

type createRequest struct {
	Height    *float64 `json:"height"`
	Thickness *float64 `json:"thickness"`
	Name      string   `json:"name,omitempty"`
}

func (t *tools) createLayer(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_create_layer",
		Description: "Slice the loaded model at a height and append the slice to the stack.",
		InputSchema: inputSchema(map[string]any{
			"height":    heightProp,
			"thickness": thicknessProp,
			"name":      map[string]any{"type": "string", "description": "Optional name (default Layer <n>)"},
		}, nil),
	}
	addTool(srv, tool, func(_ context.Context, r *createRequest) (any, error) {
		height := layer.DefaultLayerHeight
		if r.Height != nil {
			height = *r.Height
		}
		thickness := t.app.Config.Layers.Thickness
		if r.Thickness != nil {
			thickness = *r.Thickness
		}
		l, err := t.app.Layers.CreateLayer(height, thickness, r.Name)
		if err != nil {
			return nil, err
		}
		return t.view(l), nil
	})
}

type evenRequest struct {
	Count     int      `json:"count"`
	Thickness *float64 `json:"thickness"`
}

func (t *tools) evenLayers(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_even_layers",
		Description: "Replace every slice with count evenly spaced slices.",
		InputSchema: inputSchema(map[string]any{
			"count":     map[string]any{"type": "integer", "minimum": 0, "description": "Number of slices"},
			"thickness": thicknessProp,
		}, []string{"count"}),
	}
	addTool(srv, tool, func(_ context.Context, r *evenRequest) (any, error) {
		thickness := t.app.Config.Layers.Thickness
		if r.Thickness != nil {
			thickness = *r.Thickness
		}
		if _, err := t.app.Layers.CreateEvenlySpacedLayers(r.Count, thickness); err != nil {
			return nil, err
		}
		return t.all(), nil
	})
}

type empty struct{}

func (t *tools) listLayers(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_list_layers",
		Description: "List slices bottom to top with their parameters.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(_ context.Context, _ *empty) (any, error) {
		w, h := t.app.Layers.Size()
		return map[string]any{
			"width":  w,
			"height": h,
			"layers": t.all(),
		}, nil
	})
}

type updateRequest struct {
	ID        string   `json:"id"`
	Height    *float64 `json:"height"`
	Thickness *float64 `json:"thickness"`
	Name      *string  `json:"name"`
}

func (t *tools) updateLayer(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_update_layer",
		Description: "Change a slice's height, thickness or name. Geometry changes re-render the slice.",
		InputSchema: inputSchema(map[string]any{
			"id":        idProp,
			"height":    heightProp,
			"thickness": thicknessProp,
			"name":      map[string]any{"type": "string"},
		}, []string{"id"}),
	}
	addTool(srv, tool, func(_ context.Context, r *updateRequest) (any, error) {
		if _, err := t.mustExist(r.ID); err != nil {
			return nil, err
		}
		if err := t.app.Layers.UpdateLayer(r.ID, r.Height, r.Thickness, r.Name); err != nil {
			return nil, err
		}
		l, _ := t.app.Layers.Layer(r.ID)
		return t.view(l), nil
	})
}

type idRequest struct {
	ID string `json:"id"`
}

func (t *tools) removeLayer(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_remove_layer",
		Description: "Remove a slice. Omit id to remove every slice.",
		InputSchema: inputSchema(map[string]any{"id": idProp}, nil),
	}
	addTool(srv, tool, func(_ context.Context, r *idRequest) (any, error) {
		if r.ID == "" {
			t.app.Layers.RemoveAllLayers()
			return t.all(), nil
		}
		if _, err := t.mustExist(r.ID); err != nil {
			return nil, err
		}
		t.app.Layers.RemoveLayer(r.ID)
		return t.all(), nil
	})
}

type moveRequest struct {
	ID    string `json:"id"`
	Index *int   `json:"index"`
	Delta *int   `json:"delta"`
}

func (t *tools) moveLayer(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_move_layer",
		Description: "Move a slice to an absolute index or by a relative delta. Positions are clamped.",
		InputSchema: inputSchema(map[string]any{
			"id":    idProp,
			"index": map[string]any{"type": "integer", "description": "Target position, 0 is the bottom"},
			"delta": map[string]any{"type": "integer", "description": "Relative move, positive is up"},
		}, []string{"id"}),
	}
	addTool(srv, tool, func(_ context.Context, r *moveRequest) (any, error) {
		if _, err := t.mustExist(r.ID); err != nil {
			return nil, err
		}
		switch {
		case r.Index != nil:
			t.app.Layers.SetLayerOrder(r.ID, *r.Index)
		case r.Delta != nil:
			t.app.Layers.ShiftLayerOrder(r.ID, *r.Delta)
		default:
			return nil, errors.New("index or delta required")
		}
		return t.all(), nil
	})
}

type sizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (t *tools) setSize(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_set_size",
		Description: "Set the raster size of every slice and re-render them.",
		InputSchema: inputSchema(map[string]any{
			"width":  map[string]any{"type": "integer", "minimum": 1},
			"height": map[string]any{"type": "integer", "minimum": 1},
		}, []string{"width", "height"}),
	}
	addTool(srv, tool, func(_ context.Context, r *sizeRequest) (any, error) {
		if err := t.app.Layers.SetLayerSize(r.Width, r.Height); err != nil {
			return nil, err
		}
		w, h := t.app.Layers.Size()
		return map[string]int{"width": w, "height": h}, nil
	})
}

// --- model and projects ---

type pathRequest struct {
	Path string `json:"path"`
}

func (t *tools) loadModel(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_load_model",
		Description: "Load an STL, glTF/GLB or OpenSCAD model from a local path. Existing slices keep their old model until re-sliced.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "Model file path"},
		}, []string{"path"}),
	}
	addTool(srv, tool, func(ctx context.Context, r *pathRequest) (any, error) {
		m, err := t.app.LoadModel(ctx, r.Path)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"name": m.Name,
			"size": [3]float64{m.Size.X, m.Size.Y, m.Size.Z},
		}, nil
	})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (t *tools) saveProject(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_save_project",
		Description: "Save the model and slices as a .sprack bundle in the configured store.",
		InputSchema: inputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Project name (default: current project name)"},
		}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, r *nameRequest) (any, error) {
		if r.Name != "" {
			t.app.Layers.SetProjectName(r.Name)
		}
		return t.app.SaveProject(ctx, r.Name)
	})
}

func (t *tools) openProject(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sprack_open_project",
		Description: "Replace the session with a stored .sprack bundle.",
		InputSchema: inputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Project name"},
		}, []string{"name"}),
	}
	addTool(srv, tool, func(ctx context.Context, r *nameRequest) (any, error) {
		if err := t.app.OpenProject(ctx, r.Name); err != nil {
			return nil, err
		}
		return t.all(), nil
	})
}
