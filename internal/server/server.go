// Package server exposes a slicing session over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/philipparndt/gosprack/internal/app"
	"github.com/philipparndt/gosprack/internal/layer"
	"github.com/philipparndt/gosprack/internal/project"
	"github.com/philipparndt/gosprack/internal/stack"
	"github.com/philipparndt/gosprack/internal/storage/core"
	"github.com/philipparndt/gosprack/pkg/modelio"
)

// maxUpload bounds model and bundle request bodies
const maxUpload = 256 << 20

// Server routes HTTP requests to an app session
type Server struct {
	app    *app.App
	logger *slog.Logger
}

// New creates a server for a
func New(a *app.App) *Server {
	return &Server{app: a, logger: slog.Default().With("component", "http")}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.app.Metrics.Handler())

	r.Route("/model", func(r chi.Router) {
		r.Get("/", s.getModel)
		r.Post("/", s.postModel)
	})

	r.Route("/layers", func(r chi.Router) {
		r.Get("/", s.listLayers)
		r.Post("/", s.createLayer)
		r.Delete("/", s.removeAllLayers)
		r.Post("/even", s.evenLayers)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getLayer)
			r.Patch("/", s.updateLayer)
			r.Delete("/", s.removeLayer)
			r.Get("/raster.png", s.layerRaster)
			r.Post("/order", s.orderLayer)
			r.Post("/shift", s.shiftLayer)
		})
	})

	r.Put("/size", s.setSize)
	r.Get("/stack.png", s.stackPNG)
	r.Get("/sheet.png", s.sheetPNG)

	r.Get("/project", s.exportProject)
	r.Post("/project", s.importProject)

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.listProjects)
		r.Put("/{name}", s.saveProject)
		r.Get("/{name}", s.fetchProject)
		r.Post("/{name}/open", s.openProject)
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "storage", s.app.Store.Driver())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// --- model ---

type modelInfo struct {
	Name   string     `json:"name"`
	Source string     `json:"source,omitempty"`
	Size   [3]float64 `json:"size"`
	Center [3]float64 `json:"center"`
}

func (s *Server) getModel(w http.ResponseWriter, _ *http.Request) {
	m := s.app.Models.Current()
	if m == nil {
		s.writeError(w, layer.ErrNoModel)
		return
	}
	writeJSON(w, http.StatusOK, modelInfo{
		Name:   m.Name,
		Source: s.app.Source(),
		Size:   [3]float64{m.Size.X, m.Size.Y, m.Size.Z},
		Center: [3]float64{m.Center.X, m.Center.Y, m.Center.Z},
	})
}

// postModel accepts the raw model as the body. ?name= sets the model name
// and helps format detection, ?format= forces a format.
func (s *Server) postModel(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUpload))
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "model"
	}
	format := modelio.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = modelio.DetectFormat(name, data)
	}
	m, err := s.app.LoadModelBytes(data, format, name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, modelInfo{
		Name:   m.Name,
		Size:   [3]float64{m.Size.X, m.Size.Y, m.Size.Z},
		Center: [3]float64{m.Center.X, m.Center.Y, m.Center.Z},
	})
}

// --- layers ---

type layerJSON struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Index     int     `json:"index"`
	Height    float64 `json:"height"`
	Thickness float64 `json:"thickness"`
	Active    bool    `json:"active,omitempty"`
	Raster    string  `json:"raster"`
}

func (s *Server) layerView(l layer.Layer, index int) layerJSON {
	active, ok := s.app.Layers.Active()
	return layerJSON{
		ID:        l.ID,
		Name:      l.Name,
		Index:     index,
		Height:    l.Height,
		Thickness: l.Thickness,
		Active:    ok && active.ID == l.ID,
		Raster:    "/layers/" + l.ID + "/raster.png",
	}
}

func (s *Server) listLayers(w http.ResponseWriter, _ *http.Request) {
	layers := s.app.Layers.Layers()
	out := make([]layerJSON, len(layers))
	for i, l := range layers {
		out[i] = s.layerView(l, i)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createLayer(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Height    *float64 `json:"height"`
		Thickness *float64 `json:"thickness"`
		Name      string   `json:"name"`
	}{}
	if !s.decode(w, r, &req) {
		return
	}
	height := layer.DefaultLayerHeight
	if req.Height != nil {
		height = *req.Height
	}
	thickness := s.app.Config.Layers.Thickness
	if req.Thickness != nil {
		thickness = *req.Thickness
	}
	l, err := s.app.Layers.CreateLayer(height, thickness, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.layerView(l, s.app.Layers.Index(l.ID)))
}

func (s *Server) evenLayers(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Count     *int     `json:"count"`
		Thickness *float64 `json:"thickness"`
	}{}
	if !s.decode(w, r, &req) {
		return
	}
	count := s.app.Config.Layers.Count
	if req.Count != nil {
		count = *req.Count
	}
	thickness := s.app.Config.Layers.Thickness
	if req.Thickness != nil {
		thickness = *req.Thickness
	}
	layers, err := s.app.Layers.CreateEvenlySpacedLayers(count, thickness)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]layerJSON, len(layers))
	for i, l := range layers {
		out[i] = s.layerView(l, i)
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) removeAllLayers(w http.ResponseWriter, _ *http.Request) {
	s.app.Layers.RemoveAllLayers()
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves {id} or writes a 404
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (layer.Layer, bool) {
	id := chi.URLParam(r, "id")
	l, ok := s.app.Layers.Layer(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("layer %s not found", id), Code: "NOT_FOUND"})
	}
	return l, ok
}

func (s *Server) getLayer(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.layerView(l, s.app.Layers.Index(l.ID)))
}

func (s *Server) updateLayer(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	req := struct {
		Height    *float64 `json:"height"`
		Thickness *float64 `json:"thickness"`
		Name      *string  `json:"name"`
		Active    *bool    `json:"active"`
	}{}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.app.Layers.UpdateLayer(l.ID, req.Height, req.Thickness, req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Active != nil {
		if *req.Active {
			s.app.Layers.SetActive(l.ID)
		} else if a, ok := s.app.Layers.Active(); ok && a.ID == l.ID {
			s.app.Layers.SetActive("")
		}
	}
	l, _ = s.app.Layers.Layer(l.ID)
	writeJSON(w, http.StatusOK, s.layerView(l, s.app.Layers.Index(l.ID)))
}

func (s *Server) removeLayer(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.app.Layers.RemoveLayer(l.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) layerRaster(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(l.Raster)
}

func (s *Server) orderLayer(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	req := struct {
		Index int `json:"index"`
	}{}
	if !s.decode(w, r, &req) {
		return
	}
	s.app.Layers.SetLayerOrder(l.ID, req.Index)
	s.listLayers(w, r)
}

func (s *Server) shiftLayer(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	req := struct {
		Delta int `json:"delta"`
	}{}
	if !s.decode(w, r, &req) {
		return
	}
	s.app.Layers.ShiftLayerOrder(l.ID, req.Delta)
	s.listLayers(w, r)
}

func (s *Server) setSize(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}{}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.app.Layers.SetLayerSize(req.Width, req.Height); err != nil {
		s.writeError(w, err)
		return
	}
	width, height := s.app.Layers.Size()
	writeJSON(w, http.StatusOK, map[string]int{"width": width, "height": height})
}

// --- previews ---

func (s *Server) stackPNG(w http.ResponseWriter, r *http.Request) {
	img, err := s.app.StackPreview(stack.PreviewOptions{
		Scale:   queryInt(r, "scale", 4),
		Angle:   queryFloat(r, "angle", 0),
		Spacing: queryFloat(r, "spacing", 1),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writePNG(w, img)
}

func (s *Server) sheetPNG(w http.ResponseWriter, r *http.Request) {
	img, err := s.app.SpriteSheet(queryInt(r, "scale", 1), r.URL.Query().Get("labels") == "true")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writePNG(w, img)
}

// --- projects ---

func (s *Server) exportProject(w http.ResponseWriter, _ *http.Request) {
	f, err := s.app.ExportProject()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) importProject(w http.ResponseWriter, r *http.Request) {
	f, err := project.Decode(io.LimitReader(r.Body, maxUpload))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.app.ImportProject(f); err != nil {
		s.writeError(w, err)
		return
	}
	s.listLayers(w, r)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	names, err := s.app.ListProjects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) saveProject(w http.ResponseWriter, r *http.Request) {
	info, err := s.app.SaveProject(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) fetchProject(w http.ResponseWriter, r *http.Request) {
	key, err := project.Key(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	info, rc, err := s.app.Store.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/json")
	if info.ETag != "" {
		w.Header().Set("ETag", strconv.Quote(info.ETag))
	}
	io.Copy(w, rc)
}

func (s *Server) openProject(w http.ResponseWriter, r *http.Request) {
	if err := s.app.OpenProject(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	s.listLayers(w, r)
}

// --- helpers ---

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) (int, string) {
	switch {
	case layer.IsValidation(err):
		return http.StatusBadRequest, layer.Code(err)
	case errors.Is(err, layer.ErrNoModel):
		return http.StatusConflict, layer.CodeNoModel
	case errors.Is(err, layer.ErrDuplicateID):
		return http.StatusConflict, "DUPLICATE_ID"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrInvalidKey), errors.Is(err, project.ErrInvalidFile):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, modelio.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"
	case errors.Is(err, modelio.ErrNoGeometry):
		return http.StatusUnprocessableEntity, "NO_GEOMETRY"
	}
	return http.StatusInternalServerError, ""
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.app.Metrics.Error(code)
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// decode reads an optional JSON body; an empty body leaves v untouched
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "INVALID_REQUEST"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil {
		return def
	}
	return v
}
