package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/philipparndt/gosprack/pkg/render"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe(render.Stats{Duration: 2 * time.Millisecond, Triangles: 12, Fragments: 40})
	m.Observe(render.Stats{Duration: time.Millisecond, Triangles: 3, Fragments: 2})

	if v := testutil.ToFloat64(m.passes); v != 2 {
		t.Errorf("Passes failed: expected 2, got %v", v)
	}
	if v := testutil.ToFloat64(m.triangles); v != 15 {
		t.Errorf("Triangles failed: expected 15, got %v", v)
	}
	if v := testutil.ToFloat64(m.fragments); v != 42 {
		t.Errorf("Fragments failed: expected 42, got %v", v)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.ModelLoaded("stl")
	m.ModelLoaded("stl")
	m.Error("INVALID_HEIGHT")
	m.Error("")

	if v := testutil.ToFloat64(m.modelLoads.WithLabelValues("stl")); v != 2 {
		t.Errorf("Model loads failed: expected 2, got %v", v)
	}
	if v := testutil.ToFloat64(m.errors.WithLabelValues("INTERNAL")); v != 1 {
		t.Errorf("Errors failed: expected 1, got %v", v)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	n := 3
	m.RegisterLayerCount(func() int { return n })
	m.Observe(render.Stats{Duration: time.Millisecond})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{"gosprack_layers 3", "gosprack_render_passes_total 1", "gosprack_render_duration_seconds_count 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("Handler failed: missing %q", want)
		}
	}
}
