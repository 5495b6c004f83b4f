// Package analysis summarises model geometry for the info command.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/scene"
)

// EdgeInfo contains information about an edge in the model
type EdgeInfo struct {
	Start      geometry.Vector3
	End        geometry.Vector3
	Length     float64
	TriangleID int
}

// Result contains measurements of a model in world space
type Result struct {
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	Volume        float64
	SurfaceArea   float64
	TriangleCount int
	MeshCount     int
	MaterialCount int
	EdgeCount     int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
	AllEdges      []EdgeInfo
}

// AnalyzeScene measures every mesh under root with world transforms applied
func AnalyzeScene(root *scene.Node) *Result {
	result := AnalyzeTriangles(root.WorldTriangles())
	root.Traverse(func(n *scene.Node, _ geometry.Matrix4) {
		if n.Mesh != nil {
			result.MeshCount++
		}
	})
	result.MaterialCount = len(root.Materials())
	return result
}

// AnalyzeTriangles performs edge, area and bounds analysis on a triangle soup
func AnalyzeTriangles(triangles []geometry.Triangle) *Result {
	box := geometry.NewBoundingBox()
	result := &Result{
		TriangleCount: len(triangles),
		AllEdges:      make([]EdgeInfo, 0, len(triangles)*3),
	}

	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0

	for i, triangle := range triangles {
		result.SurfaceArea += triangle.Area()
		v := triangle.Vertices()
		for k := 0; k < 3; k++ {
			box.Extend(v[k])
			start, end := v[k], v[(k+1)%3]
			length := start.Distance(end)
			result.AllEdges = append(result.AllEdges, EdgeInfo{
				Start:      start,
				End:        end,
				Length:     length,
				TriangleID: i,
			})

			totalLength += length
			minLength = math.Min(minLength, length)
			maxLength = math.Max(maxLength, length)
		}
	}

	if len(triangles) > 0 {
		result.BoundingBox = box
		result.Dimensions = box.Size()
		result.Volume = box.Volume()
	}
	result.EdgeCount = len(result.AllEdges)
	if result.EdgeCount > 0 {
		result.MinEdgeLength = minLength
		result.MaxEdgeLength = maxLength
		result.AvgEdgeLength = totalLength / float64(result.EdgeCount)
	}
	return result
}

// HeightProfile counts triangles whose vertical extent touches each of n
// equal bands between the lowest and highest vertex. Band 0 is the bottom.
func HeightProfile(triangles []geometry.Triangle, n int) []int {
	if n <= 0 || len(triangles) == 0 {
		return nil
	}
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, t := range triangles {
		lo, hi := t.YRange()
		minY = math.Min(minY, lo)
		maxY = math.Max(maxY, hi)
	}
	bands := make([]int, n)
	span := maxY - minY
	band := func(y float64) int {
		if span <= 0 {
			return 0
		}
		return min(n-1, int((y-minY)/span*float64(n)))
	}
	for _, t := range triangles {
		lo, hi := t.YRange()
		for b := band(lo); b <= band(hi); b++ {
			bands[b]++
		}
	}
	return bands
}

// FindLongestEdges returns the N longest edges in the model
func FindLongestEdges(result *Result, count int) []EdgeInfo {
	edges := make([]EdgeInfo, len(result.AllEdges))
	copy(edges, result.AllEdges)

	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Length > edges[j].Length
	})

	if count > len(edges) {
		count = len(edges)
	}
	return edges[:count]
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
