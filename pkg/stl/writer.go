package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/philipparndt/gosprack/pkg/geometry"
)

// WriteBinary encodes the model as a binary STL document
func WriteBinary(w io.Writer, model *Model) error {
	if len(model.Triangles) > math.MaxUint32 {
		return fmt.Errorf("too many triangles for binary STL: %d", len(model.Triangles))
	}

	bw := bufio.NewWriter(w)

	header := make([]byte, headerSize)
	copy(header, model.Name)
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(model.Triangles))); err != nil {
		return fmt.Errorf("failed to write triangle count: %w", err)
	}

	for i, triangle := range model.Triangles {
		record := facet{
			Normal: toFloat32(triangle.Normal),
			V1:     toFloat32(triangle.V1),
			V2:     toFloat32(triangle.V2),
			V3:     toFloat32(triangle.V3),
		}
		if err := binary.Write(bw, binary.LittleEndian, &record); err != nil {
			return fmt.Errorf("failed to write triangle %d: %w", i, err)
		}
	}

	return bw.Flush()
}

func toFloat32(v geometry.Vector3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
