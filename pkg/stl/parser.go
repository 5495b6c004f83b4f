package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/gosprack/pkg/geometry"
)

const (
	headerSize = 80
	facetSize  = 50
)

// ErrEmpty is returned for zero-length input
var ErrEmpty = errors.New("empty STL document")

// facet is the fixed-size binary record
type facet struct {
	Normal     [3]float32
	V1, V2, V3 [3]float32
	Attributes uint16
}

// Parse reads an STL file in either encoding
func Parse(filename string) (*Model, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes an in-memory STL document, detecting the encoding
func ParseBytes(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if IsASCII(data) {
		return parseASCII(bytes.NewReader(data))
	}
	return parseBinary(bytes.NewReader(data))
}

// IsASCII reports whether data looks like an ASCII STL document.
// Some exporters write binary files whose header starts with "solid", so a
// header that matches the binary size formula is treated as binary.
func IsASCII(data []byte) bool {
	if !bytes.HasPrefix(data, []byte("solid")) {
		return false
	}
	if len(data) >= headerSize+4 {
		count := binary.LittleEndian.Uint32(data[headerSize:])
		if int64(len(data)) == headerSize+4+int64(count)*facetSize {
			return false
		}
	}
	return true
}

func parseASCII(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	model := NewModel("")

	var (
		normal   geometry.Vector3
		corners  []geometry.Vector3
		inFacet  bool
		lineNo   int
		parseErr = func(what string, err error) error {
			if err != nil {
				return fmt.Errorf("malformed %s on line %d: %w", what, lineNo, err)
			}
			return fmt.Errorf("malformed %s on line %d", what, lineNo)
		}
	)

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			model.Name = strings.Join(fields[1:], " ")

		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return nil, parseErr("facet", nil)
			}
			n, err := parseVector(fields[2:])
			if err != nil {
				return nil, parseErr("facet normal", err)
			}
			normal, corners, inFacet = n, corners[:0], true

		case "vertex":
			if !inFacet || len(fields) != 4 {
				return nil, parseErr("vertex", nil)
			}
			v, err := parseVector(fields[1:])
			if err != nil {
				return nil, parseErr("vertex", err)
			}
			corners = append(corners, v)

		case "endfacet":
			if len(corners) != 3 {
				return nil, parseErr("facet", fmt.Errorf("expected 3 vertices, got %d", len(corners)))
			}
			model.AddTriangle(geometry.NewTriangle(normal, corners[0], corners[1], corners[2]))
			inFacet = false
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	return model, nil
}

func parseBinary(r io.Reader) (*Model, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read triangle count: %w", err)
	}

	model := NewModel(strings.TrimSpace(string(bytes.TrimRight(header, "\x00"))))
	model.Binary = true

	var f facet
	for i := range count {
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d of %d: %w", i, count, err)
		}
		model.AddTriangle(geometry.NewTriangle(vec(f.Normal), vec(f.V1), vec(f.V2), vec(f.V3)))
	}
	return model, nil
}

func vec(c [3]float32) geometry.Vector3 {
	return geometry.NewVector3(float64(c[0]), float64(c[1]), float64(c[2]))
}

// parseVector parses three float fields
func parseVector(fields []string) (geometry.Vector3, error) {
	var c [3]float64
	for i, f := range fields[:3] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Vector3{}, err
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}
