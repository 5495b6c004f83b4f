package layer

import (
	"errors"
	"fmt"
	"math"

	"github.com/philipparndt/gosprack/internal/model"
)

var (
	ErrInvalidHeight    = errors.New("layer height must be a percentage between 0 and 100")
	ErrInvalidThickness = errors.New("layer thickness must be a percentage between 1 and 100")
	ErrInvalidCount     = errors.New("layer count must not be negative")
	ErrInvalidSize      = errors.New("layer size must be positive")
	ErrNoModel          = model.ErrNoModel
)

// Stable error codes for API consumers
const (
	CodeInvalidHeight    = "INVALID_HEIGHT"
	CodeInvalidThickness = "INVALID_THICKNESS"
	CodeInvalidCount     = "INVALID_COUNT"
	CodeInvalidSize      = "INVALID_SIZE"
	CodeNoModel          = "NO_MODEL"
)

// Code maps an error to its stable code, or "" for errors without one
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidHeight):
		return CodeInvalidHeight
	case errors.Is(err, ErrInvalidThickness):
		return CodeInvalidThickness
	case errors.Is(err, ErrInvalidCount):
		return CodeInvalidCount
	case errors.Is(err, ErrInvalidSize):
		return CodeInvalidSize
	case errors.Is(err, ErrNoModel):
		return CodeNoModel
	}
	return ""
}

// IsValidation reports whether err is a parameter validation failure
func IsValidation(err error) bool {
	switch Code(err) {
	case CodeInvalidHeight, CodeInvalidThickness, CodeInvalidCount, CodeInvalidSize:
		return true
	}
	return false
}

func validateSize(width, height, limit int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	if width > limit || height > limit {
		return fmt.Errorf("%w: %dx%d exceeds the limit of %d", ErrInvalidSize, width, height, limit)
	}
	return nil
}

func validateHeight(percent float64) error {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return ErrInvalidHeight
	}
	return nil
}

func validateThickness(percent float64) error {
	if math.IsNaN(percent) || percent < 1 || percent > 100 {
		return ErrInvalidThickness
	}
	return nil
}
