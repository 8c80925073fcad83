// Package document provides the optional document-generation capability of
// the export pipeline. Generators are probed in priority order; when none is
// available the pipeline substitutes the opaque-raster encoding rather than
// failing.
package document

import (
	"context"
	"fmt"

	"github.com/inkframe/inkframe/api"
	"github.com/inkframe/inkframe/raster"
)

// Generator turns a baked scene (and its rasterization) into a print
// document.
type Generator interface {
	// Name returns the name of the generator.
	Name() string

	// IsAvailable checks whether the generator can run on this system.
	IsAvailable() bool

	// Generate produces the document bytes. Both the baked scene markup and
	// the rendered buffer are supplied; vector-capable generators use the
	// markup, embedders use the buffer.
	Generate(ctx context.Context, svg []byte, buf *raster.Buffer, plan api.RenderPlan) ([]byte, error)
}

// GeneratorError represents an error from a document generator.
type GeneratorError struct {
	Generator string
	Operation string
	Err       error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("%s generator %s failed: %v", e.Generator, e.Operation, e.Err)
}

func (e *GeneratorError) Unwrap() error {
	return e.Err
}

// NewGeneratorError creates a new generator error.
func NewGeneratorError(generator, operation string, err error) error {
	return &GeneratorError{Generator: generator, Operation: operation, Err: err}
}
