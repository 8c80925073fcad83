package document

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/inkframe/inkframe/api"
	"github.com/inkframe/inkframe/raster"
)

// execGenerator shells out to an external SVG-to-PDF tool. The concrete
// generators only differ in binary name and argument shape.
type execGenerator struct {
	name string
	args func(svgPath, outPath string) []string
}

// NewRSVGGenerator creates a generator backed by rsvg-convert.
func NewRSVGGenerator() Generator {
	return &execGenerator{
		name: "rsvg-convert",
		args: func(svgPath, outPath string) []string {
			return []string{"--format=pdf", "--output=" + outPath, svgPath}
		},
	}
}

// NewInkscapeGenerator creates a generator backed by Inkscape.
func NewInkscapeGenerator() Generator {
	return &execGenerator{
		name: "inkscape",
		args: func(svgPath, outPath string) []string {
			return []string{svgPath, "--export-type=pdf", "--export-filename=" + outPath}
		},
	}
}

func (g *execGenerator) Name() string {
	return g.name
}

// IsAvailable checks whether the binary is in PATH.
func (g *execGenerator) IsAvailable() bool {
	_, err := exec.LookPath(g.name)
	return err == nil
}

// Generate writes the baked scene to a temporary file, converts it with the
// external tool and reads the document back. The temporary directory is
// removed regardless of outcome so a failure leaves no partial state.
func (g *execGenerator) Generate(ctx context.Context, svg []byte, buf *raster.Buffer, plan api.RenderPlan) ([]byte, error) {
	if !g.IsAvailable() {
		return nil, NewGeneratorError(g.name, "generate", fmt.Errorf("%s not found in PATH", g.name))
	}

	dir, err := os.MkdirTemp("", "inkframe-doc-*")
	if err != nil {
		return nil, NewGeneratorError(g.name, "prepare", err)
	}
	defer os.RemoveAll(dir)

	svgPath := filepath.Join(dir, "scene.svg")
	outPath := filepath.Join(dir, "scene.pdf")
	if err := os.WriteFile(svgPath, svg, 0o600); err != nil {
		return nil, NewGeneratorError(g.name, "prepare", err)
	}

	cmd := exec.CommandContext(ctx, g.name, g.args(svgPath, outPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, NewGeneratorError(g.name, "convert", fmt.Errorf("command failed: %w, output: %s", err, string(output)))
	}

	pdf, err := os.ReadFile(outPath)
	if err != nil {
		return nil, NewGeneratorError(g.name, "read output", err)
	}
	return pdf, nil
}
