package document

import (
	"bytes"
	"context"
	"errors"
	"image/png"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	marotoimages "github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/inkframe/inkframe/api"
	"github.com/inkframe/inkframe/raster"
)

// A4 content box in mm with the builder's margins applied.
const (
	a4ContentWidth  = 190.0
	a4ContentHeight = 277.0
)

// MarotoGenerator is the built-in document generator: it embeds the rendered
// buffer into a single PDF page. It has no external requirements, so it sits
// last in the probe chain as the capability of last resort.
type MarotoGenerator struct{}

// NewMarotoGenerator creates the built-in page embedder.
func NewMarotoGenerator() *MarotoGenerator {
	return &MarotoGenerator{}
}

// Name returns the name of this generator.
func (g *MarotoGenerator) Name() string {
	return "maroto"
}

// IsAvailable always succeeds; the embedder is compiled in.
func (g *MarotoGenerator) IsAvailable() bool {
	return true
}

// Generate embeds the rendered buffer into a PDF page oriented to fit the
// diagram's aspect ratio.
func (g *MarotoGenerator) Generate(ctx context.Context, svg []byte, buf *raster.Buffer, plan api.RenderPlan) ([]byte, error) {
	if buf == nil || buf.Image == nil {
		return nil, NewGeneratorError(g.Name(), "generate", errors.New("no rendered buffer supplied"))
	}
	if err := ctx.Err(); err != nil {
		return nil, NewGeneratorError(g.Name(), "generate", err)
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, buf.Image); err != nil {
		return nil, NewGeneratorError(g.Name(), "encode image", err)
	}

	bounds := buf.Image.Bounds()
	aspect := float64(bounds.Dy()) / float64(bounds.Dx())

	pageOrientation := orientation.Vertical
	contentW, contentH := a4ContentWidth, a4ContentHeight
	if aspect < 1 {
		pageOrientation = orientation.Horizontal
		contentW, contentH = a4ContentHeight, a4ContentWidth
	}

	rowHeight := contentW * aspect
	if rowHeight > contentH {
		rowHeight = contentH
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(pageOrientation).
		WithLeftMargin(10).
		WithRightMargin(10).
		WithTopMargin(10).
		WithBottomMargin(10).
		Build()

	m := maroto.New(cfg)
	imageCol := col.New(12).Add(marotoimages.NewFromBytes(pngBuf.Bytes(), extension.Png, imageCenterProps()))
	m.AddRow(rowHeight, imageCol)

	doc, err := m.Generate()
	if err != nil {
		return nil, NewGeneratorError(g.Name(), "generate", err)
	}
	return doc.GetBytes(), nil
}

func imageCenterProps() props.Rect {
	return props.Rect{Center: true, Percent: 100}
}
