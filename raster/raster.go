// Package raster converts a baked scene into a pixel buffer according to a
// render plan. Every raster-derived output format goes through here.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/inkframe/inkframe/api"
)

// Buffer is rendered pixel data plus the scale that was actually used, which
// may be lower than requested when the pixel budget forced a reduction.
type Buffer struct {
	Image *image.RGBA
	Scale float64
}

// Render decodes the baked scene and draws it at the planned output size:
// background fill first unless the plan is transparent, then the scene scaled
// onto the canvas. A scene that cannot be decoded fails with a decode error
// and no partial draw.
func Render(ctx context.Context, svg []byte, plan api.RenderPlan) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.NewExportError(api.FailureDecode, "rasterize", "", err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.StrictErrorMode)
	if err != nil {
		return nil, api.NewExportError(api.FailureDecode, "rasterize", "", fmt.Errorf("scene could not be decoded: %w", err))
	}

	w, h := plan.OutputW, plan.OutputH
	if w < 1 || h < 1 {
		return nil, api.NewExportError(api.FailureDecode, "rasterize", "", fmt.Errorf("plan has empty output size %dx%d", w, h))
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if !plan.Transparent {
		draw.Draw(rgba, rgba.Bounds(), image.NewUniform(ParseColor(plan.Background)), image.Point{}, draw.Src)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	return &Buffer{Image: rgba, Scale: plan.Scale}, nil
}

// Opaque returns the buffer composited onto the given matte color, for
// encodings without an alpha channel.
func (b *Buffer) Opaque(matte color.Color) *image.RGBA {
	out := image.NewRGBA(b.Image.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(matte), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), b.Image, b.Image.Bounds().Min, draw.Over)
	return out
}
