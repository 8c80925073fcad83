// Package encode turns a baked scene or rendered buffer into a final
// artifact and delivers it to its sink, with per-format fallback behavior.
package encode

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"

	"github.com/flanksource/commons/logger"

	"github.com/inkframe/inkframe/api"
	"github.com/inkframe/inkframe/document"
	"github.com/inkframe/inkframe/raster"
	"github.com/inkframe/inkframe/scene"
)

// DefaultJPEGQuality is the fixed high-quality setting for the compressed
// raster format.
const DefaultJPEGQuality = 90

// Input carries the two possible encoder inputs. Baked is always set; Buffer
// is set for raster-derived formats.
type Input struct {
	Baked  *scene.Scene
	Buffer *raster.Buffer
}

// Request describes one encoding job.
type Request struct {
	Format        api.Format
	Plan          api.RenderPlan
	FilenameBase  string
	WantClipboard bool
}

// Dispatcher routes encoding jobs to the per-format encoders and sinks.
type Dispatcher struct {
	Download    DownloadSink
	Clipboard   ClipboardSink
	Documents   *document.Manager
	JPEGQuality int
}

// Encode produces and delivers the artifact for one export. Failures are
// always typed; no partial file or clipboard state survives a failure.
func (d *Dispatcher) Encode(ctx context.Context, req Request, in Input) (*api.Outcome, error) {
	switch req.Format {
	case api.FormatVector:
		return d.encodeVector(ctx, req, in)
	case api.FormatRaster, api.FormatRasterTransparent, api.FormatClipboard:
		return d.encodeRaster(ctx, req, in)
	case api.FormatCompressed, api.FormatCompressedTransparent:
		return d.encodeCompressed(ctx, req, in)
	case api.FormatDocument:
		return d.encodeDocument(ctx, req, in)
	default:
		return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, fmt.Errorf("unsupported format"))
	}
}

// encodeVector serializes the baked scene with a background rectangle sized
// to the plan's crop inserted behind the content.
func (d *Dispatcher) encodeVector(ctx context.Context, req Request, in Input) (*api.Outcome, error) {
	if in.Baked == nil || in.Baked.Root == nil {
		return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, fmt.Errorf("no baked scene"))
	}
	InsertBackgroundRect(in.Baked, req.Plan)

	artifact := api.Artifact{
		Bytes:    in.Baked.Bytes(),
		Filename: req.FilenameBase + "." + req.Format.Extension(),
		MIME:     req.Format.MIME(),
	}
	return d.download(ctx, req, artifact, nil)
}

// InsertBackgroundRect prepends a rectangle covering the plan's crop to the
// scene so the vector artifact never renders on an undefined background.
func InsertBackgroundRect(s *scene.Scene, plan api.RenderPlan) {
	if plan.Transparent || plan.Background == "" {
		return
	}
	rect := &scene.Node{Tag: "rect"}
	rect.SetAttr("x", fmt.Sprintf("%g", plan.CropX))
	rect.SetAttr("y", fmt.Sprintf("%g", plan.CropY))
	rect.SetAttr("width", fmt.Sprintf("%g", plan.CropW))
	rect.SetAttr("height", fmt.Sprintf("%g", plan.CropH))
	rect.SetAttr("fill", plan.Background)
	s.Root.Children = append([]*scene.Node{rect}, s.Root.Children...)
}

func (d *Dispatcher) encodeRaster(ctx context.Context, req Request, in Input) (*api.Outcome, error) {
	if in.Buffer == nil {
		return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, fmt.Errorf("no rendered buffer"))
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, in.Buffer.Image); err != nil {
		return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, err)
	}
	artifact := api.Artifact{
		Bytes:    buf.Bytes(),
		Filename: req.FilenameBase + "." + req.Format.Extension(),
		MIME:     "image/png",
	}

	wantsClipboard := req.WantClipboard || req.Format == api.FormatClipboard
	if wantsClipboard && d.Clipboard != nil && d.Clipboard.Available() {
		if err := d.Clipboard.Write(ctx, artifact); err != nil {
			return nil, api.NewExportError(api.FailureSink, "clipboard", req.Format, err)
		}
		return d.outcome(req, artifact, d.Clipboard.Name(), nil), nil
	}

	var warnings []string
	if wantsClipboard {
		warnings = append(warnings, "clipboard unavailable, falling back to download")
	}
	return d.download(ctx, req, artifact, warnings)
}

func (d *Dispatcher) encodeCompressed(ctx context.Context, req Request, in Input) (*api.Outcome, error) {
	if in.Buffer == nil {
		return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, fmt.Errorf("no rendered buffer"))
	}

	img := in.Buffer.Image
	if req.Plan.Transparent {
		// the compressed encoding has no alpha channel; matte onto white
		img = in.Buffer.Opaque(raster.ParseColor("white"))
	}

	quality := d.JPEGQuality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, err)
	}
	artifact := api.Artifact{
		Bytes:    buf.Bytes(),
		Filename: req.FilenameBase + "." + req.Format.Extension(),
		MIME:     req.Format.MIME(),
	}

	// The clipboard path is unsupported for lossy encodings and always falls
	// back to download.
	var warnings []string
	if req.WantClipboard {
		warnings = append(warnings, "clipboard does not accept lossy encodings, falling back to download")
	}
	return d.download(ctx, req, artifact, warnings)
}

// encodeDocument tries the document-generation capability and transparently
// substitutes the opaque-raster encoding under the document extension when
// the capability is unavailable. Callers never see the missing capability as
// an error.
func (d *Dispatcher) encodeDocument(ctx context.Context, req Request, in Input) (*api.Outcome, error) {
	if in.Buffer == nil || in.Baked == nil {
		return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, fmt.Errorf("document encoding needs both baked scene and buffer"))
	}

	var gen document.Generator
	if d.Documents != nil {
		var err error
		gen, err = d.Documents.Acquire(ctx)
		if err != nil {
			logger.Warnf("document capability unavailable, substituting raster: %v", err)
			gen = nil
		}
	}

	if gen == nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, in.Buffer.Image); err != nil {
			return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, err)
		}
		artifact := api.Artifact{
			Bytes:    buf.Bytes(),
			Filename: req.FilenameBase + "." + req.Format.Extension(),
			MIME:     "image/png",
		}
		return d.download(ctx, req, artifact, []string{"document generator unavailable, raster content delivered"})
	}

	pdf, err := gen.Generate(ctx, in.Baked.Bytes(), in.Buffer, req.Plan)
	if err != nil {
		return nil, api.NewExportError(api.FailureEncode, "encode", req.Format, err)
	}
	artifact := api.Artifact{
		Bytes:    pdf,
		Filename: req.FilenameBase + "." + req.Format.Extension(),
		MIME:     req.Format.MIME(),
	}
	return d.download(ctx, req, artifact, nil)
}

func (d *Dispatcher) download(ctx context.Context, req Request, artifact api.Artifact, warnings []string) (*api.Outcome, error) {
	if d.Download == nil {
		return nil, api.NewExportError(api.FailureSink, "download", req.Format, fmt.Errorf("no download sink configured"))
	}
	dest, err := d.Download.Deliver(ctx, artifact)
	if err != nil {
		return nil, api.NewExportError(api.FailureSink, "download", req.Format, err)
	}
	logger.Debugf("artifact delivered to %s (%d bytes)", dest, len(artifact.Bytes))
	return d.outcome(req, artifact, d.Download.Name(), warnings), nil
}

func (d *Dispatcher) outcome(req Request, artifact api.Artifact, sink string, warnings []string) *api.Outcome {
	// achieved scale only applies to raster-derived outcomes
	scale := req.Plan.Scale
	if !req.Format.RasterDerived() {
		scale = 0
	}
	return &api.Outcome{
		Format:   req.Format,
		Filename: artifact.Filename,
		Sink:     sink,
		Scale:    scale,
		Size:     len(artifact.Bytes),
		Warnings: warnings,
	}
}
