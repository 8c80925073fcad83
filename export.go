package inkframe

import (
	"context"
	"fmt"
	"time"

	"github.com/flanksource/commons/logger"

	"github.com/inkframe/inkframe/api"
	"github.com/inkframe/inkframe/document"
	"github.com/inkframe/inkframe/encode"
	"github.com/inkframe/inkframe/notify"
	"github.com/inkframe/inkframe/raster"
	"github.com/inkframe/inkframe/scene"
)

// Request describes one export call.
type Request struct {
	// Scene is the live scene. It is only read; every transformation happens
	// on clones.
	Scene *scene.Scene

	// PreCloned is an optional already-detached copy supplied by an open
	// interactive viewer. Baking still operates on its own clone, so the
	// caller keeps ownership.
	PreCloned *scene.Scene

	Format api.Format
	Device api.DeviceClass

	// Title overrides the scene's own <title> for filename derivation.
	Title string

	// Clipboard requests the clipboard sink for formats that support it.
	Clipboard bool
}

// Exporter runs the export pipeline: bounds resolution, style baking, render
// planning, rasterization and format encoding. One Exporter may serve
// concurrent calls; each call owns its baked scene and buffer and
// configuration is never mutated.
type Exporter struct {
	cfg       Config
	notifier  notify.Notifier
	documents *document.Manager
	download  encode.DownloadSink
	clipboard encode.ClipboardSink
	measurer  scene.TextMeasurer
	now       func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithNotifier routes user-visible signals to n.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Exporter) { e.notifier = n }
}

// WithDownloadSink overrides the file download sink.
func WithDownloadSink(s encode.DownloadSink) Option {
	return func(e *Exporter) { e.download = s }
}

// WithClipboardSink overrides the clipboard sink.
func WithClipboardSink(s encode.ClipboardSink) Option {
	return func(e *Exporter) { e.clipboard = s }
}

// WithDocumentManager overrides the document capability manager.
func WithDocumentManager(m *document.Manager) Option {
	return func(e *Exporter) { e.documents = m }
}

// WithTextMeasurer overrides the text measurer used during baking.
func WithTextMeasurer(m scene.TextMeasurer) Option {
	return func(e *Exporter) { e.measurer = m }
}

// withClock pins time for tests.
func withClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New creates an Exporter over the given configuration.
func New(cfg Config, opts ...Option) *Exporter {
	cfg = cfg.withDefaults()
	e := &Exporter{
		cfg:      cfg,
		notifier: notify.Discard{},
		download: encode.FileSink{Dir: cfg.OutputDir},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.documents == nil {
		e.documents = document.NewManager(
			document.DefaultGenerators(cfg.EnableBrowserGenerator),
			document.WithTimeout(cfg.CapabilityTimeout.Duration()),
			document.WithPreferred(cfg.PreferredGenerator),
		)
	}
	if e.clipboard == nil {
		e.clipboard = encode.ToolClipboard{}
	}
	if e.measurer == nil {
		if m, err := scene.NewFontMeasurer(); err == nil {
			e.measurer = m
		} else {
			// missing measurement capability means text runs stay unstamped
			logger.Warnf("text measurement unavailable: %v", err)
		}
	}
	return e
}

// Documents exposes the document capability manager, e.g. for listing or
// cleanup.
func (e *Exporter) Documents() *document.Manager {
	return e.documents
}

// Export runs one export call end to end. It either delivers the artifact to
// its sink or returns a typed failure; partial artifacts are never surfaced.
func (e *Exporter) Export(ctx context.Context, req Request) (*api.Outcome, error) {
	e.notifier.Progress("processing export…")

	outcome, err := e.export(ctx, req)
	if err != nil {
		e.notifier.Failure(failureMessage(err))
		return nil, err
	}

	for _, w := range outcome.Warnings {
		e.notifier.Warning(w)
	}
	if outcome.Scale > 0 {
		e.notifier.Success(fmt.Sprintf("exported %s to %s at %.2fx", outcome.Filename, outcome.Sink, outcome.Scale))
	} else {
		e.notifier.Success(fmt.Sprintf("exported %s to %s", outcome.Filename, outcome.Sink))
	}
	return outcome, nil
}

func (e *Exporter) export(ctx context.Context, req Request) (*api.Outcome, error) {
	src := req.Scene
	if req.PreCloned != nil {
		src = req.PreCloned
	}
	if src == nil || !src.HasDrawableContent() {
		return nil, api.NewExportError(api.FailureNoContent, "validate", req.Format,
			fmt.Errorf("scene has no renderable content"))
	}
	if req.Format == "" {
		return nil, api.NewExportError(api.FailureEncode, "validate", req.Format, fmt.Errorf("no format requested"))
	}

	bounds := scene.ResolveBounds(src)
	logger.Debugf("resolved bounds %s", bounds)
	if !bounds.Valid() {
		return nil, api.NewExportError(api.FailureNoContent, "resolve-bounds", req.Format,
			fmt.Errorf("scene resolved to a zero-area box"))
	}

	plan := BuildPlan(bounds, req.Format, req.Device, e.cfg)
	var warnings []string
	if plan.BudgetClamped {
		msg := fmt.Sprintf("output exceeds the %d pixel budget, scale reduced to %.3f", e.cfg.PixelBudget, plan.Scale)
		logger.Warnf("%s", msg)
		warnings = append(warnings, msg)
	}

	baked := scene.Bake(src, bounds, scene.BakeOptions{
		InlineComputedStyle: true,
		Measurer:            e.measurer,
		Crop:                api.Bounds{X: plan.CropX, Y: plan.CropY, Width: plan.CropW, Height: plan.CropH},
	})

	var buffer *raster.Buffer
	if req.Format.RasterDerived() {
		var err error
		buffer, err = raster.Render(ctx, baked.Bytes(), plan)
		if err != nil {
			return nil, err
		}
	}

	dispatcher := &encode.Dispatcher{
		Download:    e.download,
		Clipboard:   e.clipboard,
		Documents:   e.documents,
		JPEGQuality: e.cfg.JPEGQuality,
	}
	title := req.Title
	if title == "" {
		title = src.Title()
	}
	outcome, err := dispatcher.Encode(ctx, encode.Request{
		Format:        req.Format,
		Plan:          plan,
		FilenameBase:  filenameBase(title, e.cfg.FallbackName, e.now()),
		WantClipboard: req.Clipboard,
	}, encode.Input{Baked: baked, Buffer: buffer})
	if err != nil {
		return nil, err
	}
	outcome.Warnings = append(warnings, outcome.Warnings...)
	return outcome, nil
}

// failureMessage renders a single human-readable line naming the failed
// stage.
func failureMessage(err error) string {
	return fmt.Sprintf("export failed: %v", err)
}
