package encode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkframe/inkframe/api"
	"github.com/inkframe/inkframe/document"
	"github.com/inkframe/inkframe/raster"
	"github.com/inkframe/inkframe/scene"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

// memorySink captures delivered artifacts.
type memorySink struct {
	artifacts []api.Artifact
	fail      error
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) Deliver(ctx context.Context, artifact api.Artifact) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	s.artifacts = append(s.artifacts, artifact)
	return "memory/" + artifact.Filename, nil
}

// memoryClipboard captures clipboard writes.
type memoryClipboard struct {
	available bool
	fail      error
	artifacts []api.Artifact
}

func (c *memoryClipboard) Name() string    { return "clipboard" }
func (c *memoryClipboard) Available() bool { return c.available }

func (c *memoryClipboard) Write(ctx context.Context, artifact api.Artifact) error {
	if c.fail != nil {
		return c.fail
	}
	c.artifacts = append(c.artifacts, artifact)
	return nil
}

// fixedGenerator returns canned document bytes.
type fixedGenerator struct {
	output []byte
	err    error
}

func (g *fixedGenerator) Name() string      { return "fixed" }
func (g *fixedGenerator) IsAvailable() bool { return true }

func (g *fixedGenerator) Generate(ctx context.Context, svg []byte, buf *raster.Buffer, plan api.RenderPlan) ([]byte, error) {
	return g.output, g.err
}

func testBaked(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg" width="100%" height="100%" viewBox="-20 -15 440 330"><rect x="0" y="0" width="400" height="300" fill="#eef2ff"/></svg>`))
	require.NoError(t, err)
	return s
}

func testBuffer() *raster.Buffer {
	img := image.NewRGBA(image.Rect(0, 0, 44, 33))
	for y := 0; y < 33; y++ {
		for x := 0; x < 44; x++ {
			img.SetRGBA(x, y, color.RGBA{0x00, 0x00, 0xff, 0xff})
		}
	}
	return &raster.Buffer{Image: img, Scale: 3}
}

func testPlan() api.RenderPlan {
	return api.RenderPlan{
		CropX: -20, CropY: -15, CropW: 440, CropH: 330,
		OutputW: 44, OutputH: 33,
		Scale:      3,
		Background: "#ffffff",
	}
}

func newDispatcher(sink *memorySink, clip *memoryClipboard) *Dispatcher {
	return &Dispatcher{Download: sink, Clipboard: clip}
}

func TestEncode_Vector(t *testing.T) {
	sink := &memorySink{}
	d := newDispatcher(sink, nil)

	outcome, err := d.Encode(context.Background(), Request{
		Format:       api.FormatVector,
		Plan:         testPlan(),
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t)})
	require.NoError(t, err)

	assert.Equal(t, "flow.svg", outcome.Filename)
	assert.Equal(t, "memory", outcome.Sink)
	assert.Zero(t, outcome.Scale)
	require.Len(t, sink.artifacts, 1)

	reparsed, err := scene.ParseBytes(sink.artifacts[0].Bytes)
	require.NoError(t, err)
	assert.Equal(t, "-20 -15 440 330", reparsed.Root.Attr("viewBox"))

	// background rect sits first, sized to the crop
	require.NotEmpty(t, reparsed.Root.Children)
	bg := reparsed.Root.Children[0]
	assert.Equal(t, "rect", bg.Tag)
	assert.Equal(t, "#ffffff", bg.Attr("fill"))
	assert.Equal(t, "-20", bg.Attr("x"))
	assert.Equal(t, "440", bg.Attr("width"))
}

func TestEncode_VectorTransparentHasNoBackgroundRect(t *testing.T) {
	sink := &memorySink{}
	d := newDispatcher(sink, nil)

	plan := testPlan()
	plan.Transparent = true
	plan.Background = ""

	baked := testBaked(t)
	before := baked.Root.CountNodes()

	_, err := d.Encode(context.Background(), Request{Format: api.FormatVector, Plan: plan, FilenameBase: "flow"}, Input{Baked: baked})
	require.NoError(t, err)
	assert.Equal(t, before, baked.Root.CountNodes())
}

func TestEncode_RasterDownload(t *testing.T) {
	sink := &memorySink{}
	d := newDispatcher(sink, nil)

	outcome, err := d.Encode(context.Background(), Request{
		Format:       api.FormatRaster,
		Plan:         testPlan(),
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.NoError(t, err)

	assert.Equal(t, "flow.png", outcome.Filename)
	assert.Equal(t, 3.0, outcome.Scale)
	require.Len(t, sink.artifacts, 1)
	assert.Equal(t, pngMagic, sink.artifacts[0].Bytes[:4])
	assert.Empty(t, outcome.Warnings)
}

func TestEncode_RasterToClipboard(t *testing.T) {
	sink := &memorySink{}
	clip := &memoryClipboard{available: true}
	d := newDispatcher(sink, clip)

	outcome, err := d.Encode(context.Background(), Request{
		Format:        api.FormatRaster,
		Plan:          testPlan(),
		FilenameBase:  "flow",
		WantClipboard: true,
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.NoError(t, err)

	assert.Equal(t, "clipboard", outcome.Sink)
	assert.Empty(t, sink.artifacts)
	require.Len(t, clip.artifacts, 1)
	assert.Equal(t, pngMagic, clip.artifacts[0].Bytes[:4])
	assert.Equal(t, "image/png", clip.artifacts[0].MIME)
}

func TestEncode_ClipboardFormatUsesClipboard(t *testing.T) {
	sink := &memorySink{}
	clip := &memoryClipboard{available: true}
	d := newDispatcher(sink, clip)

	outcome, err := d.Encode(context.Background(), Request{
		Format:       api.FormatClipboard,
		Plan:         testPlan(),
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.NoError(t, err)
	assert.Equal(t, "clipboard", outcome.Sink)
}

func TestEncode_ClipboardUnavailableFallsBackToDownload(t *testing.T) {
	sink := &memorySink{}
	clip := &memoryClipboard{available: false}
	d := newDispatcher(sink, clip)

	outcome, err := d.Encode(context.Background(), Request{
		Format:        api.FormatRaster,
		Plan:          testPlan(),
		FilenameBase:  "flow",
		WantClipboard: true,
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.NoError(t, err)

	assert.Equal(t, "memory", outcome.Sink)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "clipboard unavailable")
	require.Len(t, sink.artifacts, 1)
}

func TestEncode_ClipboardWriteFailureIsSinkFailure(t *testing.T) {
	sink := &memorySink{}
	clip := &memoryClipboard{available: true, fail: errors.New("denied")}
	d := newDispatcher(sink, clip)

	_, err := d.Encode(context.Background(), Request{
		Format:        api.FormatRaster,
		Plan:          testPlan(),
		FilenameBase:  "flow",
		WantClipboard: true,
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.Error(t, err)
	assert.True(t, api.IsFailure(err, api.FailureSink))
	assert.Empty(t, sink.artifacts)
}

func TestEncode_Compressed(t *testing.T) {
	sink := &memorySink{}
	d := newDispatcher(sink, nil)

	outcome, err := d.Encode(context.Background(), Request{
		Format:       api.FormatCompressed,
		Plan:         testPlan(),
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.NoError(t, err)

	assert.Equal(t, "flow.jpg", outcome.Filename)
	require.Len(t, sink.artifacts, 1)
	assert.Equal(t, []byte{0xFF, 0xD8}, sink.artifacts[0].Bytes[:2])
	assert.Equal(t, "image/jpeg", sink.artifacts[0].MIME)
}

func TestEncode_CompressedNeverGoesToClipboard(t *testing.T) {
	sink := &memorySink{}
	clip := &memoryClipboard{available: true}
	d := newDispatcher(sink, clip)

	outcome, err := d.Encode(context.Background(), Request{
		Format:        api.FormatCompressed,
		Plan:          testPlan(),
		FilenameBase:  "flow",
		WantClipboard: true,
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.NoError(t, err)

	assert.Equal(t, "memory", outcome.Sink)
	assert.Empty(t, clip.artifacts)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "lossy")
}

func TestEncode_CompressedTransparentMattesOntoWhite(t *testing.T) {
	sink := &memorySink{}
	d := newDispatcher(sink, nil)

	plan := testPlan()
	plan.Transparent = true
	plan.Background = ""

	// fully transparent buffer
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	buf := &raster.Buffer{Image: img, Scale: 1}

	_, err := d.Encode(context.Background(), Request{
		Format:       api.FormatCompressedTransparent,
		Plan:         plan,
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t), Buffer: buf})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(sink.artifacts[0].Bytes))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(4, 4).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestEncode_DocumentWithGenerator(t *testing.T) {
	sink := &memorySink{}
	d := newDispatcher(sink, nil)
	d.Documents = document.NewManager([]document.Generator{
		&fixedGenerator{output: []byte("%PDF-1.7 fake")},
	})

	outcome, err := d.Encode(context.Background(), Request{
		Format:       api.FormatDocument,
		Plan:         testPlan(),
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.NoError(t, err)

	assert.Equal(t, "flow.pdf", outcome.Filename)
	require.Len(t, sink.artifacts, 1)
	assert.Equal(t, []byte("%PDF-1.7 fake"), sink.artifacts[0].Bytes)
	assert.Equal(t, "application/pdf", sink.artifacts[0].MIME)
}

func TestEncode_DocumentCapabilityUnavailableFallsBackToRaster(t *testing.T) {
	sink := &memorySink{}
	d := newDispatcher(sink, nil)
	d.Documents = document.NewManager(nil, document.WithTimeout(time.Second))

	outcome, err := d.Encode(context.Background(), Request{
		Format:       api.FormatDocument,
		Plan:         testPlan(),
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.NoError(t, err)

	// reported as a successful export of the requested format
	assert.Equal(t, api.FormatDocument, outcome.Format)
	assert.Equal(t, "flow.pdf", outcome.Filename)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "raster content delivered")

	// but the payload is the lossless raster encoding
	require.Len(t, sink.artifacts, 1)
	assert.Equal(t, pngMagic, sink.artifacts[0].Bytes[:4])
	assert.Equal(t, "image/png", sink.artifacts[0].MIME)
}

func TestEncode_DocumentGeneratorErrorIsEncodeFailure(t *testing.T) {
	sink := &memorySink{}
	d := newDispatcher(sink, nil)
	d.Documents = document.NewManager([]document.Generator{
		&fixedGenerator{err: errors.New("conversion crashed")},
	})

	_, err := d.Encode(context.Background(), Request{
		Format:       api.FormatDocument,
		Plan:         testPlan(),
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.Error(t, err)
	assert.True(t, api.IsFailure(err, api.FailureEncode))
	assert.Empty(t, sink.artifacts)
}

func TestEncode_DownloadFailureIsSinkFailure(t *testing.T) {
	sink := &memorySink{fail: errors.New("disk full")}
	d := newDispatcher(sink, nil)

	_, err := d.Encode(context.Background(), Request{
		Format:       api.FormatRaster,
		Plan:         testPlan(),
		FilenameBase: "flow",
	}, Input{Baked: testBaked(t), Buffer: testBuffer()})
	require.Error(t, err)
	assert.True(t, api.IsFailure(err, api.FailureSink))
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	d := newDispatcher(&memorySink{}, nil)

	_, err := d.Encode(context.Background(), Request{Format: "gif", FilenameBase: "flow"}, Input{Baked: testBaked(t)})
	require.Error(t, err)
	assert.True(t, api.IsFailure(err, api.FailureEncode))
}
