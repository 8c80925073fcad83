package api

import (
	"fmt"
	"strings"
)

// Format identifies an export output kind.
type Format string

const (
	FormatVector                Format = "vector"
	FormatRaster                Format = "raster"
	FormatRasterTransparent     Format = "raster-transparent"
	FormatCompressed            Format = "compressed-raster"
	FormatCompressedTransparent Format = "compressed-raster-transparent"
	FormatDocument              Format = "document"
	FormatClipboard             Format = "clipboard"
)

// ParseFormat converts a string token to a Format, accepting common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vector", "svg":
		return FormatVector, nil
	case "raster", "png":
		return FormatRaster, nil
	case "raster-transparent", "png-transparent":
		return FormatRasterTransparent, nil
	case "compressed-raster", "jpg", "jpeg":
		return FormatCompressed, nil
	case "compressed-raster-transparent", "jpg-transparent", "jpeg-transparent":
		return FormatCompressedTransparent, nil
	case "document", "pdf":
		return FormatDocument, nil
	case "clipboard", "clip":
		return FormatClipboard, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// AllFormats returns every supported format token.
func AllFormats() []Format {
	return []Format{
		FormatVector,
		FormatRaster,
		FormatRasterTransparent,
		FormatCompressed,
		FormatCompressedTransparent,
		FormatDocument,
		FormatClipboard,
	}
}

// Extension returns the file extension (without dot) for artifacts of this format.
func (f Format) Extension() string {
	switch f {
	case FormatVector:
		return "svg"
	case FormatCompressed, FormatCompressedTransparent:
		return "jpg"
	case FormatDocument:
		return "pdf"
	default:
		return "png"
	}
}

// MIME returns the media type of artifacts of this format.
func (f Format) MIME() string {
	switch f {
	case FormatVector:
		return "image/svg+xml"
	case FormatCompressed, FormatCompressedTransparent:
		return "image/jpeg"
	case FormatDocument:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Transparent reports whether the format omits the theme background fill.
func (f Format) Transparent() bool {
	return f == FormatRasterTransparent || f == FormatCompressedTransparent
}

// RasterDerived reports whether producing this format requires a rasterization pass.
// Only the vector format is encoded straight from the baked scene.
func (f Format) RasterDerived() bool {
	return f != FormatVector
}

// SupportsClipboard reports whether the format may be delivered to the system
// clipboard. The restriction to lossless raster payloads is deliberate; lossy
// encodings always fall back to a file download.
func (f Format) SupportsClipboard() bool {
	switch f {
	case FormatRaster, FormatRasterTransparent, FormatClipboard:
		return true
	default:
		return false
	}
}

// DeviceClass selects the requested render scale. It is resolved once per
// export call from viewport/input signals supplied by the caller.
type DeviceClass string

const (
	DeviceStandard DeviceClass = "standard"
	DeviceCompact  DeviceClass = "compact"
)

// Theme is the resolved theme triple consumed as opaque input. Colors are CSS
// color strings as found in SVG attributes.
type Theme struct {
	Background string `yaml:"background" json:"background"`
	TextColor  string `yaml:"text_color" json:"text_color"`
	Dark       bool   `yaml:"dark" json:"dark"`
}

// BoundsSource records which fallback tier produced a Bounds value.
type BoundsSource string

const (
	BoundsContent  BoundsSource = "content"
	BoundsViewport BoundsSource = "declaredViewport"
	BoundsRendered BoundsSource = "renderedRect"
)

// Bounds is the resolved bounding box of a scene in user units.
type Bounds struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Source BoundsSource
}

// Valid reports whether the box has positive area.
func (b Bounds) Valid() bool {
	return b.Width > 0 && b.Height > 0
}

func (b Bounds) String() string {
	return fmt.Sprintf("%.2f %.2f %.2f %.2f (%s)", b.X, b.Y, b.Width, b.Height, b.Source)
}

// RenderPlan is the concrete numeric plan for one export: the padded crop
// rectangle in scene units, the output pixel dimensions, the scale that maps
// one to the other, and the background fill.
type RenderPlan struct {
	CropX float64
	CropY float64
	CropW float64
	CropH float64

	OutputW int
	OutputH int
	Scale   float64

	// Background is a CSS color string; empty when Transparent.
	Background  string
	Transparent bool

	// BudgetClamped is set when the pixel budget forced Scale below the
	// requested device scale.
	BudgetClamped bool
}

// Artifact is a finished export payload ready for a sink.
type Artifact struct {
	Bytes    []byte
	Filename string
	MIME     string
}

// Outcome describes a completed export: where the artifact went and at what
// scale it was actually rendered.
type Outcome struct {
	Format   Format
	Filename string
	Sink     string
	Scale    float64
	Size     int
	Warnings []string
}
