package scene

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// TextMeasurer estimates the advance width of a text run in user units. The
// hosting viewer can supply its own implementation; the CLI uses the bundled
// font metrics. A false return means measurement is unavailable and the run
// is left unstamped.
type TextMeasurer interface {
	MeasureText(text string, fontWeight string, fontSize float64) (float64, bool)
}

// FontMeasurer measures text with the bundled Go fonts. Diagram text widths
// only need to be close enough for textLength stamping; exact host-font
// metrics are not required.
type FontMeasurer struct {
	mu      sync.Mutex
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size float64
}

// NewFontMeasurer parses the bundled fonts once.
func NewFontMeasurer() (*FontMeasurer, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bld, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{regular: reg, bold: bld, faces: map[faceKey]font.Face{}}, nil
}

// MeasureText implements TextMeasurer.
func (m *FontMeasurer) MeasureText(text string, fontWeight string, fontSize float64) (float64, bool) {
	if text == "" || fontSize <= 0 {
		return 0, false
	}
	face, err := m.face(isBoldWeight(fontWeight), fontSize)
	if err != nil {
		return 0, false
	}
	adv := font.MeasureString(face, text)
	return float64(adv) / 64.0, true
}

func (m *FontMeasurer) face(bold bool, size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := faceKey{bold: bold, size: size}
	if f, ok := m.faces[key]; ok {
		return f, nil
	}
	src := m.regular
	if bold {
		src = m.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[key] = f
	return f, nil
}

func isBoldWeight(w string) bool {
	w = strings.ToLower(strings.TrimSpace(w))
	if w == "bold" || w == "bolder" {
		return true
	}
	if n, err := strconv.Atoi(w); err == nil {
		return n >= 600
	}
	return false
}
