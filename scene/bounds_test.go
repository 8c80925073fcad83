package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkframe/inkframe/api"
)

func TestResolveBounds_MeasuresInk(t *testing.T) {
	// A rect drawn well inside a larger viewport; the resolver should find
	// the ink, not the viewport.
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200">
    <rect x="40" y="60" width="80" height="50" fill="red"/>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsContent, b.Source)
	assert.InDelta(t, 40, b.X, 2)
	assert.InDelta(t, 60, b.Y, 2)
	assert.InDelta(t, 80, b.Width, 3)
	assert.InDelta(t, 50, b.Height, 3)
}

func TestResolveBounds_FindsInkOutsideViewport(t *testing.T) {
	// Content drawn beyond the declared viewport still registers because the
	// probe window extends past it.
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
    <rect x="110" y="20" width="30" height="30" fill="blue"/>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsContent, b.Source)
	assert.InDelta(t, 110, b.X, 2)
	assert.InDelta(t, 30, b.Width, 3)
}

func TestResolveBounds_FindsInkFarOutsideViewport(t *testing.T) {
	// One rect inside the viewport and one several viewport-widths away; the
	// resolved box must contain both.
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
    <rect x="10" y="10" width="20" height="20" fill="red"/>
    <rect x="400" y="10" width="20" height="20" fill="blue"/>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsContent, b.Source)
	assert.InDelta(t, 10, b.X, 2)
	assert.InDelta(t, 10, b.Y, 2)
	assert.InDelta(t, 410, b.Width, 3)
	assert.InDelta(t, 20, b.Height, 3)
}

func TestResolveBounds_GeometryEntirelyOutsideViewport(t *testing.T) {
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
    <rect x="400" y="40" width="30" height="30" fill="green"/>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsContent, b.Source)
	assert.InDelta(t, 400, b.X, 2)
	assert.InDelta(t, 40, b.Y, 2)
	assert.InDelta(t, 30, b.Width, 3)
	assert.InDelta(t, 30, b.Height, 3)
}

func TestResolveBounds_RegrowsWindowWhenInkReachesEdge(t *testing.T) {
	// Relative path data hides the true extent from the declared-geometry
	// hull, so the first probe pass clips the drawing and a regrown window
	// has to pick up the rest.
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 50 50">
    <path d="m 100 100 l 150 0 l 150 0 l 0 10 l -300 0 z" fill="red"/>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsContent, b.Source)
	assert.InDelta(t, 100, b.X, 3)
	assert.InDelta(t, 100, b.Y, 3)
	assert.InDelta(t, 300, b.Width, 5)
	assert.InDelta(t, 10, b.Height, 4)
}

func TestGeometryHull(t *testing.T) {
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
    <rect x="10" y="20" width="30" height="40"/>
    <circle cx="200" cy="50" r="25"/>
    <line x1="-15" y1="0" x2="5" y2="5"/>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	hull, ok := geometryHull(s.Root)
	require.True(t, ok)
	assert.Equal(t, -15.0, hull.X)
	assert.Equal(t, 0.0, hull.Y)
	assert.Equal(t, 225.0, hull.X+hull.Width)
	assert.Equal(t, 75.0, hull.Y+hull.Height)

	empty, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	require.NoError(t, err)
	_, ok = geometryHull(empty.Root)
	assert.False(t, ok)
}

func TestResolveBounds_DeclaredViewportFallback(t *testing.T) {
	// No ink at all: fall back to the declared viewBox rectangle.
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="10 20 300 150"></svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsViewport, b.Source)
	assert.Equal(t, 10.0, b.X)
	assert.Equal(t, 20.0, b.Y)
	assert.Equal(t, 300.0, b.Width)
	assert.Equal(t, 150.0, b.Height)
}

func TestResolveBounds_WidthHeightFallback(t *testing.T) {
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" width="640px" height="480px"></svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsViewport, b.Source)
	assert.Equal(t, 640.0, b.Width)
	assert.Equal(t, 480.0, b.Height)
}

func TestResolveBounds_RenderedRectFallback(t *testing.T) {
	s, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	require.NoError(t, err)
	s.RenderedWidth = 800
	s.RenderedHeight = 600

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsRendered, b.Source)
	assert.Equal(t, 800.0, b.Width)
	assert.Equal(t, 600.0, b.Height)
}

func TestResolveBounds_DefaultNeverZero(t *testing.T) {
	s, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	require.NoError(t, err)

	b := ResolveBounds(s)
	assert.Equal(t, api.BoundsRendered, b.Source)
	assert.Equal(t, 1000.0, b.Width)
	assert.Equal(t, 1000.0, b.Height)
	assert.True(t, b.Valid())

	// even a nil scene resolves to the fixed default
	assert.True(t, ResolveBounds(nil).Valid())
}

func TestResolveBounds_DoesNotMutateSource(t *testing.T) {
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" transform="translate(30,30)">
    <rect x="10" y="10" width="20" height="20" fill="red"/>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	ResolveBounds(s)
	assert.Equal(t, "translate(30,30)", s.Root.Attr("transform"))
}

func TestParseViewBox(t *testing.T) {
	vb, ok := ParseViewBox("0 0 100 50")
	require.True(t, ok)
	assert.Equal(t, [4]float64{0, 0, 100, 50}, vb)

	vb, ok = ParseViewBox("-10.5, 20,  300,150")
	require.True(t, ok)
	assert.Equal(t, [4]float64{-10.5, 20, 300, 150}, vb)

	_, ok = ParseViewBox("0 0 100")
	assert.False(t, ok)
	_, ok = ParseViewBox("a b c d")
	assert.False(t, ok)
	_, ok = ParseViewBox("")
	assert.False(t, ok)
}

func TestParseLength(t *testing.T) {
	assert.Equal(t, 12.0, parseLength("12"))
	assert.Equal(t, 640.0, parseLength("640px"))
	assert.Equal(t, 10.5, parseLength(" 10.5pt "))
	assert.Equal(t, 0.0, parseLength("100%"))
	assert.Equal(t, 0.0, parseLength("-5"))
	assert.Equal(t, 0.0, parseLength("abc"))
	assert.Equal(t, 0.0, parseLength(""))
}
