package scene

import (
	"bytes"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/inkframe/inkframe/api"
)

// defaultBoundsSide is substituted when every fallback tier comes up empty.
// The resolver degrades to it rather than ever reporting a zero-area box.
const defaultBoundsSide = 1000

// measureMaxSide caps the probe raster used for ink measurement.
const measureMaxSide = 1200

// maxProbePasses bounds window regrowth when ink reaches the probe edge.
const maxProbePasses = 4

// ResolveBounds computes the tightest meaningful bounding box of the scene.
// The fallback chain is: measured ink extents, declared viewport rectangle,
// host-reported rendered rectangle, fixed default. It is read-only with
// respect to the scene and never fails; scene-validity rejection happens one
// layer above, in the exporter.
func ResolveBounds(s *Scene) api.Bounds {
	if s != nil && s.Root != nil {
		if b, ok := measureContentBounds(s); ok {
			return b
		}
		if b, ok := declaredViewport(s.Root); ok {
			return b
		}
	}

	w, h := 0.0, 0.0
	if s != nil {
		w, h = s.RenderedWidth, s.RenderedHeight
	}
	if w <= 0 || h <= 0 {
		w, h = defaultBoundsSide, defaultBoundsSide
	}
	return api.Bounds{Width: w, Height: h, Source: api.BoundsRendered}
}

// measureContentBounds renders the scene into a transparent probe raster and
// scans for ink. Measuring ink instead of declared geometry keeps exports
// centered when a diagram's drawing does not start at the origin. The probe
// window starts from the declared viewport and the hull of declared geometry,
// and regrows whenever ink reaches its edge, so drawings placed far outside
// the viewport still register.
func measureContentBounds(s *Scene) (api.Bounds, bool) {
	// Interactive transform state would shift the measurement, so probe a
	// stripped clone. The source scene is never touched.
	probe := s.Clone()
	stripViewportTransforms(probe.Root)

	icon, err := oksvg.ReadIconStream(bytes.NewReader(probe.Bytes()), oksvg.WarnErrorMode)
	if err != nil || icon == nil {
		return api.Bounds{}, false
	}
	vb := icon.ViewBox
	if vb.W <= 0 || vb.H <= 0 {
		return api.Bounds{}, false
	}

	// Initial probe window: viewport grown by 50% per side, then widened to
	// cover the hull of declared geometry so a drawing placed far outside the
	// viewport still registers.
	x0 := vb.X - vb.W/2
	y0 := vb.Y - vb.H/2
	x1 := vb.X + vb.W + vb.W/2
	y1 := vb.Y + vb.H + vb.H/2
	if hull, ok := geometryHull(probe.Root); ok {
		pad := math.Max(10, 0.1*math.Max(hull.Width, hull.Height))
		x0 = math.Min(x0, hull.X-pad)
		y0 = math.Min(y0, hull.Y-pad)
		x1 = math.Max(x1, hull.X+hull.Width+pad)
		y1 = math.Max(y1, hull.Y+hull.Height+pad)
	}

	for pass := 0; pass < maxProbePasses; pass++ {
		winW := x1 - x0
		winH := y1 - y0
		scale := math.Min(measureMaxSide/winW, measureMaxSide/winH)
		if scale <= 0 || math.IsInf(scale, 0) {
			return api.Bounds{}, false
		}
		pxW := int(math.Ceil(winW * scale))
		pxH := int(math.Ceil(winH * scale))
		if pxW < 1 || pxH < 1 {
			return api.Bounds{}, false
		}

		rgba := image.NewRGBA(image.Rect(0, 0, pxW, pxH))
		icon.SetTarget((vb.X-x0)*scale, (vb.Y-y0)*scale, vb.W*scale, vb.H*scale)
		scanner := rasterx.NewScannerGV(pxW, pxH, rgba, rgba.Bounds())
		icon.Draw(rasterx.NewDasher(pxW, pxH, scanner), 1.0)

		minX, minY, maxX, maxY, found := inkExtents(rgba)
		if !found {
			return api.Bounds{}, false
		}

		// Ink touching the window edge means the drawing extends past it;
		// grow the window and probe again.
		if pass < maxProbePasses-1 && (minX == 0 || minY == 0 || maxX >= pxW-1 || maxY >= pxH-1) {
			x0 -= winW / 2
			y0 -= winH / 2
			x1 += winW / 2
			y1 += winH / 2
			continue
		}

		b := api.Bounds{
			X:      x0 + float64(minX)/scale,
			Y:      y0 + float64(minY)/scale,
			Width:  float64(maxX-minX+1) / scale,
			Height: float64(maxY-minY+1) / scale,
			Source: api.BoundsContent,
		}
		if !b.Valid() {
			return api.Bounds{}, false
		}
		return b, true
	}
	return api.Bounds{}, false
}

// geometryHull unions the declared coordinates of every drawable primitive.
// It is a coarse over-approximation: path and points data are read as raw
// numbers and transforms are ignored. It only has to bound the probe window;
// the pixel scan finds the tight box.
func geometryHull(root *Node) (api.Bounds, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	found := false
	add := func(x, y float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
		found = true
	}
	root.Walk(func(n *Node) {
		switch n.Tag {
		case "rect", "image":
			x, y := parseCoord(n.Attr("x")), parseCoord(n.Attr("y"))
			add(x, y)
			add(x+parseLength(n.Attr("width")), y+parseLength(n.Attr("height")))
		case "circle":
			cx, cy := parseCoord(n.Attr("cx")), parseCoord(n.Attr("cy"))
			r := parseLength(n.Attr("r"))
			add(cx-r, cy-r)
			add(cx+r, cy+r)
		case "ellipse":
			cx, cy := parseCoord(n.Attr("cx")), parseCoord(n.Attr("cy"))
			rx, ry := parseLength(n.Attr("rx")), parseLength(n.Attr("ry"))
			add(cx-rx, cy-ry)
			add(cx+rx, cy+ry)
		case "line":
			add(parseCoord(n.Attr("x1")), parseCoord(n.Attr("y1")))
			add(parseCoord(n.Attr("x2")), parseCoord(n.Attr("y2")))
		case "polyline", "polygon":
			nums := numbersIn(n.Attr("points"))
			for i := 0; i+1 < len(nums); i += 2 {
				add(nums[i], nums[i+1])
			}
		case "path":
			// raw numbers union into both axes; relative deltas may
			// under-reach, which the edge-regrowth passes absorb
			for _, v := range numbersIn(n.Attr("d")) {
				add(v, v)
			}
		case "text", "tspan", "use":
			add(parseCoord(n.Attr("x")), parseCoord(n.Attr("y")))
		}
	})
	if !found {
		return api.Bounds{}, false
	}
	return api.Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// numbersIn extracts every numeric token from coordinate data.
func numbersIn(s string) []float64 {
	var nums []float64
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+'
	}) {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			nums = append(nums, v)
		}
	}
	return nums
}

// inkExtents scans the probe raster for the tight non-transparent rectangle.
func inkExtents(img *image.RGBA) (minX, minY, maxX, maxY int, found bool) {
	b := img.Bounds()
	minX, minY = b.Max.X, b.Max.Y
	maxX, maxY = b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+(b.Max.X-b.Min.X)*4]
		for x := 0; x < len(row); x += 4 {
			if row[x+3] != 0 {
				px := b.Min.X + x/4
				if px < minX {
					minX = px
				}
				if px > maxX {
					maxX = px
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	return minX, minY, maxX, maxY, maxX >= minX && maxY >= minY
}

// declaredViewport extracts the scene's logical viewport rectangle: the
// viewBox when present, else explicit width/height attributes.
func declaredViewport(root *Node) (api.Bounds, bool) {
	if vb, ok := ParseViewBox(root.Attr("viewBox")); ok && vb[2] > 0 && vb[3] > 0 {
		return api.Bounds{X: vb[0], Y: vb[1], Width: vb[2], Height: vb[3], Source: api.BoundsViewport}, true
	}
	w := parseLength(root.Attr("width"))
	h := parseLength(root.Attr("height"))
	if w > 0 && h > 0 {
		return api.Bounds{Width: w, Height: h, Source: api.BoundsViewport}, true
	}
	return api.Bounds{}, false
}

// ParseViewBox parses a viewBox attribute into [x, y, w, h].
func ParseViewBox(s string) ([4]float64, bool) {
	var vb [4]float64
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return vb, false
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return vb, false
		}
		vb[i] = v
	}
	return vb, true
}

// parseCoord parses a signed coordinate, tolerating unit suffixes.
func parseCoord(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0
	}
	for _, unit := range []string{"px", "pt", "pc", "mm", "cm", "in", "em", "ex"} {
		s = strings.TrimSuffix(s, unit)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseLength parses a positive SVG length, tolerating unit suffixes.
// Percentages carry no absolute size and resolve to zero.
func parseLength(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0
	}
	for _, unit := range []string{"px", "pt", "pc", "mm", "cm", "in", "em", "ex"} {
		s = strings.TrimSuffix(s, unit)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
