package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inkframe/inkframe/api"
)

// BakeOptions controls scene baking.
type BakeOptions struct {
	// InlineComputedStyle bakes effective presentation values as local
	// declarations on every node. Export paths set this; the live-viewer
	// clone path does not.
	InlineComputedStyle bool

	// Measurer stamps explicit run lengths onto text nodes that lack one.
	// Nil skips measurement.
	Measurer TextMeasurer

	// Crop is the padded region the artifact shows, normally the render
	// plan's crop rectangle. A zero crop falls back to the resolved bounds.
	Crop api.Bounds
}

// textCarryAttrs are the layout-critical attributes copied onto baked text
// nodes so their shape is immune to host-document CSS.
var textCarryAttrs = []string{
	"x", "y", "dx", "dy", "text-anchor", "dominant-baseline", "textLength", "lengthAdjust",
}

// Bake produces an inert, standalone copy of the scene: stylesheet fragments
// re-embedded, text layout pinned, computed presentation optionally inlined,
// interactive transform state stripped, and the root sized to exactly the
// cropped region. Baking never fails; anything missing in the source is
// treated as nothing-to-copy.
func Bake(s *Scene, bounds api.Bounds, opts BakeOptions) *Scene {
	if s == nil || s.Root == nil {
		return &Scene{}
	}
	baked := s.Clone()

	copyStylesheets(s.Root, baked.Root)
	pinTextLayout(s.Root, baked.Root, opts.Measurer)

	if opts.InlineComputedStyle {
		rules := collectStyleRules(baked.Root)
		inlineComputed(baked.Root, nil, nil, rules)
	}

	stripViewportTransforms(baked.Root)
	frameRoot(baked.Root, bounds, opts.Crop)
	return baked
}

// copyStylesheets copies embedded stylesheet text verbatim from source to
// copy, aligned by document order, so class-based styling still resolves once
// the artifact leaves the host page.
func copyStylesheets(src, dst *Node) {
	srcStyles := stylesOf(src)
	dstStyles := stylesOf(dst)
	for i, d := range dstStyles {
		if i >= len(srcStyles) {
			break
		}
		text := srcStyles[i].TextContent()
		if text == "" {
			continue
		}
		d.Children = []*Node{{Text: text}}
	}
}

func stylesOf(root *Node) []*Node {
	var styles []*Node
	root.Walk(func(n *Node) {
		if n.Tag == "style" {
			styles = append(styles, n)
		}
	})
	return styles
}

// pinTextLayout copies position/length/anchor attributes onto baked text
// nodes and stamps a measured run length where none is declared. Re-wrapped
// or re-flowed text is the most visible faithfulness bug once a scene is
// detached from host CSS.
func pinTextLayout(src, dst *Node, measurer TextMeasurer) {
	srcTexts := textNodesOf(src)
	dstTexts := textNodesOf(dst)
	for i, d := range dstTexts {
		if i < len(srcTexts) {
			for _, attr := range textCarryAttrs {
				if v := srcTexts[i].Attr(attr); v != "" {
					d.SetAttr(attr, v)
				}
			}
		}

		if d.Tag == "text" && !d.HasAttr("textLength") && measurer != nil {
			run := strings.TrimSpace(d.TextContent())
			if run != "" {
				if w, ok := measurer.MeasureText(run, textWeight(d), textSize(d)); ok && w > 0 {
					d.SetAttr("textLength", fmt.Sprintf("%.2f", w))
					d.SetAttr("lengthAdjust", "spacingAndGlyphs")
				}
			}
		}

		appendStyleDecl(d, "white-space", "nowrap")
	}
}

func textNodesOf(root *Node) []*Node {
	var texts []*Node
	root.Walk(func(n *Node) {
		if n.Tag == "text" || n.Tag == "tspan" {
			texts = append(texts, n)
		}
	})
	return texts
}

func textSize(n *Node) float64 {
	if v := parseLength(n.Attr("font-size")); v > 0 {
		return v
	}
	if v := parseLength(parseDeclarations(n.Attr("style"))["font-size"]); v > 0 {
		return v
	}
	return 16
}

func textWeight(n *Node) string {
	if v := n.Attr("font-weight"); v != "" {
		return v
	}
	return parseDeclarations(n.Attr("style"))["font-weight"]
}

// appendStyleDecl adds a declaration to the node's style attribute unless the
// property is already declared there.
func appendStyleDecl(n *Node, prop, value string) {
	style := n.Attr("style")
	if _, ok := parseDeclarations(style)[prop]; ok {
		return
	}
	decl := prop + ":" + value
	if style == "" {
		n.SetAttr("style", decl)
		return
	}
	n.SetAttr("style", strings.TrimSuffix(style, ";")+";"+decl)
}

// inlineComputed walks the tree depth-first, carrying the ancestor chain and
// the inherited computation, and rewrites each node's style attribute with
// its effective allow-list values.
func inlineComputed(n *Node, ancestors []*Node, inherited map[string]string, rules styleRules) {
	switch n.Tag {
	case "style", "title", "desc", "metadata":
		return
	}
	computed := computedStyle(n, ancestors, inherited, rules)
	mergeStyleAttr(n, computed)

	ancestors = append(ancestors, n)
	for _, child := range n.Children {
		if !child.IsText() {
			inlineComputed(child, ancestors, computed, rules)
		}
	}
}

// stripViewportTransforms clears interactive pan/zoom transform state from
// the root and from any internal viewport-transform group.
func stripViewportTransforms(root *Node) {
	if root == nil {
		return
	}
	root.RemoveAttr("transform")
	root.Walk(func(n *Node) {
		if n.Tag != "g" {
			return
		}
		marker := n.Attr("class") + " " + n.Attr("id")
		if strings.Contains(marker, "viewport") || strings.Contains(marker, "pan-zoom") {
			n.RemoveAttr("transform")
		}
	})
}

// frameRoot resets the root's sizing to fill its container and sets the
// viewBox to the cropped region, so the artifact is exactly the centered crop
// rather than the raw, possibly off-center live view.
func frameRoot(root *Node, bounds api.Bounds, crop api.Bounds) {
	if !crop.Valid() {
		crop = bounds
	}
	if !crop.Valid() {
		return
	}
	root.RemoveAttr("style")
	root.SetAttr("width", "100%")
	root.SetAttr("height", "100%")
	root.SetAttr("viewBox", FormatViewBox(crop.X, crop.Y, crop.Width, crop.Height))
}

// FormatViewBox renders a viewBox attribute value with stable precision.
func FormatViewBox(x, y, w, h float64) string {
	f := func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return f(x) + " " + f(y) + " " + f(w) + " " + f(h)
}
