// Package scene models an SVG diagram as an ordered element tree and
// implements the two read-side stages of the export pipeline: resolving the
// tightest meaningful bounding box of a scene, and baking a live scene into a
// standalone copy whose styling no longer depends on the hosting document.
package scene

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	svgNamespace   = "http://www.w3.org/2000/svg"
	xlinkNamespace = "http://www.w3.org/1999/xlink"
	xmlNamespace   = "http://www.w3.org/XML/1998/namespace"
)

// Attr is a single attribute. Order is preserved from the source document.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the scene tree. A Node with an empty Tag is a text
// chunk; Text holds its content and it has no attributes or children.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// IsText reports whether the node is a character-data chunk.
func (n *Node) IsText() bool { return n.Tag == "" }

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(name string) bool {
	for _, a := range n.Attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces the named attribute, keeping attribute order stable.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes the named attribute if present.
func (n *Node) RemoveAttr(name string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	c := &Node{Tag: n.Tag, Text: n.Text}
	if len(n.Attrs) > 0 {
		c.Attrs = make([]Attr, len(n.Attrs))
		copy(c.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Walk visits every element node in document order. Text chunks are skipped.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	if !n.IsText() {
		fn(n)
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// TextContent returns the concatenated character data of the node's direct
// text children.
func (n *Node) TextContent() string {
	var sb strings.Builder
	for _, child := range n.Children {
		if child.IsText() {
			sb.WriteString(child.Text)
		}
	}
	return sb.String()
}

// CountNodes returns the number of element nodes in the subtree.
func (n *Node) CountNodes() int {
	count := 0
	n.Walk(func(*Node) { count++ })
	return count
}

// Scene is a parsed SVG diagram. The export pipeline never mutates a source
// scene: every transforming stage operates on clones.
type Scene struct {
	Root *Node

	// RenderedWidth/RenderedHeight is the on-screen rectangle of the scene as
	// reported by the hosting viewer. Zero when the host supplies none; the
	// bounds resolver then substitutes a fixed default.
	RenderedWidth  float64
	RenderedHeight float64
}

// Parse reads an SVG document into a Scene.
func Parse(r io.Reader) (*Scene, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse scene markup: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Tag: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				node.Attrs = append(node.Attrs, Attr{Name: qualifiedName(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements in scene markup")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string(t)
			if strings.TrimSpace(text) == "" && stack[len(stack)-1].Tag != "text" && stack[len(stack)-1].Tag != "tspan" {
				// inter-element whitespace carries no meaning outside text runs
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Text: text})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element in scene markup")
	}
	return &Scene{Root: root}, nil
}

// ParseBytes is a convenience wrapper around Parse.
func ParseBytes(data []byte) (*Scene, error) {
	return Parse(bytes.NewReader(data))
}

// qualifiedName flattens an xml.Name into the prefixed form the serializer
// re-emits. The Go decoder expands prefixes to namespace URIs; only the
// namespaces that matter for SVG round-trips are mapped back.
func qualifiedName(name xml.Name) string {
	switch name.Space {
	case "", svgNamespace:
		return name.Local
	case xlinkNamespace:
		return "xlink:" + name.Local
	case xmlNamespace:
		return "xml:" + name.Local
	case "xmlns":
		return "xmlns:" + name.Local
	default:
		return name.Local
	}
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	if s == nil || s.Root == nil {
		return &Scene{}
	}
	return &Scene{
		Root:           s.Root.Clone(),
		RenderedWidth:  s.RenderedWidth,
		RenderedHeight: s.RenderedHeight,
	}
}

// Title returns the text of the scene's first <title> element, used to derive
// export filenames.
func (s *Scene) Title() string {
	if s == nil || s.Root == nil {
		return ""
	}
	var title string
	s.Root.Walk(func(n *Node) {
		if title == "" && n.Tag == "title" {
			title = strings.TrimSpace(n.TextContent())
		}
	})
	return title
}

// drawableTags are element kinds that put ink on the canvas.
var drawableTags = map[string]bool{
	"path": true, "rect": true, "circle": true, "ellipse": true,
	"line": true, "polyline": true, "polygon": true,
	"text": true, "tspan": true, "image": true, "use": true,
}

// HasDrawableContent reports whether the scene contains at least one drawable
// primitive. Scenes failing this check are rejected before the pipeline runs.
func (s *Scene) HasDrawableContent() bool {
	if s == nil || s.Root == nil || s.Root.Tag != "svg" {
		return false
	}
	found := false
	s.Root.Walk(func(n *Node) {
		if drawableTags[n.Tag] {
			found = true
		}
	})
	return found
}
