package scene

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// Bytes serializes the scene back to standalone SVG markup. The root element
// is guaranteed to carry the SVG namespace declaration, and an xlink
// declaration when any xlink attribute survives in the tree.
func (s *Scene) Bytes() []byte {
	var buf bytes.Buffer
	s.WriteTo(&buf)
	return buf.Bytes()
}

func (s *Scene) String() string {
	return string(s.Bytes())
}

// WriteTo writes the serialized scene to w.
func (s *Scene) WriteTo(w io.Writer) {
	if s == nil || s.Root == nil {
		return
	}
	root := s.Root
	if root.Tag == "svg" {
		ensureNamespaces(root)
	}
	writeNode(w, root)
}

func ensureNamespaces(root *Node) {
	if !root.HasAttr("xmlns") {
		root.SetAttr("xmlns", svgNamespace)
	}
	usesXlink := false
	root.Walk(func(n *Node) {
		for _, a := range n.Attrs {
			if strings.HasPrefix(a.Name, "xlink:") {
				usesXlink = true
			}
		}
	})
	if usesXlink && !root.HasAttr("xmlns:xlink") {
		root.SetAttr("xmlns:xlink", xlinkNamespace)
	}
}

func writeNode(w io.Writer, n *Node) {
	if n.IsText() {
		xml.EscapeText(w, []byte(n.Text)) //nolint:errcheck
		return
	}

	io.WriteString(w, "<"+n.Tag) //nolint:errcheck
	for _, a := range n.Attrs {
		io.WriteString(w, " "+a.Name+`="`) //nolint:errcheck
		xml.EscapeText(w, []byte(a.Value)) //nolint:errcheck
		io.WriteString(w, `"`)             //nolint:errcheck
	}

	if len(n.Children) == 0 {
		io.WriteString(w, "/>") //nolint:errcheck
		return
	}

	io.WriteString(w, ">") //nolint:errcheck
	for _, child := range n.Children {
		writeNode(w, child)
	}
	io.WriteString(w, "</"+n.Tag+">") //nolint:errcheck
}
