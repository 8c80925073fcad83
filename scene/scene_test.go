package scene

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicTree(t *testing.T) {
	svgContent := `<?xml version="1.0"?>
<svg width="100" height="100" xmlns="http://www.w3.org/2000/svg">
    <g class="layer">
        <circle cx="50" cy="50" r="20" fill="red"/>
    </g>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)
	require.NotNil(t, s.Root)

	assert.Equal(t, "svg", s.Root.Tag)
	assert.Equal(t, "100", s.Root.Attr("width"))

	require.Len(t, s.Root.Children, 1)
	g := s.Root.Children[0]
	assert.Equal(t, "g", g.Tag)
	assert.Equal(t, "layer", g.Attr("class"))

	require.Len(t, g.Children, 1)
	assert.Equal(t, "circle", g.Children[0].Tag)
	assert.Equal(t, "red", g.Children[0].Attr("fill"))
}

func TestParse_KeepsTextRuns(t *testing.T) {
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg">
  <text x="10" y="20">hello world</text>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	var text *Node
	s.Root.Walk(func(n *Node) {
		if n.Tag == "text" {
			text = n
		}
	})
	require.NotNil(t, text)
	assert.Equal(t, "hello world", text.TextContent())
}

func TestParse_DropsInterElementWhitespace(t *testing.T) {
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg">
	<g>
		<rect width="1" height="1"/>
	</g>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	s.Root.Walk(func(n *Node) {
		for _, child := range n.Children {
			if child.IsText() {
				t.Errorf("unexpected text chunk %q under <%s>", child.Text, n.Tag)
			}
		}
	})
}

func TestParse_Invalid(t *testing.T) {
	_, err := ParseBytes([]byte(""))
	assert.Error(t, err)
}

func TestNode_AttrHelpers(t *testing.T) {
	n := &Node{Tag: "rect"}
	assert.False(t, n.HasAttr("fill"))
	assert.Equal(t, "", n.Attr("fill"))

	n.SetAttr("fill", "red")
	n.SetAttr("stroke", "blue")
	assert.Equal(t, "red", n.Attr("fill"))

	n.SetAttr("fill", "green")
	assert.Equal(t, "green", n.Attr("fill"))
	assert.Len(t, n.Attrs, 2)

	n.RemoveAttr("fill")
	assert.False(t, n.HasAttr("fill"))
	assert.Equal(t, "blue", n.Attr("stroke"))
}

func TestScene_CloneIsIndependent(t *testing.T) {
	s, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><rect width="10" height="10" fill="red"/></svg>`))
	require.NoError(t, err)
	s.RenderedWidth = 800
	s.RenderedHeight = 600

	c := s.Clone()
	c.Root.Children[0].SetAttr("fill", "blue")
	c.Root.SetAttr("transform", "scale(2)")

	assert.Equal(t, "red", s.Root.Children[0].Attr("fill"))
	assert.False(t, s.Root.HasAttr("transform"))
	assert.Equal(t, 800.0, c.RenderedWidth)
}

func TestScene_Title(t *testing.T) {
	s, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg">
  <title> Order Flow </title>
  <g><title>inner</title></g>
  <rect width="1" height="1"/>
</svg>`))
	require.NoError(t, err)
	assert.Equal(t, "Order Flow", s.Title())

	empty, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><rect width="1" height="1"/></svg>`))
	require.NoError(t, err)
	assert.Equal(t, "", empty.Title())
}

func TestScene_HasDrawableContent(t *testing.T) {
	drawable, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><g><path d="M0 0L10 10"/></g></svg>`))
	require.NoError(t, err)
	assert.True(t, drawable.HasDrawableContent())

	empty, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><g><defs/></g></svg>`))
	require.NoError(t, err)
	assert.False(t, empty.HasDrawableContent())

	notSVG, err := ParseBytes([]byte(`<div><rect width="1" height="1"/></div>`))
	require.NoError(t, err)
	assert.False(t, notSVG.HasDrawableContent())

	assert.False(t, (*Scene)(nil).HasDrawableContent())
}

func TestScene_Bytes_RoundTrip(t *testing.T) {
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50"><rect x="5" y="5" width="90" height="40" fill="#eef2ff"/><text x="50" y="30">hi</text></svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	out := s.Bytes()
	reparsed, err := ParseBytes(out)
	require.NoError(t, err)

	assert.Equal(t, "0 0 100 50", reparsed.Root.Attr("viewBox"))
	assert.Equal(t, s.Root.CountNodes(), reparsed.Root.CountNodes())
	assert.Contains(t, string(out), `xmlns="http://www.w3.org/2000/svg"`)
}

func TestScene_Bytes_DeclaresXlinkWhenUsed(t *testing.T) {
	svgContent := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">
  <use xlink:href="#shape"/>
</svg>`

	s, err := ParseBytes([]byte(svgContent))
	require.NoError(t, err)

	out := string(s.Bytes())
	assert.Contains(t, out, `xmlns:xlink="http://www.w3.org/1999/xlink"`)
	assert.Contains(t, out, `xlink:href="#shape"`)
}

func TestScene_Bytes_EscapesText(t *testing.T) {
	s := &Scene{Root: &Node{Tag: "svg"}}
	text := &Node{Tag: "text", Children: []*Node{{Text: `a < b & "c"`}}}
	s.Root.Children = append(s.Root.Children, text)

	out := string(s.Bytes())
	assert.Contains(t, out, "a &lt; b &amp;")
	assert.False(t, strings.Contains(out, `a < b`))
}
