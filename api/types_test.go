package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat_Tokens(t *testing.T) {
	for _, f := range AllFormats() {
		parsed, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
}

func TestParseFormat_Aliases(t *testing.T) {
	cases := map[string]Format{
		"svg":  FormatVector,
		"png":  FormatRaster,
		"jpg":  FormatCompressed,
		"jpeg": FormatCompressed,
		"pdf":  FormatDocument,
		"clip": FormatClipboard,
		"PNG":  FormatRaster,
		" svg": FormatVector,
	}
	for alias, want := range cases {
		parsed, err := ParseFormat(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, parsed, alias)
	}
}

func TestParseFormat_Unknown(t *testing.T) {
	_, err := ParseFormat("gif")
	assert.Error(t, err)
}

func TestFormat_Extension(t *testing.T) {
	assert.Equal(t, "svg", FormatVector.Extension())
	assert.Equal(t, "png", FormatRaster.Extension())
	assert.Equal(t, "png", FormatRasterTransparent.Extension())
	assert.Equal(t, "jpg", FormatCompressed.Extension())
	assert.Equal(t, "jpg", FormatCompressedTransparent.Extension())
	assert.Equal(t, "pdf", FormatDocument.Extension())
	assert.Equal(t, "png", FormatClipboard.Extension())
}

func TestFormat_Transparent(t *testing.T) {
	assert.True(t, FormatRasterTransparent.Transparent())
	assert.True(t, FormatCompressedTransparent.Transparent())
	assert.False(t, FormatRaster.Transparent())
	assert.False(t, FormatVector.Transparent())
}

func TestFormat_RasterDerived(t *testing.T) {
	assert.False(t, FormatVector.RasterDerived())
	for _, f := range AllFormats() {
		if f == FormatVector {
			continue
		}
		assert.True(t, f.RasterDerived(), string(f))
	}
}

func TestFormat_SupportsClipboard(t *testing.T) {
	assert.True(t, FormatRaster.SupportsClipboard())
	assert.True(t, FormatRasterTransparent.SupportsClipboard())
	assert.True(t, FormatClipboard.SupportsClipboard())

	// lossy and document payloads never go to the clipboard
	assert.False(t, FormatCompressed.SupportsClipboard())
	assert.False(t, FormatCompressedTransparent.SupportsClipboard())
	assert.False(t, FormatDocument.SupportsClipboard())
	assert.False(t, FormatVector.SupportsClipboard())
}

func TestBounds_Valid(t *testing.T) {
	assert.True(t, Bounds{Width: 10, Height: 10}.Valid())
	assert.False(t, Bounds{Width: 0, Height: 10}.Valid())
	assert.False(t, Bounds{Width: 10, Height: -1}.Valid())
	assert.False(t, Bounds{}.Valid())
}
