package raster

import (
	"image/color"
	"strconv"
	"strings"
)

// namedColors covers the handful of keywords that show up in diagram themes.
var namedColors = map[string]color.RGBA{
	"white":       {0xff, 0xff, 0xff, 0xff},
	"black":       {0x00, 0x00, 0x00, 0xff},
	"red":         {0xff, 0x00, 0x00, 0xff},
	"green":       {0x00, 0x80, 0x00, 0xff},
	"blue":        {0x00, 0x00, 0xff, 0xff},
	"gray":        {0x80, 0x80, 0x80, 0xff},
	"grey":        {0x80, 0x80, 0x80, 0xff},
	"transparent": {0x00, 0x00, 0x00, 0x00},
}

// ParseColor parses a CSS color string: #rgb, #rrggbb, rgb(r,g,b) and a few
// keywords. Anything unparseable resolves to white so an artifact is never
// rendered on an undefined black canvas.
func ParseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return namedColors["white"]
	}
	if c, ok := namedColors[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "#") {
		if c, ok := parseHex(s[1:]); ok {
			return c
		}
	}
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		if c, ok := parseRGBFunc(s[4 : len(s)-1]); ok {
			return c
		}
	}
	return namedColors["white"]
}

func parseHex(hex string) (color.RGBA, bool) {
	switch len(hex) {
	case 3:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			n, err := strconv.ParseUint(string(hex[i]), 16, 8)
			if err != nil {
				return color.RGBA{}, false
			}
			v[i] = uint8(n*16 + n)
		}
		return color.RGBA{v[0], v[1], v[2], 0xff}, true
	case 6:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			n, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return color.RGBA{}, false
			}
			v[i] = uint8(n)
		}
		return color.RGBA{v[0], v[1], v[2], 0xff}, true
	default:
		return color.RGBA{}, false
	}
}

func parseRGBFunc(body string) (color.RGBA, bool) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return color.RGBA{}, false
	}
	var v [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return color.RGBA{}, false
		}
		v[i] = uint8(n)
	}
	return color.RGBA{v[0], v[1], v[2], 0xff}, true
}
