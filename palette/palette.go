/*
Package palette holds the fixed 100 color table every moose is drawn with.

Indices 0 to 15 are the legacy mIRC colors, 16 to 87 are the extended mIRC
ramp laid out as six rows of twelve hues from darkest to lightest, 88 to 98
are a grayscale ramp and 99 is the only transparent entry.
*/
package palette

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// Len is the number of entries in the palette
	Len = 100

	// Transparent is the palette index of the transparent color
	Transparent byte = Len - 1
)

// Colors is the palette. It must not be modified.
var Colors = [Len]color.RGBA{
	// legacy mIRC colors
	{0xff, 0xff, 0xff, 0xff}, // white
	{0x00, 0x00, 0x00, 0xff}, // black
	{0x00, 0x00, 0x80, 0xff}, // navy
	{0x00, 0x80, 0x00, 0xff}, // green
	{0xff, 0x00, 0x00, 0xff}, // red
	{0xa5, 0x2a, 0x2a, 0xff}, // brown
	{0x80, 0x00, 0x80, 0xff}, // purple
	{0x80, 0x80, 0x00, 0xff}, // olive
	{0xff, 0xff, 0x00, 0xff}, // yellow
	{0x00, 0xff, 0x00, 0xff}, // lime
	{0x00, 0x80, 0x80, 0xff}, // teal
	{0x00, 0xff, 0xff, 0xff}, // cyan
	{0x00, 0x00, 0xff, 0xff}, // blue
	{0xff, 0x00, 0xff, 0xff}, // fuchsia
	{0x80, 0x80, 0x80, 0xff}, // grey
	{0xd3, 0xd3, 0xd3, 0xff}, // lightgrey
	// extended, darkest
	{0x47, 0x00, 0x00, 0xff}, // 16
	{0x47, 0x21, 0x00, 0xff},
	{0x47, 0x47, 0x00, 0xff},
	{0x32, 0x47, 0x00, 0xff},
	{0x00, 0x47, 0x00, 0xff},
	{0x00, 0x47, 0x2c, 0xff},
	{0x00, 0x47, 0x47, 0xff},
	{0x00, 0x27, 0x47, 0xff},
	{0x00, 0x00, 0x47, 0xff},
	{0x2e, 0x00, 0x47, 0xff},
	{0x47, 0x00, 0x47, 0xff},
	{0x47, 0x00, 0x2a, 0xff},
	{0x74, 0x00, 0x00, 0xff}, // 28
	{0x74, 0x3a, 0x00, 0xff},
	{0x74, 0x74, 0x00, 0xff},
	{0x51, 0x74, 0x00, 0xff},
	{0x00, 0x74, 0x00, 0xff},
	{0x00, 0x74, 0x49, 0xff},
	{0x00, 0x74, 0x74, 0xff},
	{0x00, 0x40, 0x74, 0xff},
	{0x00, 0x00, 0x74, 0xff},
	{0x4b, 0x00, 0x74, 0xff},
	{0x74, 0x00, 0x74, 0xff},
	{0x74, 0x00, 0x45, 0xff},
	{0xb5, 0x00, 0x00, 0xff}, // 40
	{0xb5, 0x63, 0x00, 0xff},
	{0xb5, 0xb5, 0x00, 0xff},
	{0x7d, 0xb5, 0x00, 0xff},
	{0x00, 0xb5, 0x00, 0xff},
	{0x00, 0xb5, 0x71, 0xff},
	{0x00, 0xb5, 0xb5, 0xff},
	{0x00, 0x63, 0xb5, 0xff},
	{0x00, 0x00, 0xb5, 0xff},
	{0x75, 0x00, 0xb5, 0xff},
	{0xb5, 0x00, 0xb5, 0xff},
	{0xb5, 0x00, 0x6b, 0xff},
	{0xff, 0x00, 0x00, 0xff}, // 52
	{0xff, 0x8c, 0x00, 0xff},
	{0xff, 0xff, 0x00, 0xff},
	{0xb2, 0xff, 0x00, 0xff},
	{0x00, 0xff, 0x00, 0xff},
	{0x00, 0xff, 0xa0, 0xff},
	{0x00, 0xff, 0xff, 0xff},
	{0x00, 0x8c, 0xff, 0xff},
	{0x00, 0x00, 0xff, 0xff},
	{0xa5, 0x00, 0xff, 0xff},
	{0xff, 0x00, 0xff, 0xff},
	{0xff, 0x00, 0x98, 0xff},
	{0xff, 0x59, 0x59, 0xff}, // 64
	{0xff, 0xb4, 0x59, 0xff},
	{0xff, 0xff, 0x71, 0xff},
	{0xcf, 0xff, 0x60, 0xff},
	{0x6f, 0xff, 0x6f, 0xff},
	{0x65, 0xff, 0xc9, 0xff},
	{0x6d, 0xff, 0xff, 0xff},
	{0x59, 0xb4, 0xff, 0xff},
	{0x59, 0x59, 0xff, 0xff},
	{0xc4, 0x59, 0xff, 0xff},
	{0xff, 0x66, 0xff, 0xff},
	{0xff, 0x59, 0xbc, 0xff},
	// extended, lightest
	{0xff, 0x9c, 0x9c, 0xff}, // 76
	{0xff, 0xd3, 0x9c, 0xff},
	{0xff, 0xff, 0x9c, 0xff},
	{0xe2, 0xff, 0x9c, 0xff},
	{0x9c, 0xff, 0x9c, 0xff},
	{0x9c, 0xff, 0xdb, 0xff},
	{0x9c, 0xff, 0xff, 0xff},
	{0x9c, 0xd3, 0xff, 0xff},
	{0x9c, 0x9c, 0xff, 0xff},
	{0xdc, 0x9c, 0xff, 0xff},
	{0xff, 0x9c, 0xff, 0xff},
	{0xff, 0x94, 0xd3, 0xff},
	// grayscale
	{0x00, 0x00, 0x00, 0xff}, // 88
	{0x13, 0x13, 0x13, 0xff},
	{0x28, 0x28, 0x28, 0xff},
	{0x36, 0x36, 0x36, 0xff},
	{0x4d, 0x4d, 0x4d, 0xff},
	{0x65, 0x65, 0x65, 0xff},
	{0x81, 0x81, 0x81, 0xff},
	{0x9f, 0x9f, 0x9f, 0xff},
	{0xbc, 0xbc, 0xbc, 0xff},
	{0xe2, 0xe2, 0xe2, 0xff},
	{0xff, 0xff, 0xff, 0xff}, // 98
	{0x00, 0x00, 0x00, 0x00}, // transparent
}

// Palette returns the colors as a color.Palette suitable for use with an
// image.Paletted.
func Palette() color.Palette {
	p := make(color.Palette, Len)
	for i := range Colors {
		p[i] = Colors[i]
	}
	return p
}

// Valid reports whether b is a usable palette index.
func Valid(b byte) bool {
	return b <= Transparent
}

// RGB returns the red, green and blue components of palette index i, which
// must be valid.
func RGB(i byte) (uint8, uint8, uint8) {
	c := Colors[i]
	return c.R, c.G, c.B
}

var lab [Transparent]colorful.Color

func init() {
	for i := range lab {
		lab[i], _ = colorful.MakeColor(Colors[i])
	}
}

// Nearest returns the palette index closest to c. Anything less than half
// opaque maps to Transparent, otherwise the distance is measured in CIE
// L*a*b* space and the lowest index wins a tie.
func Nearest(c color.Color) byte {
	if _, _, _, a := c.RGBA(); a < 0x8000 {
		return Transparent
	}

	// Undo the alpha premultiplication
	r, g, b, a := c.RGBA()
	cf := colorful.Color{
		R: float64(r) / float64(a),
		G: float64(g) / float64(a),
		B: float64(b) / float64(a),
	}

	best, bestDistance := byte(0), cf.DistanceLab(lab[0])
	for i := 1; i < len(lab); i++ {
		if d := cf.DistanceLab(lab[i]); d < bestDistance {
			best, bestDistance = byte(i), d
		}
	}
	return best
}
