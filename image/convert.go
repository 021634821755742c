package image

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/moose/palette"
	"github.com/ericpauley/go-quantize/quantize"
)

const maxColors = int(palette.Transparent)

func opaque(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a >= 0x8000
}

// Count the distinct opaque colors, giving up once there are more than max
func countColors(m image.Image, max int) int {
	b := m.Bounds()
	colors := make(map[color.RGBA]struct{})
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.At(x, y)
			if !opaque(c) {
				continue
			}
			colors[color.RGBAModel.Convert(c).(color.RGBA)] = struct{}{}
			if len(colors) > max {
				return len(colors)
			}
		}
	}
	return len(colors)
}

// FromImage converts m into a moose. A 26 by 15 image becomes a Default
// moose, 36 by 22 an HD moose and anything else a Custom moose. The image is
// not resized.
//
// Pixels less than half opaque become transparent and every other color is
// mapped to the nearest palette entry. If there are more colors than the
// palette holds they are first reduced with a median cut.
func FromImage(m image.Image) (*Image, error) {
	b := m.Bounds()
	if b.Empty() {
		return nil, errors.New("image: empty image")
	}

	var d Dimensions
	switch {
	case b.Dx() == defaultWidth && b.Dy() == defaultHeight:
		d = Default
	case b.Dx() == hdWidth && b.Dy() == hdHeight:
		d = HD
	default:
		d = Custom(b.Dx(), b.Dy())
	}

	index := func(x, y int) byte {
		return palette.Nearest(m.At(x, y))
	}

	if countColors(m, maxColors) > maxColors {
		q := quantize.MedianCutQuantizer{}
		pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, maxColors), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)

		lookup := make([]byte, len(pm.Palette))
		for i, c := range pm.Palette {
			lookup[i] = palette.Nearest(c)
		}

		index = func(x, y int) byte {
			return lookup[pm.ColorIndexAt(x, y)]
		}
	}

	pix := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !opaque(m.At(x, y)) {
				pix = append(pix, palette.Transparent)
				continue
			}
			pix = append(pix, index(x, y))
		}
	}

	return New(d, pix)
}
