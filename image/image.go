/*
Package image implements the canonical moose image.

A moose is a row-major sequence of palette indices, one byte per pixel, with
every byte in the range 0 to 99 where 99 is transparent. The canvas is one
of two fixed sizes, 26 by 15 or 36 by 22 pixels, or for imported moose an
arbitrary custom size. The number of pixels must always match the declared
dimensions.
*/
package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/bodgit/moose/palette"
)

var (
	// ErrDimensionMismatch is returned when the number of pixels does not
	// match the declared dimensions
	ErrDimensionMismatch = errors.New("image: pixel count does not match dimensions")
	// ErrInvalidPixelByte is returned when a pixel is not a palette index
	ErrInvalidPixelByte = errors.New("image: invalid pixel byte")
	// ErrInvalidDimensions is returned for a custom size with a side out of
	// range
	ErrInvalidDimensions = errors.New("image: invalid dimensions")
)

// Image is a validated, immutable moose image. It implements
// image.PalettedImage using the moose palette.
type Image struct {
	dim Dimensions
	pix []byte
}

// New validates pix against d and returns the image. The pixels are copied.
func New(d Dimensions, pix []byte) (*Image, error) {
	if err := d.Validate(pix); err != nil {
		return nil, err
	}
	if err := ValidatePixels(pix); err != nil {
		return nil, err
	}

	m := &Image{
		dim: d,
		pix: make([]byte, len(pix)),
	}
	copy(m.pix, pix)

	return m, nil
}

// ValidatePixels checks every byte in pix is a palette index.
func ValidatePixels(pix []byte) error {
	for i, b := range pix {
		if !palette.Valid(b) {
			return fmt.Errorf("%w: %d at offset %d", ErrInvalidPixelByte, b, i)
		}
	}
	return nil
}

// Dimensions returns the dimensions of the image.
func (m *Image) Dimensions() Dimensions {
	return m.dim
}

// Pixels returns a copy of the palette indices.
func (m *Image) Pixels() []byte {
	pix := make([]byte, len(m.pix))
	copy(pix, m.pix)
	return pix
}

// ColorModel returns the moose palette.
func (m *Image) ColorModel() color.Model {
	return palette.Palette()
}

// Bounds returns the image bounds with the top-left corner at (0, 0).
func (m *Image) Bounds() image.Rectangle {
	w, h, _ := m.dim.WidthHeight()
	return image.Rect(0, 0, w, h)
}

// At returns the color of the pixel at (x, y).
func (m *Image) At(x, y int) color.Color {
	return palette.Colors[m.ColorIndexAt(x, y)]
}

// ColorIndexAt returns the palette index of the pixel at (x, y). Anything
// outside the bounds is transparent.
func (m *Image) ColorIndexAt(x, y int) uint8 {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return palette.Transparent
	}
	w, _, _ := m.dim.WidthHeight()
	return m.pix[y*w+x]
}
