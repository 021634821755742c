/*
Package render draws a trimmed moose in one of three formats.

PNG renders each pixel as a 16 by 24 block in an 8-bit indexed PNG using
only the colors present in the moose. IRC renders mIRC color control codes
and ANSI renders 24-bit terminal background colors, both one character
per pixel followed by an attribution line.
*/
package render

import "fmt"

// The size of one moose pixel in a PNG rendering.
const (
	PixelWidth  = 16
	PixelHeight = 24
)

// EncodingError is returned when the PNG could not be written.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("render: png encoding failed: %v", e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
