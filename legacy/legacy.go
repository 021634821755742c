/*
Package legacy decodes the historical moose pixel encodings.

Older moose were stored as strings of ASCII hex digits rather than palette
indices. There are three variants:

Plain images use one hex digit per pixel selecting one of the sixteen mIRC
colors, with 't' meaning transparent.

Shaded images pair an image string with a shade string of the same length.
The two digits select one of seventeen colors (including transparency) at
one of six shades which is then mapped onto the extended palette.

Extended images also pair an image and shade string but the digits address
the extended palette ramp directly.

In every variant a newline stands for no pixel at all and is skipped.
*/
package legacy

import (
	"errors"
	"fmt"

	"github.com/bodgit/moose/image"
	"github.com/bodgit/moose/palette"
)

var (
	// ErrInvalidHex is returned when a byte is not a hex digit, 't' or an
	// acceptable newline
	ErrInvalidHex = errors.New("legacy: invalid hex digit")
	// ErrLengthMismatch is returned when the image and shade strings of a
	// shaded or extended moose differ in length
	ErrLengthMismatch = errors.New("legacy: image and shade lengths differ")
	// ErrUnrecognizedSize is returned when the decoded image is neither
	// Default nor HD sized
	ErrUnrecognizedSize = errors.New("legacy: unrecognized image size")
)

const (
	transparent = 't'
	newline     = '\n'
	invalid     = 0xff
)

// Variant is one of Plain, Shaded or Extended.
type Variant interface {
	decode(compat bool) ([]byte, error)
}

// Plain is a legacy image using only the sixteen mIRC colors.
type Plain struct {
	Image string
}

// Shaded is a legacy image using seventeen colors at six shades.
type Shaded struct {
	Image string
	Shade string
}

// Extended is a legacy image addressing the extended palette.
type Extended struct {
	Image string
	Shade string
}

// Option configures Decode.
type Option func(*options)

type options struct {
	compat bool
}

// Compat reproduces the historical decoder which silently dropped any
// pixel it could not parse, shifting every pixel after it. Without it any
// such pixel fails the decode.
func Compat(compat bool) Option {
	return func(o *options) {
		o.compat = compat
	}
}

func parseHex(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	case b == transparent:
		return palette.Transparent
	default:
		return invalid
	}
}

func invalidHex(offset int, b ...byte) error {
	return fmt.Errorf("%w: %q at offset %d", ErrInvalidHex, b, offset)
}

func checkLengths(image, shade string, compat bool) (int, error) {
	if len(image) == len(shade) {
		return len(image), nil
	}
	if !compat {
		return 0, fmt.Errorf("%w: image has %d bytes, shade has %d", ErrLengthMismatch, len(image), len(shade))
	}
	// Pairs stop at the end of the shorter string
	if len(shade) < len(image) {
		return len(shade), nil
	}
	return len(image), nil
}

func (p Plain) decode(compat bool) ([]byte, error) {
	pix := make([]byte, 0, len(p.Image))
	for i := 0; i < len(p.Image); i++ {
		if p.Image[i] == newline {
			continue
		}
		v := parseHex(p.Image[i])
		if v == invalid {
			if compat {
				continue
			}
			return nil, invalidHex(i, p.Image[i])
		}
		pix = append(pix, v)
	}
	return pix, nil
}

func (s Shaded) decode(compat bool) ([]byte, error) {
	n, err := checkLengths(s.Image, s.Shade, compat)
	if err != nil {
		return nil, err
	}

	pix := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		c, sh := s.Image[i], s.Shade[i]

		var code int
		switch {
		case c == transparent || sh == transparent:
			code = int(palette.ShadeTransparent)
		case c == newline && sh == newline:
			continue
		default:
			cv, sv := parseHex(c), parseHex(sh)
			if cv > 15 || sv > 15 {
				if compat {
					continue
				}
				return nil, invalidHex(i, c, sh)
			}
			code = 1 + int(cv) + 17*int(sv)
		}

		if code >= len(palette.ShadeToExtended) {
			return nil, fmt.Errorf("%w: shade code %d at offset %d", image.ErrInvalidPixelByte, code, i)
		}
		pix = append(pix, palette.ShadeToExtended[code])
	}
	return pix, nil
}

func (e Extended) decode(compat bool) ([]byte, error) {
	n, err := checkLengths(e.Image, e.Shade, compat)
	if err != nil {
		return nil, err
	}

	pix := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		c, sh := e.Image[i], e.Shade[i]

		switch {
		case c == transparent || sh == transparent:
			pix = append(pix, palette.Transparent)
		case c == newline && sh == newline:
			continue
		default:
			cv, sv := parseHex(c), parseHex(sh)
			if cv > 15 || sv > 15 {
				if compat {
					continue
				}
				return nil, invalidHex(i, c, sh)
			}
			code := 16 + int(cv) + 12*int(sv)
			if code > int(palette.Transparent) {
				return nil, fmt.Errorf("%w: %d at offset %d", image.ErrInvalidPixelByte, code, i)
			}
			pix = append(pix, byte(code))
		}
	}
	return pix, nil
}

// Decode converts a legacy image into a canonical one. The dimensions are
// inferred from the number of decoded pixels so only Default and HD images
// can be decoded.
func Decode(v Variant, opts ...Option) (*image.Image, error) {
	o := new(options)
	for _, opt := range opts {
		opt(o)
	}

	pix, err := v.decode(o.compat)
	if err != nil {
		return nil, err
	}

	if err := image.ValidatePixels(pix); err != nil {
		return nil, err
	}

	d, ok := image.FromLen(len(pix))
	if !ok {
		return nil, fmt.Errorf("%w: %d pixels", ErrUnrecognizedSize, len(pix))
	}

	return image.New(d, pix)
}
