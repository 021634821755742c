package image

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies which canvas shape a Dimensions value describes.
type Kind int

// The recognized canvas shapes.
const (
	KindDefault Kind = iota
	KindHD
	KindCustom
)

const (
	defaultWidth  = 26
	defaultHeight = 15
	hdWidth       = 36
	hdHeight      = 22

	// MaxCustomSide is the largest width or height a Custom moose may have
	MaxCustomSide = 1 << 12
)

// Dimensions describes the shape of a moose canvas. Only Custom dimensions
// carry their own width and height.
type Dimensions struct {
	Kind   Kind
	width  int
	height int
}

var (
	// Default is the original 26 by 15 canvas
	Default = Dimensions{Kind: KindDefault}
	// HD is the larger 36 by 22 canvas
	HD = Dimensions{Kind: KindHD}
)

// Custom returns dimensions of an arbitrary width and height.
func Custom(width, height int) Dimensions {
	return Dimensions{
		Kind:   KindCustom,
		width:  width,
		height: height,
	}
}

// WidthHeight returns the width, height and total number of pixels.
func (d Dimensions) WidthHeight() (int, int, int) {
	switch d.Kind {
	case KindDefault:
		return defaultWidth, defaultHeight, defaultWidth * defaultHeight
	case KindHD:
		return hdWidth, hdHeight, hdWidth * hdHeight
	default:
		return d.width, d.height, d.width * d.height
	}
}

// IsCustom reports whether d is neither Default nor HD.
func (d Dimensions) IsCustom() bool {
	return d.Kind == KindCustom
}

// FromLen infers the dimensions from the number of pixels. Only Default and
// HD can be inferred.
func FromLen(n int) (Dimensions, bool) {
	switch n {
	case defaultWidth * defaultHeight:
		return Default, true
	case hdWidth * hdHeight:
		return HD, true
	default:
		return Dimensions{}, false
	}
}

// Check reports whether d describes a usable canvas. Custom sides must be
// between 1 and MaxCustomSide.
func (d Dimensions) Check() error {
	switch d.Kind {
	case KindDefault, KindHD:
		return nil
	case KindCustom:
		if d.width < 1 || d.height < 1 || d.width > MaxCustomSide || d.height > MaxCustomSide {
			return fmt.Errorf("%w: custom sides must be 1 to %d, got %d by %d", ErrInvalidDimensions, MaxCustomSide, d.width, d.height)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidDimensions, d.Kind)
	}
}

// Validate checks the dimensions and that the number of pixels matches.
func (d Dimensions) Validate(pix []byte) error {
	if err := d.Check(); err != nil {
		return err
	}
	if _, _, total := d.WidthHeight(); len(pix) != total {
		return fmt.Errorf("%w: %v needs %d pixels, got %d", ErrDimensionMismatch, d, total, len(pix))
	}
	return nil
}

func (d Dimensions) String() string {
	switch d.Kind {
	case KindDefault:
		return "Default"
	case KindHD:
		return "HD"
	default:
		return fmt.Sprintf("Custom(%d, %d)", d.width, d.height)
	}
}

// MarshalJSON encodes Default and HD as bare strings and Custom as
// {"Custom":[width,height]}.
func (d Dimensions) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case KindDefault, KindHD:
		return json.Marshal(d.String())
	default:
		return json.Marshal(map[string][2]int{"Custom": {d.width, d.height}})
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *Dimensions) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		switch s {
		case "Default":
			*d = Default
		case "HD":
			*d = HD
		default:
			return fmt.Errorf("image: unknown dimensions %q", s)
		}
		return nil
	}

	var custom struct {
		Custom *[2]int
	}
	if err := json.Unmarshal(b, &custom); err != nil {
		return err
	}
	if custom.Custom == nil {
		return errors.New("image: dimensions must be Default, HD or Custom")
	}
	c := Custom(custom.Custom[0], custom.Custom[1])
	if err := c.Check(); err != nil {
		return err
	}
	*d = c
	return nil
}

// Value implements driver.Valuer, dimensions are stored as their JSON
// encoding.
func (d Dimensions) Value() (driver.Value, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *Dimensions) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return d.UnmarshalJSON([]byte(v))
	case []byte:
		return d.UnmarshalJSON(v)
	default:
		return fmt.Errorf("image: cannot scan %T into dimensions", src)
	}
}
