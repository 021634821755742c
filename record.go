package moose

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bodgit/moose/image"
	"github.com/bodgit/moose/render"
)

const (
	// MaxNameLen is the longest name in bytes a moose may have
	MaxNameLen = 64

	createdFormat = "2006-01-02T15:04:05.000Z"
)

// Names that select a moose rather than name one.
const (
	Random = "random"
	Latest = "latest"
	Oldest = "oldest"
)

// ErrInvalidName is returned for a name a moose cannot have.
var ErrInvalidName = errors.New("moose: invalid name")

// IsSpecialName reports whether name is one of Random, Latest or Oldest.
func IsSpecialName(name string) bool {
	switch name {
	case Random, Latest, Oldest:
		return true
	}
	return false
}

// ValidateName checks name is a usable moose name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > MaxNameLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, MaxNameLen)
	case IsSpecialName(name):
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	case strings.IndexFunc(name, func(r rune) bool { return r < 0x20 }) >= 0:
		return fmt.Errorf("%w: contains a control character", ErrInvalidName)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: leading or trailing whitespace", ErrInvalidName)
	}
	return nil
}

// Moose is a single named drawing.
type Moose struct {
	Name       string
	Image      []byte
	Dimensions image.Dimensions
	Created    time.Time
	Author     Author
	Upvotes    int64
}

// Validate checks the name, the pixels and that the dimensions match the
// image.
func (m *Moose) Validate() error {
	if err := ValidateName(m.Name); err != nil {
		return err
	}
	_, err := m.Canonical()
	return err
}

// Canonical returns the image of the moose.
func (m *Moose) Canonical() (*image.Image, error) {
	return image.New(m.Dimensions, m.Image)
}

func (m *Moose) trimmed() (*image.Trimmed, error) {
	img, err := m.Canonical()
	if err != nil {
		return nil, err
	}
	return image.Trim(img), nil
}

func (m *Moose) attribution() render.Attribution {
	return render.Attribution{
		Name:    m.Name,
		Author:  m.Author,
		Created: m.Created,
	}
}

// PNG renders the moose as a PNG image.
func (m *Moose) PNG() ([]byte, error) {
	t, err := m.trimmed()
	if err != nil {
		return nil, err
	}
	return render.EncodePNG(t)
}

// IRC renders the moose with mIRC color codes.
func (m *Moose) IRC() ([]byte, error) {
	t, err := m.trimmed()
	if err != nil {
		return nil, err
	}
	return render.IRC(t, m.attribution()), nil
}

// ANSI renders the moose with 24-bit terminal colors.
func (m *Moose) ANSI() ([]byte, error) {
	t, err := m.trimmed()
	if err != nil {
		return nil, err
	}
	return render.ANSI(t, m.attribution()), nil
}

type jsonMoose struct {
	Name       string            `json:"name"`
	Image      []byte            `json:"image"`
	Dimensions *image.Dimensions `json:"dimensions"`
	Created    string            `json:"created"`
	Author     Author            `json:"author"`
	Upvotes    int64             `json:"upvotes"`
}

// MarshalJSON encodes the image as base64 and the creation time in UTC with
// millisecond precision.
func (m Moose) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMoose{
		Name:       m.Name,
		Image:      m.Image,
		Dimensions: &m.Dimensions,
		Created:    m.Created.UTC().Format(createdFormat),
		Author:     m.Author,
		Upvotes:    m.Upvotes,
	})
}

// UnmarshalJSON decodes and validates a moose. The author defaults to
// Anonymous and the upvotes to zero.
func (m *Moose) UnmarshalJSON(b []byte) error {
	var j jsonMoose
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}

	if j.Dimensions == nil {
		return errors.New("moose: missing dimensions")
	}

	created, err := time.Parse(createdFormat, j.Created)
	if err != nil {
		return fmt.Errorf("moose: bad creation time: %w", err)
	}

	n := Moose{
		Name:       j.Name,
		Image:      j.Image,
		Dimensions: *j.Dimensions,
		Created:    created,
		Author:     j.Author,
		Upvotes:    j.Upvotes,
	}
	if err := n.Validate(); err != nil {
		return err
	}

	*m = n
	return nil
}
