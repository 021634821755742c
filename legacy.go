package moose

import (
	"fmt"

	"github.com/bodgit/moose/legacy"
)

// FromLegacy converts a moose from a legacy dump. The name is normalized
// and the author is always Anonymous.
func FromLegacy(r *legacy.Record, opts ...legacy.Option) (*Moose, error) {
	name := legacy.NormalizeName(r.Name)

	img, err := legacy.Decode(r.Variant(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}

	m := &Moose{
		Name:       name,
		Image:      img.Pixels(),
		Dimensions: img.Dimensions(),
		Created:    r.Created.UTC(),
	}
	if err := ValidateName(m.Name); err != nil {
		return nil, err
	}

	return m, nil
}
