package legacy

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLen is the longest name in bytes a moose may have.
const MaxNameLen = 64

// NormalizeName truncates s to at most MaxNameLen bytes without splitting a
// UTF-8 sequence and then trims surrounding whitespace.
func NormalizeName(s string) string {
	if len(s) > MaxNameLen {
		i := MaxNameLen
		for i > 0 && !utf8.RuneStart(s[i]) {
			i--
		}
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Record is a moose as found in a legacy JSON dump.
type Record struct {
	Name     string    `json:"name"`
	Image    string    `json:"image"`
	Shade    string    `json:"shade"`
	Created  time.Time `json:"created"`
	HD       bool      `json:"hd"`
	Shaded   bool      `json:"shaded"`
	Extended bool      `json:"extended"`
}

// Variant returns the encoding used by the record. Extended takes priority
// over Shaded which takes priority over Plain. The HD flag is ignored as
// the size is inferred when decoding.
func (r *Record) Variant() Variant {
	switch {
	case r.Extended:
		return Extended{Image: r.Image, Shade: r.Shade}
	case r.Shaded:
		return Shaded{Image: r.Image, Shade: r.Shade}
	default:
		return Plain{Image: r.Image}
	}
}
