package render

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/bodgit/moose/image"
	"github.com/bodgit/moose/palette"
	"github.com/dustin/go-humanize"
)

var now = time.Now

// Attribution is the trailing line of a text rendering.
type Attribution struct {
	Name    string
	Author  fmt.Stringer
	Created time.Time
}

func (a Attribution) line() string {
	author := "Anonymous"
	if a.Author != nil {
		author = a.Author.String()
	}
	return fmt.Sprintf("\x02%s\x02 by \x02%s\x02; created %s.\n", a.Name, author, humanize.RelTime(a.Created, now(), "ago", "from now"))
}

// No palette index, so the first pixel of every row starts a new run
const noColor = palette.Len

type textFormat struct {
	// Starts a run of the given color
	marker func(*bytes.Buffer, byte)
	// Continues the current run
	continuation func(*bytes.Buffer, byte)
	// Written at the end of each row before the newline
	eol func(*bytes.Buffer)
}

func renderText(t *image.Trimmed, a Attribution, f textFormat) []byte {
	buf := new(bytes.Buffer)

	for _, row := range t.Rows {
		last := byte(noColor)
		for _, p := range row {
			if p == last {
				f.continuation(buf, p)
				continue
			}
			last = p
			f.marker(buf, p)
		}
		if f.eol != nil {
			f.eol(buf)
		}
		buf.WriteByte('\n')
	}

	buf.WriteString(a.line())

	return buf.Bytes()
}

func ircGlyph(p byte) byte {
	if p == palette.Transparent {
		return ' '
	}
	return '@'
}

var ircFormat = textFormat{
	marker: func(buf *bytes.Buffer, p byte) {
		buf.WriteByte(0x03)
		if p != palette.Transparent {
			s := strconv.Itoa(int(p))
			buf.WriteString(s)
			buf.WriteByte(',')
			buf.WriteString(s)
		}
		buf.WriteByte(ircGlyph(p))
	},
	continuation: func(buf *bytes.Buffer, p byte) {
		buf.WriteByte(ircGlyph(p))
	},
}

func ansiMarker(buf *bytes.Buffer, p byte) {
	if p == palette.Transparent {
		buf.WriteString("\x1b[0m ")
		return
	}
	r, g, b := palette.RGB(p)
	fmt.Fprintf(buf, "\x1b[48;2;%d;%d;%dm ", r, g, b)
}

var ansiFormat = textFormat{
	marker: ansiMarker,
	continuation: func(buf *bytes.Buffer, _ byte) {
		buf.WriteByte(' ')
	},
	eol: func(buf *bytes.Buffer) {
		ansiMarker(buf, palette.Transparent)
	},
}

// IRC renders t using mIRC color codes with the foreground and background
// both set to the pixel color.
func IRC(t *image.Trimmed, a Attribution) []byte {
	return renderText(t, a, ircFormat)
}

// ANSI renders t using 24-bit ANSI background colors. Every row ends by
// resetting the colors.
func ANSI(t *image.Trimmed, a Attribution) []byte {
	return renderText(t, a, ansiFormat)
}
