package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/bodgit/moose/image"
	"github.com/stretchr/testify/assert"
)

type author string

func (a author) String() string {
	return string(a)
}

func fixedNow(t *testing.T) time.Time {
	n := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now
	now = func() time.Time { return n }
	t.Cleanup(func() { now = old })
	return n
}

func TestAttribution(t *testing.T) {
	n := fixedNow(t)

	a := Attribution{Name: "moose", Author: author(`GitHub("someone")`), Created: n.Add(-3 * 24 * time.Hour)}
	assert.Equal(t, "\x02moose\x02 by \x02GitHub(\"someone\")\x02; created 3 days ago.\n", a.line())

	a = Attribution{Name: "moose", Created: n}
	assert.Equal(t, "\x02moose\x02 by \x02Anonymous\x02; created now.\n", a.line())
}

func TestIRC(t *testing.T) {
	n := fixedNow(t)

	tt := trimmed(t, image.Custom(4, 2), []byte{
		4, 4, 4, tr,
		tr, tr, 12, 12,
	})

	want := "\x034,4@@@\x03 \n" +
		"\x03  \x0312,12@@\n" +
		"\x02m\x02 by \x02Anonymous\x02; created now.\n"
	assert.Equal(t, want, string(IRC(tt, Attribution{Name: "m", Created: n})))
}

func TestANSI(t *testing.T) {
	n := fixedNow(t)

	tt := trimmed(t, image.Custom(3, 2), []byte{
		4, 4, 4,
		tr, 2, 2,
	})

	want := "\x1b[48;2;255;0;0m   \x1b[0m \n" +
		"\x1b[0m \x1b[48;2;0;0;128m  \x1b[0m \n" +
		"\x02m\x02 by \x02Anonymous\x02; created now.\n"
	assert.Equal(t, want, string(ANSI(tt, Attribution{Name: "m", Created: n})))
}

func TestTextRuns(t *testing.T) {
	n := fixedNow(t)

	for _, width := range []int{1, 2, 13, 26} {
		tt := trimmed(t, image.Custom(width, 1), bytes.Repeat([]byte{7}, width))
		a := Attribution{Name: "m", Created: n}

		irc := IRC(tt, a)
		assert.Equal(t, 1, bytes.Count(irc, []byte("\x03")))
		assert.Equal(t, width, bytes.Count(irc, []byte("@")))

		ansi := ANSI(tt, a)
		assert.Equal(t, 1, bytes.Count(ansi, []byte("\x1b[48;2;")))
		// One marker cell, width-1 continuations and the reset
		line := ansi[:bytes.IndexByte(ansi, '\n')]
		assert.Equal(t, width+1, bytes.Count(line, []byte(" ")))
	}
}

func TestTextFullyTransparent(t *testing.T) {
	n := fixedNow(t)

	tt := trimmed(t, image.Custom(2, 2), bytes.Repeat([]byte{tr}, 4))
	assert.Equal(t, "\x030,0@\n\x02m\x02 by \x02Anonymous\x02; created now.\n", string(IRC(tt, Attribution{Name: "m", Created: n})))
}
