package render

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image/color"
	"image/png"
	"testing"

	"github.com/bodgit/moose/image"
	"github.com/bodgit/moose/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tr = palette.Transparent

func trimmed(t *testing.T, d image.Dimensions, pix []byte) *image.Trimmed {
	m, err := image.New(d, pix)
	require.NoError(t, err)
	return image.Trim(m)
}

type chunk struct {
	name string
	data []byte
}

func chunks(t *testing.T, b []byte) []chunk {
	require.True(t, bytes.HasPrefix(b, signature))
	b = b[len(signature):]

	var c []chunk
	for len(b) > 0 {
		require.GreaterOrEqual(t, len(b), 12)
		n := int(binary.BigEndian.Uint32(b))
		require.GreaterOrEqual(t, len(b), 12+n)

		name, data := string(b[4:8]), b[8:8+n]
		assert.Equal(t, crc32.ChecksumIEEE(b[4:8+n]), binary.BigEndian.Uint32(b[8+n:]), name)

		c = append(c, chunk{name, data})
		b = b[12+n:]
	}
	return c
}

func find(c []chunk, name string) []byte {
	for _, x := range c {
		if x.name == name {
			return x.data
		}
	}
	return nil
}

func TestColorMap(t *testing.T) {
	tables := []struct {
		name  string
		rows  [][]byte
		slots map[byte]byte
	}{
		{
			name:  "first seen order",
			rows:  [][]byte{{5, 3}, {5, 7}},
			slots: map[byte]byte{5: 0, 3: 1, 7: 2},
		},
		{
			name:  "transparency first",
			rows:  [][]byte{{tr, 3, 4}},
			slots: map[byte]byte{tr: 0, 3: 1, 4: 2},
		},
		{
			name:  "transparency swapped to the front",
			rows:  [][]byte{{8, 3, tr, 4}},
			slots: map[byte]byte{tr: 0, 3: 1, 8: 2, 4: 3},
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			cm := newColorMap(table.rows)
			for i, slot := range cm {
				want, ok := table.slots[byte(i)]
				if !ok {
					want = unmapped
				}
				assert.Equal(t, want, slot, "index %d", i)
			}
		})
	}
}

func TestPNGSingleColor(t *testing.T) {
	b, err := EncodePNG(trimmed(t, image.Custom(2, 2), []byte{4, 4, 4, 4}))
	require.NoError(t, err)

	c := chunks(t, b)
	assert.Equal(t, "IHDR", c[0].name)
	assert.Equal(t, "IEND", c[len(c)-1].name)
	assert.Equal(t, []byte{0xff, 0x00, 0x00}, find(c, "PLTE"))
	assert.Nil(t, find(c, "tRNS"))

	ihdr := find(c, "IHDR")
	assert.Equal(t, uint32(2*PixelWidth), binary.BigEndian.Uint32(ihdr[0:]))
	assert.Equal(t, uint32(2*PixelHeight), binary.BigEndian.Uint32(ihdr[4:]))
	assert.Equal(t, []byte{8, 3, 0, 0, 0}, ihdr[8:])
}

func TestPNGTransparency(t *testing.T) {
	b, err := EncodePNG(trimmed(t, image.Custom(3, 1), []byte{2, tr, 4}))
	require.NoError(t, err)

	c := chunks(t, b)
	assert.Equal(t, []byte{0}, find(c, "tRNS"))

	plte := find(c, "PLTE")
	require.Len(t, plte, 9)
	// Transparency in slot 0, the color it displaced moves to its slot
	assert.Equal(t, []byte{0, 0, 0}, plte[0:3])
	assert.Equal(t, []byte{0x00, 0x00, 0x80}, plte[3:6])
	assert.Equal(t, []byte{0xff, 0x00, 0x00}, plte[6:9])
}

func TestPNGDecodes(t *testing.T) {
	pix := []byte{
		tr, tr, tr, tr,
		tr, 1, 2, tr,
		tr, 3, tr, tr,
		tr, tr, tr, tr,
	}
	b, err := EncodePNG(trimmed(t, image.Custom(4, 4), pix))
	require.NoError(t, err)

	m, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 2*PixelWidth, m.Bounds().Dx())
	assert.Equal(t, 2*PixelHeight, m.Bounds().Dy())

	want := [][]byte{{1, 2}, {3, tr}}
	for y, row := range want {
		for x, p := range row {
			c := color.RGBAModel.Convert(m.At(x*PixelWidth+PixelWidth/2, y*PixelHeight+PixelHeight/2)).(color.RGBA)
			if p == tr {
				assert.Equal(t, uint8(0), c.A)
				continue
			}
			assert.Equal(t, palette.Colors[p], c)
		}
	}
}

func TestPNGFullyTransparent(t *testing.T) {
	b, err := EncodePNG(trimmed(t, image.Default, bytes.Repeat([]byte{tr}, 390)))
	require.NoError(t, err)

	m, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, PixelWidth, m.Bounds().Dx())
	assert.Equal(t, PixelHeight, m.Bounds().Dy())
	assert.Equal(t, palette.Colors[0], color.RGBAModel.Convert(m.At(0, 0)))
}

type failWriter struct {
	n int
}

var errFail = errors.New("write failed")

func (w *failWriter) Write(b []byte) (int, error) {
	if w.n == 0 {
		return 0, errFail
	}
	w.n--
	return len(b), nil
}

func TestPNGEncodingError(t *testing.T) {
	tt := trimmed(t, image.Custom(1, 1), []byte{4})

	for _, n := range []int{0, 1, 5, 10} {
		err := PNG(&failWriter{n: n}, tt)
		var ee *EncodingError
		require.True(t, errors.As(err, &ee))
		assert.ErrorIs(t, err, errFail)
	}
}
