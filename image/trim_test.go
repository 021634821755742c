package image

import (
	"math/rand"
	"testing"

	"github.com/bodgit/moose/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tr = palette.Transparent

func TestTrim(t *testing.T) {
	tables := []struct {
		name                     string
		dim                      Dimensions
		pix                      []byte
		rows                     [][]byte
		top, bottom, left, right int
	}{
		{
			name: "bottom row only",
			dim:  Custom(2, 2),
			pix:  []byte{0, tr, tr, tr},
			rows: [][]byte{{0, tr}},
			top:  0, bottom: 1,
		},
		{
			name: "nothing to trim",
			dim:  Custom(2, 2),
			pix:  []byte{1, 2, 3, 4},
			rows: [][]byte{{1, 2}, {3, 4}},
		},
		{
			name: "centered",
			dim:  Custom(4, 4),
			pix: []byte{
				tr, tr, tr, tr,
				tr, 5, tr, tr,
				tr, tr, 6, tr,
				tr, tr, tr, tr,
			},
			rows: [][]byte{{5, tr}, {tr, 6}},
			top:  1, bottom: 1, left: 1, right: 1,
		},
		{
			name: "jagged rows keep every column with content",
			dim:  Custom(5, 3),
			pix: []byte{
				tr, tr, 7, tr, tr,
				tr, 7, 7, 7, tr,
				tr, tr, tr, 7, tr,
			},
			rows: [][]byte{{tr, 7, tr}, {7, 7, 7}, {tr, tr, 7}},
			left: 1, right: 1,
		},
		{
			name: "interior transparent row is kept",
			dim:  Custom(1, 3),
			pix:  []byte{1, tr, 1},
			rows: [][]byte{{1}, {tr}, {1}},
		},
		{
			name: "fully transparent",
			dim:  Custom(3, 2),
			pix:  []byte{tr, tr, tr, tr, tr, tr},
			rows: [][]byte{{0}},
			top:  2,
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			m, err := New(table.dim, table.pix)
			require.NoError(t, err)

			trimmed := Trim(m)
			assert.Equal(t, table.rows, trimmed.Rows)
			assert.Equal(t, []int{table.top, table.bottom, table.left, table.right},
				[]int{trimmed.Top, trimmed.Bottom, trimmed.Left, trimmed.Right})
			assert.Equal(t, len(table.rows), trimmed.Height())
			assert.Equal(t, len(table.rows[0]), trimmed.Width())
		})
	}
}

func TestTrimFullyTransparent(t *testing.T) {
	for _, d := range []Dimensions{Default, HD, Custom(1, 1), Custom(7, 3)} {
		t.Run(d.String(), func(t *testing.T) {
			_, _, total := d.WidthHeight()
			m, err := New(d, filled(total, tr))
			require.NoError(t, err)
			assert.Equal(t, [][]byte{{0}}, Trim(m).Rows)
		})
	}
}

func TestTrimDoesNotAlias(t *testing.T) {
	m, err := New(Custom(2, 1), []byte{1, 2})
	require.NoError(t, err)

	trimmed := Trim(m)
	assert.Equal(t, 2, cap(trimmed.Rows[0]))
}

func randomImage(r *rand.Rand) *Image {
	w, h := 1+r.Intn(12), 1+r.Intn(12)
	pix := make([]byte, w*h)
	for i := range pix {
		// Mostly transparent so there is something to trim
		if r.Intn(4) == 0 {
			pix[i] = byte(r.Intn(int(palette.Transparent)))
		} else {
			pix[i] = tr
		}
	}
	m, err := New(Custom(w, h), pix)
	if err != nil {
		panic(err)
	}
	return m
}

func TestTrimProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		m := randomImage(r)
		w, h, _ := m.Dimensions().WidthHeight()
		trimmed := Trim(m)

		// Idempotent
		again := Retrim(trimmed)
		require.Equal(t, trimmed.Rows, again.Rows)
		require.Equal(t, trimmed.Top, again.Top)
		require.Equal(t, trimmed.Left, again.Left)

		if trimmed.Top == h {
			require.Equal(t, [][]byte{{0}}, trimmed.Rows)
			continue
		}

		// No content outside of [Left, w-Right) in any row, and no content
		// in the removed rows
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				inside := y >= trimmed.Top && y < h-trimmed.Bottom &&
					x >= trimmed.Left && x < w-trimmed.Right
				if !inside {
					require.Equal(t, tr, m.ColorIndexAt(x, y), "image %d at (%d, %d)", i, x, y)
				}
			}
		}

		// Every row is the same width and matches the original
		for y, row := range trimmed.Rows {
			require.Len(t, row, w-trimmed.Left-trimmed.Right)
			for x, p := range row {
				require.Equal(t, m.ColorIndexAt(x+trimmed.Left, y+trimmed.Top), p)
			}
		}
	}
}
