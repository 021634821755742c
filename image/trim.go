package image

import "github.com/bodgit/moose/palette"

// Trimmed is a view of an Image with the transparent border removed. Each
// row is a sub-slice of the original image row.
type Trimmed struct {
	Rows [][]byte

	// Number of rows and columns removed from each edge
	Top, Bottom, Left, Right int
}

// Width returns the width of the trimmed image.
func (t *Trimmed) Width() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// Height returns the height of the trimmed image.
func (t *Trimmed) Height() int {
	return len(t.Rows)
}

func transparentRun(row []byte) int {
	n := 0
	for _, p := range row {
		if p != palette.Transparent {
			break
		}
		n++
	}
	return n
}

func transparentRunReverse(row []byte) int {
	n := 0
	for i := len(row) - 1; i >= 0; i-- {
		if row[i] != palette.Transparent {
			break
		}
		n++
	}
	return n
}

func isTransparent(row []byte) bool {
	return transparentRun(row) == len(row)
}

// Trim removes every fully transparent row from the top and bottom of m and
// then the columns that are transparent in every remaining row from the left
// and right. A column is only removed if it is transparent in all rows so
// no row ever loses content. An image that is entirely transparent trims
// to a single pixel of index 0.
func Trim(m *Image) *Trimmed {
	w, h, _ := m.dim.WidthHeight()

	rows := make([][]byte, h)
	for y := range rows {
		rows[y] = m.pix[y*w : (y+1)*w : (y+1)*w]
	}

	return trimRows(rows)
}

// Retrim trims an already trimmed image again. The bounds of the result
// accumulate those of t.
func Retrim(t *Trimmed) *Trimmed {
	r := trimRows(t.Rows)
	r.Top += t.Top
	r.Bottom += t.Bottom
	r.Left += t.Left
	r.Right += t.Right
	return r
}

func trimRows(rows [][]byte) *Trimmed {
	t := new(Trimmed)

	for t.Top < len(rows) && isTransparent(rows[t.Top]) {
		t.Top++
	}
	if t.Top == len(rows) {
		t.Rows = [][]byte{{0}}
		return t
	}

	for isTransparent(rows[len(rows)-1-t.Bottom]) {
		t.Bottom++
	}

	partial := rows[t.Top : len(rows)-t.Bottom]

	// The trim is the smallest leading and trailing transparent run of all
	// rows
	t.Left, t.Right = len(partial[0]), len(partial[0])
	for _, row := range partial {
		if n := transparentRun(row); n < t.Left {
			t.Left = n
		}
		if n := transparentRunReverse(row); n < t.Right {
			t.Right = n
		}
	}

	t.Rows = make([][]byte, len(partial))
	for i, row := range partial {
		t.Rows[i] = row[t.Left : len(row)-t.Right]
	}

	return t
}
