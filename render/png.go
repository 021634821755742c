package render

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/bodgit/moose/image"
	"github.com/bodgit/moose/palette"
)

// Marks a palette index not used by the moose
const unmapped = 0xff

var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// colorMap maps each palette index to its slot in the compacted PNG palette
// or unmapped. Slots are handed out in the order colors are first seen
// except that transparency, if present, always takes slot 0 so that the
// tRNS chunk is a single byte.
type colorMap [palette.Len]byte

func newColorMap(rows [][]byte) colorMap {
	var (
		cm     colorMap
		next   byte
		zeroth byte = unmapped
	)

	for i := range cm {
		cm[i] = unmapped
	}

	for _, row := range rows {
		for _, p := range row {
			if cm[p] != unmapped {
				continue
			}

			cm[p] = next
			if next == 0 {
				zeroth = p
			}
			if p == palette.Transparent {
				cm[palette.Transparent], cm[zeroth] = cm[zeroth], cm[palette.Transparent]
			}
			next++
		}
	}

	return cm
}

func (cm *colorMap) transparent() bool {
	return cm[palette.Transparent] != unmapped
}

func (cm *colorMap) plte() []byte {
	n := 0
	var b [palette.Len * 3]byte
	for i, slot := range cm {
		if slot == unmapped {
			continue
		}
		r, g, bl := palette.RGB(byte(i))
		b[int(slot)*3], b[int(slot)*3+1], b[int(slot)*3+2] = r, g, bl
		n++
	}
	return b[:n*3]
}

type encoder struct {
	w   io.Writer
	err error
	tmp [4]byte
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) writeChunk(name string, b []byte) {
	binary.BigEndian.PutUint32(e.tmp[:], uint32(len(b)))
	e.write(e.tmp[:])
	e.write([]byte(name))
	e.write(b)

	crc := crc32.NewIEEE()
	crc.Write([]byte(name))
	crc.Write(b)
	binary.BigEndian.PutUint32(e.tmp[:], crc.Sum32())
	e.write(e.tmp[:])
}

func (e *encoder) writeIHDR(width, height int) {
	b := make([]byte, 13)
	binary.BigEndian.PutUint32(b[0:], uint32(width))
	binary.BigEndian.PutUint32(b[4:], uint32(height))
	// 8-bit depth, indexed color, deflate, no filtering, not interlaced
	copy(b[8:], []byte{8, 3, 0, 0, 0})
	e.writeChunk("IHDR", b)
}

func (e *encoder) writeIDAT(rows [][]byte, cm *colorMap) {
	if e.err != nil {
		return
	}

	width := len(rows[0]) * PixelWidth
	line := make([]byte, 1+width)

	buf := new(bytes.Buffer)
	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		e.err = err
		return
	}

	for _, row := range rows {
		// Filter type 0 in the first byte of every scanline
		for x, p := range row {
			slot := cm[p]
			for i := 0; i < PixelWidth; i++ {
				line[1+x*PixelWidth+i] = slot
			}
		}
		for i := 0; i < PixelHeight; i++ {
			if _, err := zw.Write(line); err != nil {
				e.err = err
				return
			}
		}
	}

	if err := zw.Close(); err != nil {
		e.err = err
		return
	}

	e.writeChunk("IDAT", buf.Bytes())
}

// PNG writes t to w as an indexed PNG. Any error from w is returned as an
// *EncodingError.
func PNG(w io.Writer, t *image.Trimmed) error {
	rows := t.Rows
	if len(rows) == 0 || len(rows[0]) == 0 {
		rows = [][]byte{{0}}
	}

	cm := newColorMap(rows)

	e := encoder{w: w}
	e.write(signature)
	e.writeIHDR(len(rows[0])*PixelWidth, len(rows)*PixelHeight)
	e.writeChunk("PLTE", cm.plte())
	if cm.transparent() {
		e.writeChunk("tRNS", []byte{0})
	}
	e.writeIDAT(rows, &cm)
	e.writeChunk("IEND", nil)

	if e.err != nil {
		return &EncodingError{Err: e.err}
	}

	return nil
}

// EncodePNG is like PNG but returns the encoded bytes.
func EncodePNG(t *image.Trimmed) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := PNG(buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
