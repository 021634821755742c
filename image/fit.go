package image

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Fit scales m to the size of d. Scaling is nearest neighbor so hard pixel
// edges and transparency survive. The aspect ratio is not kept.
func Fit(m image.Image, d Dimensions) image.Image {
	w, h, _ := d.WidthHeight()
	if b := m.Bounds(); b.Dx() == w && b.Dy() == h {
		return m
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), m, m.Bounds(), xdraw.Src, nil)

	return dst
}
