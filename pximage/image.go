/*
Package pximage owns the Image and ImageSample value types at the center of
the trainer: a pair of equal-shape pixel/label grids and the (image, x, y)
coordinates sampled from them. Samples carry no copy of pixel data and are
only valid for as long as the Image they reference is alive.
*/
package pximage

import (
	"github.com/pbanos/pxforest/perr"
)

// Pixel is the signed integer pixel type spec'd for both the data and label
// grids.
type Pixel = int32

// Image is a pair of equal-shape 2-D grids: Data holds per-pixel intensity
// (or whatever the data channel encodes) and Label holds the per-pixel class
// label. Both grids are stored as rows indexed [y][x]: height is the number
// of rows and width the length of each row. An Image is immutable after
// construction.
type Image struct {
	data   [][]Pixel
	label  [][]Pixel
	width  int
	height int
}

// New validates that data and label describe the same width/height,
// single-channel grid and returns an Image wrapping them. Rows are the
// outer slice (index by y), pixels the inner slice (index by x). It returns
// a perr.InvalidInput error on shape mismatch.
func New(data, label [][]Pixel) (*Image, error) {
	h := len(data)
	if h == 0 {
		return nil, perr.New(perr.InvalidInput, "image has zero height")
	}
	if len(label) != h {
		return nil, perr.New(perr.InvalidInput, "data and label grids have different heights (%d != %d)", h, len(label))
	}
	w := len(data[0])
	if w == 0 {
		return nil, perr.New(perr.InvalidInput, "image has zero width")
	}
	for y := 0; y < h; y++ {
		if len(data[y]) != w {
			return nil, perr.New(perr.InvalidInput, "data grid row %d has width %d, expected %d", y, len(data[y]), w)
		}
		if len(label[y]) != w {
			return nil, perr.New(perr.InvalidInput, "label grid row %d has width %d, expected %d", y, len(label[y]), w)
		}
	}
	return &Image{data: data, label: label, width: w, height: h}, nil
}

// Width returns the image's width (number of columns).
func (img *Image) Width() int {
	return img.width
}

// Height returns the image's height (number of rows).
func (img *Image) Height() int {
	return img.height
}

// At returns the data-grid pixel at (x, y), or 0 if (x, y) is outside the
// image (zero-padded, not clamped, per the Feature evaluation contract).
func (img *Image) At(x, y int) Pixel {
	if x < 0 || y < 0 || x >= img.width || y >= img.height {
		return 0
	}
	return img.data[y][x]
}

// LabelAt returns the label-grid value at (x, y). Unlike At it is only ever
// called with in-bounds coordinates (sample coordinates are always valid),
// so it does not zero-pad.
func (img *Image) LabelAt(x, y int) Pixel {
	return img.label[y][x]
}

// Sample is a (image-reference, x, y) triple. Its lifetime is strictly
// bounded by the referenced Image's lifetime; it carries no copy of pixel
// data. x is in [0, width), y is in [0, height).
type Sample struct {
	Image *Image
	X, Y  int
}

// Label returns the class label of the pixel this sample points at.
func (s Sample) Label() Pixel {
	return s.Image.LabelAt(s.X, s.Y)
}
