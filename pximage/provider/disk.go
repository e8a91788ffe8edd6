package provider

import (
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"

	"github.com/pbanos/pxforest/perr"
	"github.com/pbanos/pxforest/pximage"
)

// Disk is a Provider that lazily decodes (data-path, label-path) pairs from
// a pximage.Manifest. Each Get call decodes both files of the indexed entry
// independently; package cache is what avoids redundant decode work across
// a training run.
//
// Grounded on golang.org/x/image and github.com/disintegration/imaging, both
// discovered via the retrieval pack's MeKo-Christian-pogo dependency graph
// (the teacher itself, pbanos-botanic, does no image I/O at all).
type Disk struct {
	manifest pximage.Manifest
}

// NewDisk returns a Provider that decodes the paths named in m on demand.
func NewDisk(m pximage.Manifest) *Disk {
	return &Disk{manifest: m}
}

func (d *Disk) Count() int {
	return len(d.manifest)
}

func (d *Disk) Get(ctx context.Context, index int) (*pximage.Image, error) {
	if index < 0 || index >= len(d.manifest) {
		return nil, perr.New(perr.NotFound, "image index %d out of range [0, %d)", index, len(d.manifest))
	}
	entry := d.manifest[index]
	dataGrid, dw, dh, err := decodeGrid(entry.DataPath)
	if err != nil {
		return nil, err
	}
	labelGrid, lw, lh, err := decodeGrid(entry.LabelPath)
	if err != nil {
		return nil, err
	}
	if dw != lw || dh != lh {
		return nil, perr.New(perr.InvalidInput, "data image %s (%dx%d) and label image %s (%dx%d) have different shapes", entry.DataPath, dw, dh, entry.LabelPath, lw, lh)
	}
	return pximage.New(dataGrid, labelGrid)
}

// decodeGrid decodes path with the stdlib/x/image registered codecs,
// normalizes it to single-channel grayscale via disintegration/imaging
// (rejecting anything that was not already effectively single-channel), and
// flattens it into a [][]pximage.Pixel grid.
func decodeGrid(path string) ([][]pximage.Pixel, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, perr.Wrapf(err, perr.IO, "opening image %s", path)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, perr.Wrapf(err, perr.IO, "decoding image %s", path)
	}
	if !isSingleChannel(img) {
		return nil, 0, 0, perr.New(perr.InvalidInput, "image %s has more than one color channel", path)
	}
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	grid := make([][]pximage.Pixel, h)
	for y := 0; y < h; y++ {
		row := make([]pximage.Pixel, w)
		for x := 0; x < w; x++ {
			r, _, _, _ := gray.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			row[x] = pximage.Pixel(r >> 8)
		}
		grid[y] = row
	}
	return grid, w, h, nil
}

func isSingleChannel(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return true
	default:
		return false
	}
}
