package provider

import (
	"context"

	"github.com/pbanos/pxforest/perr"
	"github.com/pbanos/pxforest/pximage"
)

// Memory wraps a slice of already-decoded images. Get never performs I/O.
type Memory struct {
	images []*pximage.Image
}

// NewMemory returns a Provider backed by the given pre-decoded images.
func NewMemory(images []*pximage.Image) *Memory {
	return &Memory{images: images}
}

func (m *Memory) Count() int {
	return len(m.images)
}

func (m *Memory) Get(ctx context.Context, index int) (*pximage.Image, error) {
	if index < 0 || index >= len(m.images) {
		return nil, perr.New(perr.NotFound, "image index %d out of range [0, %d)", index, len(m.images))
	}
	return m.images[index], nil
}
