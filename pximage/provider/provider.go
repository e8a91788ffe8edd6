/*
Package provider implements the image provider abstraction of spec.md §4.1:
"images already in memory" and "images on disk" behind one narrow interface
exposing Count and Get.
*/
package provider

import (
	"context"

	"github.com/pbanos/pxforest/pximage"
)

// Provider abstracts over where Images come from. Get may perform I/O; the
// sample cache layered on top (package cache) is what makes repeated Get
// calls for the same index cheap across a bagging pass.
type Provider interface {
	// Count returns the total number of images the provider can serve.
	Count() int
	// Get returns the image at index, decoding/loading it if necessary.
	Get(ctx context.Context, index int) (*pximage.Image, error)
}
