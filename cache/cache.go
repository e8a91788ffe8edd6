/*
Package cache implements the bagging batch computation and per-batch
image/sample working-set management of spec.md §4.1: it stages images in and
out of memory across bagging batches so that per-level training sees a
usable working set without thrashing, and it draws the non-background
pixels sampled from each loaded image.
*/
package cache

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/pbanos/pxforest/logging"
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/pximage/provider"
)

// Params configures the sample cache's bagging and per-image sampling
// behavior (spec.md §6 keys).
type Params struct {
	// SamplesPerImageFraction is the fraction of non-background pixels
	// drawn per image. Defaults to 0.1 if zero.
	SamplesPerImageFraction float64
	// BaggingFraction is the fraction of images drawn per bag, with
	// replacement. Defaults to 1.0 if zero.
	BaggingFraction float64
	// BackgroundLabel marks pixels to ignore. Labels >= this value are
	// ignored. The spec.md §6 default (max of the label type) is resolved
	// by package config, not here: a zero value here means "background
	// label 0", not "unset".
	BackgroundLabel pximage.Pixel
}

func (p Params) withDefaults() Params {
	if p.SamplesPerImageFraction == 0 {
		p.SamplesPerImageFraction = 0.1
	}
	if p.BaggingFraction == 0 {
		p.BaggingFraction = 1.0
	}
	return p
}

// Cache is the sample cache of spec.md §4.1, layered on top of an image
// Provider. PrepareBatches and LoadBatch serialize on an internal mutex, so
// several forest workers may share one Cache; calls still run one at a time.
type Cache struct {
	mu       sync.Mutex
	provider provider.Provider
	rng      *rand.Rand
	params   Params
	logger   logging.Logger

	images map[int]*pximage.Image // current live batch's image map
	batches [][]int
}

// New returns a Cache over the given provider, using rng for every random
// draw (bagging and per-image subsampling) so that, given the same rng
// state and provider, the samples drawn are reproducible (spec.md §4.1
// "Determinism").
func New(p provider.Provider, rng *rand.Rand, params Params, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Noop{}
	}
	return &Cache{
		provider: p,
		rng:      rng,
		params:   params.withDefaults(),
		logger:   logger,
		images:   make(map[int]*pximage.Image),
	}
}

// PrepareBatches draws M = round(baggingFraction * N) image indices with
// replacement (N = provider.Count()), sorts them, and partitions the sorted
// list into numBatches contiguous ranges of sizes
// floor((i+1)*M/B) - floor(i*M/B), per spec.md §4.1. It must be called
// before LoadBatch. Calling it again recomputes and replaces the batches
// (drawing fresh indices from the injected rng).
func (c *Cache) PrepareBatches(numBatches int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.provider.Count()
	m := int(roundHalfAwayFromZero(c.params.BaggingFraction * float64(n)))
	drawn := make([]int, m)
	for i := 0; i < m; i++ {
		drawn[i] = c.rng.Intn(n)
	}
	sort.Ints(drawn)
	batches := make([][]int, numBatches)
	for i := 0; i < numBatches; i++ {
		lo := (i * m) / numBatches
		hi := ((i + 1) * m) / numBatches
		batches[i] = append([]int{}, drawn[lo:hi]...)
	}
	c.batches = batches
}

// NumBatches returns the number of batches computed by the last call to
// PrepareBatches.
func (c *Cache) NumBatches() int {
	return len(c.batches)
}

// LoadBatch performs the generational cache swap of spec.md §4.1 for batch
// i: the current image map is moved aside as old, the live map is cleared,
// then for each image index in the batch (in order) the image is either
// carried over from old or loaded fresh via the provider. Every loaded
// image's non-background pixels are drawn into the returned bag of
// samples. Images left in old at the end are dropped (released).
func (c *Cache) LoadBatch(ctx context.Context, i int) ([]pximage.Sample, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := c.batches[i]
	old := c.images
	c.images = make(map[int]*pximage.Image, len(batch))
	var samples []pximage.Sample
	for _, idx := range batch {
		img, ok := c.images[idx]
		if !ok {
			if cached, wasOld := old[idx]; wasOld {
				img = cached
			} else {
				var err error
				img, err = c.provider.Get(ctx, idx)
				if err != nil {
					return nil, err
				}
				c.logger.Debugf("loaded image %d from provider", idx)
			}
			c.images[idx] = img
		}
		imgSamples := c.sampleImage(img)
		samples = append(samples, imgSamples...)
	}
	return samples, nil
}

// sampleImage collects every non-background pixel of img, then subsamples
// it down to min(round(f*W*H), |non-background|) pixels without
// replacement using the Fisher-Yates tail pattern, per spec.md §4.1. If
// f >= 1 every non-background pixel is kept.
func (c *Cache) sampleImage(img *pximage.Image) []pximage.Sample {
	w, h := img.Width(), img.Height()
	candidates := make([]pximage.Sample, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.LabelAt(x, y) < c.params.BackgroundLabel {
				candidates = append(candidates, pximage.Sample{Image: img, X: x, Y: y})
			}
		}
	}
	f := c.params.SamplesPerImageFraction
	if f >= 1 {
		return candidates
	}
	want := int(roundHalfAwayFromZero(f * float64(w*h)))
	if want > len(candidates) {
		want = len(candidates)
	}
	return fisherYatesTailSample(c.rng, candidates, want)
}

// fisherYatesTailSample draws k elements from items without replacement by
// repeatedly picking a uniform index in the unsampled prefix and swapping it
// to the tail, per spec.md §4.1. It reorders items in place and returns its
// last k elements; items itself is not shared elsewhere by the cache.
func fisherYatesTailSample(rng *rand.Rand, items []pximage.Sample, k int) []pximage.Sample {
	n := len(items)
	for i := 0; i < k; i++ {
		last := n - 1 - i
		j := rng.Intn(last + 1)
		items[j], items[last] = items[last], items[j]
	}
	return items[n-k:]
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -roundHalfAwayFromZero(-v)
	}
	return float64(int64(v + 0.5))
}
