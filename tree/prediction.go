package tree

import (
	"fmt"

	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/weaklearner"
)

// Prediction is a per-pixel class probability distribution produced by
// routing a Sample to a leaf and reading its Statistics histogram, or by
// merging several trees' leaf predictions in a Forest (spec.md §4.7).
type Prediction struct {
	probabilities map[pximage.Pixel]float64
	weight        int
}

// PredictionError reports that a prediction could not be made.
type PredictionError string

func (pe PredictionError) Error() string {
	return string(pe)
}

// ErrCannotPredictFromEmptySet is returned when a prediction is requested
// from a leaf or merge with zero accumulated samples.
const ErrCannotPredictFromEmptySet = PredictionError("cannot make prediction from empty statistics")

// ProbabilityOf returns the probability of the given label.
func (p *Prediction) ProbabilityOf(label pximage.Pixel) float64 {
	return p.probabilities[label]
}

// Probabilities returns the label -> probability distribution.
func (p *Prediction) Probabilities() map[pximage.Pixel]float64 {
	return p.probabilities
}

// Weight returns the number of samples the prediction is based on.
func (p *Prediction) Weight() int {
	return p.weight
}

// PredictedValue returns the most probable label and its probability. Ties
// are broken by lowest label value, for determinism.
func (p *Prediction) PredictedValue() (label pximage.Pixel, prob float64) {
	first := true
	for l, v := range p.probabilities {
		if first || v > prob || (v == prob && l < label) {
			label, prob = l, v
			first = false
		}
	}
	return
}

func (p *Prediction) String() string {
	return fmt.Sprintf("%v", p.probabilities)
}

// NewPredictionFromStatistics builds a Prediction from a leaf's label
// histogram.
func NewPredictionFromStatistics(s *weaklearner.Statistics) (*Prediction, error) {
	weight := s.NumOfSamples()
	if weight == 0 {
		return nil, ErrCannotPredictFromEmptySet
	}
	hist := s.Histogram()
	probs := make(map[pximage.Pixel]float64, len(hist))
	for label, c := range hist {
		probs[label] = float64(c) / float64(weight)
	}
	return &Prediction{probabilities: probs, weight: weight}, nil
}

// MergePredictions combines two Predictions weighted by their sample
// counts, the way a Forest averages per-tree leaf predictions (spec.md
// §4.7).
func MergePredictions(p1, p2 *Prediction) (*Prediction, error) {
	totalWeight := p1.weight + p2.weight
	if totalWeight == 0 {
		return nil, ErrCannotPredictFromEmptySet
	}
	merged := make(map[pximage.Pixel]float64)
	w1 := float64(p1.weight) / float64(totalWeight)
	for l, v := range p1.probabilities {
		merged[l] = w1 * v
	}
	w2 := float64(p2.weight) / float64(totalWeight)
	for l, v := range p2.probabilities {
		merged[l] += w2 * v
	}
	return &Prediction{probabilities: merged, weight: totalWeight}, nil
}

// Predict routes s through the tree and returns the Prediction held at the
// leaf it terminates at.
func (t *Tree) Predict(s pximage.Sample) (*Prediction, error) {
	if t == nil {
		return nil, fmt.Errorf("nil tree cannot predict samples")
	}
	leaf := &t.Nodes[t.Route(s)]
	return NewPredictionFromStatistics(&leaf.Stats)
}
