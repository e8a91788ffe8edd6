package pximage

// Feature is a quadruple of signed integer pixel offsets. Evaluated at a
// sample it returns P(x+OX1, y+OY1) - P(x+OX2, y+OY2), where out-of-image
// reads are zero-padded (see Image.At).
type Feature struct {
	OX1, OY1 int
	OX2, OY2 int
}

// Evaluate returns the feature's pixel-difference value at the given
// sample.
func (f Feature) Evaluate(s Sample) float64 {
	a := s.Image.At(s.X+f.OX1, s.Y+f.OY1)
	b := s.Image.At(s.X+f.OX2, s.Y+f.OY2)
	return float64(a - b)
}

// Threshold is a scalar splitting value. A sample routes left when its
// feature value is strictly less than the threshold, else right.
type Threshold = float64

// RoutesLeft reports whether a feature value routes left of threshold t
// (strict inequality; the threshold itself routes right).
func RoutesLeft(featureValue float64, t Threshold) bool {
	return featureValue < t
}

// SplitPoint is a (Feature, Threshold) pair materialized at a tree node.
type SplitPoint struct {
	Feature   Feature
	Threshold Threshold
}

// RoutesLeft reports whether the given sample routes left under this split
// point.
func (sp SplitPoint) RoutesLeft(s Sample) bool {
	return RoutesLeft(sp.Feature.Evaluate(s), sp.Threshold)
}
