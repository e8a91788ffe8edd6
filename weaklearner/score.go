package weaklearner

// BestSplit returns the flattened candidate index with the highest
// information gain and that gain, per spec.md §4.4:
//
//	I(k) = H(parent) - (nL/n)*H(left[k]) - (nR/n)*H(right[k])
//
// A candidate with n == 0 or an empty child scores 0, so it loses to any
// strictly positive alternative. Ties are broken by first-occurring index.
// ok is false only when split has zero candidates.
func BestSplit(split *SplitStatistics) (bestIndex int, bestGain float64, ok bool) {
	k := len(split.Left)
	if k == 0 {
		return 0, 0, false
	}
	parentEntropy := split.Parent.Entropy()
	bestIndex, bestGain = 0, InformationGain(parentEntropy, &split.Left[0], &split.Right[0])
	for i := 1; i < k; i++ {
		gain := InformationGain(parentEntropy, &split.Left[i], &split.Right[i])
		if gain > bestGain {
			bestIndex, bestGain = i, gain
		}
	}
	return bestIndex, bestGain, true
}

// InformationGain computes one candidate's information gain given the
// parent's entropy and its left/right child statistics.
func InformationGain(parentEntropy float64, left, right *Statistics) float64 {
	nl, nr := left.NumOfSamples(), right.NumOfSamples()
	n := nl + nr
	if n == 0 || nl == 0 || nr == 0 {
		return 0
	}
	fn := float64(n)
	return parentEntropy - (float64(nl)/fn)*left.Entropy() - (float64(nr)/fn)*right.Entropy()
}
