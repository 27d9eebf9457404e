package likelihood

import "fmt"

// Column is a per-event tensor. A column of length one broadcasts over the batch.
type Column []float64

// Scalar wraps a constant as a broadcasting column.
func Scalar(v float64) Column {
	return Column{v}
}

func (c Column) at(i int) float64 {
	if len(c) == 1 {
		return c[0]
	}
	return c[i]
}

// batchSize returns the common event count, treating length-one columns as broadcasts.
func batchSize(columns ...Column) (int, error) {
	n := 1
	for _, c := range columns {
		switch {
		case len(c) == 0:
			return 0, fmt.Errorf("empty column")
		case len(c) == 1:
		case n == 1:
			n = len(c)
		case len(c) != n:
			return 0, fmt.Errorf("column length mismatch: %d != %d", len(c), n)
		}
	}
	return n, nil
}

func LLRBatch(fs, kappa Column, epsilon float64) ([]float64, error) {
	n, err := batchSize(fs, kappa)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = LLR(fs.at(i), kappa.at(i), epsilon)
	}
	return out, nil
}

// OneSignal applies the one-signal transform element-wise. With likelihood set
// the raw LLR_xs is returned and policy.BugFix is ignored.
func OneSignal(fs, mu, kappa Column, policy TransformPolicy, likelihood bool) ([]float64, error) {
	n, err := batchSize(fs, mu, kappa)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		if likelihood {
			out[i] = OneSignalLikelihood(fs.at(i), mu.at(i), kappa.at(i), policy.Epsilon)
			continue
		}
		out[i] = OneSignalWeight(fs.at(i), mu.at(i), kappa.at(i), policy.Epsilon, policy.BugFix)
	}
	return out, nil
}

func TwoSignal(fs2, fs3, mu, alpha, kappa2, kappa3 Column, policy TransformPolicy, likelihood bool) ([]float64, error) {
	n, err := batchSize(fs2, fs3, mu, alpha, kappa2, kappa3)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		if likelihood {
			out[i] = TwoSignalLikelihood(fs2.at(i), fs3.at(i), mu.at(i), alpha.at(i), kappa2.at(i), kappa3.at(i), policy.Epsilon)
			continue
		}
		out[i] = TwoSignalWeight(fs2.at(i), fs3.at(i), mu.at(i), alpha.at(i), kappa2.at(i), kappa3.at(i), policy.Epsilon, policy.BugFix)
	}
	return out, nil
}
