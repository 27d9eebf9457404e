// Package likelihood computes the semi-weakly supervision weight and the
// signal-fraction scaled likelihood ratio from supervised classifier outputs.
//
// For a supervised output f in [0,1) the per-event likelihood ratio is
//
//	LLR = kappa * f / (1 - f + epsilon)
//
// and the mixture ratio for signal fraction mu is LLR_xs = 1 + mu*(LLR - 1).
// With two decay modes the per-mode ratios are mixed with branching fraction
// alpha before the signal fraction is applied. The weight divides LLR_xs by
// LLR_xs + 1 - mu; the legacy denominator LLR_xs + 1 is kept behind BugFix.
package likelihood

const (
	// DefaultEpsilon guards the LLR denominator in the assembled model.
	DefaultEpsilon = 1e-5
	// ArtifactEpsilon is the guard used by the diagnostic LLR sub-models.
	ArtifactEpsilon = 1e-10
)

// TransformPolicy collects the toggles that shape the transform.
type TransformPolicy struct {
	Epsilon float64
	// BugFix selects the corrected denominator LLR_xs + 1 - mu.
	BugFix bool
	// UseSigmoid is accepted for configuration compatibility; no transform reads it.
	UseSigmoid     bool
	UseRegularizer bool
}

func DefaultPolicy() TransformPolicy {
	return TransformPolicy{
		Epsilon:        DefaultEpsilon,
		BugFix:         true,
		UseRegularizer: true,
	}
}

// LLR is the likelihood ratio implied by one supervised output.
func LLR(fs, kappa, epsilon float64) float64 {
	return kappa * fs / (1 - fs + epsilon)
}

func OneSignalLikelihood(fs, mu, kappa, epsilon float64) float64 {
	return 1 + mu*(LLR(fs, kappa, epsilon)-1)
}

func TwoSignalLikelihood(fs2, fs3, mu, alpha, kappa2, kappa3, epsilon float64) float64 {
	llr2 := LLR(fs2, kappa2, epsilon)
	llr3 := LLR(fs3, kappa3, epsilon)
	return 1 + mu*(alpha*llr3+(1-alpha)*llr2-1)
}

func OneSignalWeight(fs, mu, kappa, epsilon float64, bugFix bool) float64 {
	return weight(OneSignalLikelihood(fs, mu, kappa, epsilon), mu, bugFix)
}

func TwoSignalWeight(fs2, fs3, mu, alpha, kappa2, kappa3, epsilon float64, bugFix bool) float64 {
	return weight(TwoSignalLikelihood(fs2, fs3, mu, alpha, kappa2, kappa3, epsilon), mu, bugFix)
}

func weight(llrXS, mu float64, bugFix bool) float64 {
	if bugFix {
		return llrXS / (llrXS + 1 - mu)
	}
	return llrXS / (llrXS + 1)
}
