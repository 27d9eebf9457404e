package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument marks configuration errors raised at construction time.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDomainMismatch marks a loss that is not valid for the requested model type.
	ErrDomainMismatch = errors.New("domain mismatch")
)

type ModelType string

const (
	DedicatedSupervised ModelType = "dedicated_supervised"
	ParamSupervised     ModelType = "param_supervised"
	IdealWeakly         ModelType = "ideal_weakly"
	SemiWeakly          ModelType = "semi_weakly"
	PriorRatio          ModelType = "prior_ratio"
)

func ParseModelType(raw string) (ModelType, error) {
	switch normalizeKey(raw) {
	case "dedicated_supervised":
		return DedicatedSupervised, nil
	case "param_supervised":
		return ParamSupervised, nil
	case "ideal_weakly":
		return IdealWeakly, nil
	case "semi_weakly":
		return SemiWeakly, nil
	case "prior_ratio":
		return PriorRatio, nil
	default:
		return "", fmt.Errorf("%w: unknown model type %q", ErrInvalidArgument, raw)
	}
}

// Weakly reports whether the model is trained on mixed-sample labels.
func (t ModelType) Weakly() bool {
	return t == SemiWeakly || t == IdealWeakly
}

type FeatureLevel string

const (
	HighLevel FeatureLevel = "high_level"
	LowLevel  FeatureLevel = "low_level"
)

func ParseFeatureLevel(raw string) (FeatureLevel, error) {
	switch normalizeKey(raw) {
	case "high_level":
		return HighLevel, nil
	case "low_level":
		return LowLevel, nil
	default:
		return "", fmt.Errorf("%w: unknown feature level %q", ErrInvalidArgument, raw)
	}
}

type DecayMode string

const (
	TwoProng   DecayMode = "qq"
	ThreeProng DecayMode = "qqq"
)

func ParseDecayMode(raw string) (DecayMode, error) {
	switch normalizeKey(raw) {
	case "qq", "two_prong":
		return TwoProng, nil
	case "qqq", "three_prong":
		return ThreeProng, nil
	default:
		return "", fmt.Errorf("%w: unknown decay mode %q", ErrInvalidArgument, raw)
	}
}

// DecayModes is an ordered set of one or two decay modes.
type DecayModes []DecayMode

// ParseDecayModes parses a comma delimited list such as "qq,qqq".
func ParseDecayModes(raw string) (DecayModes, error) {
	var modes DecayModes
	seen := make(map[DecayMode]bool, 2)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		mode, err := ParseDecayMode(token)
		if err != nil {
			return nil, err
		}
		if seen[mode] {
			return nil, fmt.Errorf("%w: duplicate decay mode %q", ErrInvalidArgument, mode)
		}
		seen[mode] = true
		modes = append(modes, mode)
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("%w: at least one decay mode is required", ErrInvalidArgument)
	}
	return modes, nil
}

// MultiSignal reports whether both decay modes contribute to the signal.
func (m DecayModes) MultiSignal() bool {
	return len(m) > 1
}

func (m DecayModes) String() string {
	parts := make([]string, len(m))
	for i, mode := range m {
		parts[i] = string(mode)
	}
	return strings.Join(parts, ",")
}

type Loss string

const (
	BCE Loss = "bce"
	NLL Loss = "nll"
)

func ParseLoss(raw string) (Loss, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bce":
		return BCE, nil
	case "nll":
		return NLL, nil
	default:
		return "", fmt.Errorf("%w: invalid name for loss function: %s; choose between \"bce\" and \"nll\"", ErrInvalidArgument, raw)
	}
}

// SaveMode is the frequency at which a logging or checkpoint callback persists state.
type SaveMode string

const (
	SaveEpoch SaveMode = "epoch"
	SaveBatch SaveMode = "batch"
	SaveTrain SaveMode = "train"
)

func ParseSaveMode(raw string) (SaveMode, error) {
	switch normalizeKey(raw) {
	case "", "epoch":
		return SaveEpoch, nil
	case "batch":
		return SaveBatch, nil
	case "train":
		return SaveTrain, nil
	default:
		return "", fmt.Errorf("%w: unknown save mode %q", ErrInvalidArgument, raw)
	}
}

func normalizeKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(key, "-", "_")
}
