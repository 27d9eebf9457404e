package prior

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"paws/internal/likelihood"
	"paws/internal/model"
	"paws/internal/nn"
)

// KappaKind tags how a kappa value is obtained.
type KappaKind int

const (
	KappaLiteral KappaKind = iota
	KappaInferred
	KappaSampled
)

func (k KappaKind) String() string {
	switch k {
	case KappaLiteral:
		return "literal"
	case KappaInferred:
		return "inferred"
	case KappaSampled:
		return "sampled"
	default:
		return fmt.Sprintf("kappa(%d)", int(k))
	}
}

// KappaSpec is either a literal value or a request to evaluate a prior-ratio
// network trained with the named sampling method.
type KappaSpec struct {
	Kind  KappaKind
	Value float64
}

func Literal(value float64) KappaSpec {
	return KappaSpec{Kind: KappaLiteral, Value: value}
}

func (s KappaSpec) Symbolic() bool {
	return s.Kind == KappaInferred || s.Kind == KappaSampled
}

func (s KappaSpec) String() string {
	if s.Symbolic() {
		return s.Kind.String()
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// ParseKappaSpec accepts a float literal or, case-insensitively, "inferred" or "sampled".
func ParseKappaSpec(raw string) (KappaSpec, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch token {
	case "inferred":
		return KappaSpec{Kind: KappaInferred}, nil
	case "sampled":
		return KappaSpec{Kind: KappaSampled}, nil
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return KappaSpec{}, fmt.Errorf("%w: failed to interpret kappa value: %s", model.ErrInvalidArgument, raw)
	}
	return Literal(value), nil
}

// SplitKappa parses the kappa specs of the two-prong and three-prong modes.
// A single token is reused for both modes.
func SplitKappa(raw string) (KappaSpec, KappaSpec, error) {
	var tokens []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	switch len(tokens) {
	case 1:
		spec, err := ParseKappaSpec(tokens[0])
		return spec, spec, err
	case 2:
		kappa2, err := ParseKappaSpec(tokens[0])
		if err != nil {
			return KappaSpec{}, KappaSpec{}, err
		}
		kappa3, err := ParseKappaSpec(tokens[1])
		if err != nil {
			return KappaSpec{}, KappaSpec{}, err
		}
		return kappa2, kappa3, nil
	default:
		return KappaSpec{}, KappaSpec{}, fmt.Errorf("%w: failed to interpret kappa value: %s", model.ErrInvalidArgument, raw)
	}
}

// Kappa is a resolved kappa: a constant, or a frozen prior-ratio network
// evaluated per event on the mass parameters.
type Kappa struct {
	value   float64
	network *nn.Network
}

func Constant(value float64) Kappa {
	return Kappa{value: value}
}

// IsTensor reports whether the kappa varies per event.
func (k Kappa) IsTensor() bool {
	return k.network != nil
}

// Value is the constant kappa; it is zero for tensor kappas.
func (k Kappa) Value() float64 {
	return k.value
}

func (k Kappa) Network() *nn.Network {
	return k.network
}

// Eval returns the kappa column for the given [m1, m2] mass matrix.
func (k Kappa) Eval(mass *mat.Dense) (likelihood.Column, error) {
	if k.network == nil {
		return likelihood.Scalar(k.value), nil
	}
	out, err := k.network.Forward(mass)
	if err != nil {
		return nil, fmt.Errorf("evaluate kappa: %w", err)
	}
	return out, nil
}
