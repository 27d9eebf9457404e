package weights

import (
	"errors"
	"fmt"
	"strings"

	"paws/internal/nn"
)

// ErrUnknownWeight signals a weight name that no parameter model owns. It
// indicates a naming contract violation and is never recovered.
var ErrUnknownWeight = errors.New("unknown model weight")

// ParameterID identifies one of the trainable physical parameters.
type ParameterID int

const (
	M1 ParameterID = iota
	M2
	Mu
	Alpha
)

// All lists the parameters in construction order.
var All = []ParameterID{M1, M2, Mu, Alpha}

func (id ParameterID) String() string {
	switch id {
	case M1:
		return "m1"
	case M2:
		return "m2"
	case Mu:
		return "mu"
	case Alpha:
		return "alpha"
	default:
		return fmt.Sprintf("parameter(%d)", int(id))
	}
}

// WeightName is the legacy checkpoint name of the parameter's kernel.
func (id ParameterID) WeightName() string {
	return id.String() + "/kernel:0"
}

func ParseParameterID(name string) (ParameterID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "m1":
		return M1, nil
	case "m2":
		return M2, nil
	case "mu":
		return Mu, nil
	case "alpha":
		return Alpha, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownWeight, name)
	}
}

// ParseWeightName accepts "m1/kernel:0", "m1/kernel" or "m1".
func ParseWeightName(name string) (ParameterID, error) {
	base, suffix, found := strings.Cut(name, "/")
	if found && suffix != "kernel:0" && suffix != "kernel" {
		return 0, fmt.Errorf("%w: %s; make sure model weights are initialized with the proper names", ErrUnknownWeight, name)
	}
	id, err := ParseParameterID(base)
	if err != nil {
		return 0, fmt.Errorf("%w: %s; make sure model weights are initialized with the proper names", ErrUnknownWeight, name)
	}
	return id, nil
}

// ParameterModel holds one scalar kernel. Its per-event output is
// transform(kernel * 1); there is no bias.
type ParameterModel struct {
	ID          ParameterID
	Kernel      float64
	Activation  string
	Transform   nn.ActivationFunc
	Regularizer nn.Regularizer
	Trainable   bool
}

// Value is the physical value the parameter currently represents.
func (p *ParameterModel) Value() float64 {
	return p.Transform(p.Kernel)
}

// Forward evaluates the parameter over a constant-ones input.
func (p *ParameterModel) Forward(ones []float64) []float64 {
	out := make([]float64, len(ones))
	for i, x := range ones {
		out[i] = p.Transform(p.Kernel * x)
	}
	return out
}

// Penalty is the regularization loss contributed by the current kernel.
func (p *ParameterModel) Penalty() float64 {
	if p.Regularizer == nil {
		return 0
	}
	return p.Regularizer(p.Kernel)
}

// Gradient returns d value / d kernel at the current kernel.
func (p *ParameterModel) Gradient() (float64, error) {
	return nn.Derivative(p.Activation, p.Kernel)
}

// SetKernel overwrites the raw weight, bypassing any training update.
func (p *ParameterModel) SetKernel(value float64) {
	p.Kernel = value
}

// SetValue sets the kernel that makes the transformed output equal value.
func (p *ParameterModel) SetValue(value float64) error {
	kernel, err := nn.InverseTransform(p.Activation, value)
	if err != nil {
		return fmt.Errorf("%s: %w", p.WeightName(), err)
	}
	p.Kernel = kernel
	return nil
}

func (p *ParameterModel) WeightName() string {
	return p.ID.WeightName()
}
