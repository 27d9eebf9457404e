package nn

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Mass parameters are trained in units of MassScale GeV.
const (
	MassScale   = 100.0
	MassRangeLo = 50.0
	MassRangeHi = 600.0
)

var ErrUnknownParameter = errors.New("unknown parameter")

// Regularizer returns the penalty contributed by a raw kernel value.
type Regularizer func(w float64) float64

// RangeRegularizer penalizes kernels quadratically outside [Min, Max].
type RangeRegularizer struct {
	Min      float64
	Max      float64
	Strength float64
}

func (r RangeRegularizer) Penalty(w float64) float64 {
	switch {
	case w < r.Min:
		d := r.Min - w
		return r.Strength * d * d
	case w > r.Max:
		d := w - r.Max
		return r.Strength * d * d
	default:
		return 0
	}
}

type parameterEntry struct {
	transform   string
	regularizer Regularizer
}

var parameterRegistry = struct {
	mu sync.RWMutex
	m  map[string]parameterEntry
}{
	m: make(map[string]parameterEntry),
}

func init() {
	initializeParameterDefaults()
}

func initializeParameterDefaults() {
	mass := RangeRegularizer{Min: MassRangeLo / MassScale, Max: MassRangeHi / MassScale, Strength: 1}.Penalty
	parameterRegistry.mu.Lock()
	defer parameterRegistry.mu.Unlock()
	parameterRegistry.m = map[string]parameterEntry{
		"m1": {transform: "identity", regularizer: mass},
		"m2": {transform: "identity", regularizer: mass},
		// mu is trained as log(mu).
		"mu":    {transform: "exponential", regularizer: RangeRegularizer{Min: -15, Max: 0, Strength: 1}.Penalty},
		"alpha": {transform: "identity", regularizer: RangeRegularizer{Min: 0, Max: 1, Strength: 1}.Penalty},
	}
}

// RegisterParameter binds a parameter name to an activation name and an
// optional regularizer, replacing any previous binding.
func RegisterParameter(name, transform string, regularizer Regularizer) error {
	if name == "" {
		return errors.New("parameter name is required")
	}
	if _, err := GetActivation(transform); err != nil {
		return err
	}
	parameterRegistry.mu.Lock()
	defer parameterRegistry.mu.Unlock()
	parameterRegistry.m[name] = parameterEntry{transform: transform, regularizer: regularizer}
	return nil
}

func GetParameterTransformName(name string) (string, error) {
	parameterRegistry.mu.RLock()
	entry, ok := parameterRegistry.m[name]
	parameterRegistry.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return entry.transform, nil
}

func GetParameterTransform(name string) (ActivationFunc, error) {
	transform, err := GetParameterTransformName(name)
	if err != nil {
		return nil, err
	}
	return GetActivation(transform)
}

// GetParameterRegularizer returns nil when the parameter has no regularizer.
func GetParameterRegularizer(name string) (Regularizer, error) {
	parameterRegistry.mu.RLock()
	entry, ok := parameterRegistry.m[name]
	parameterRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return entry.regularizer, nil
}

// InverseTransform maps a physical value back to the kernel value that produces
// it under the named activation.
func InverseTransform(activation string, value float64) (float64, error) {
	switch activation {
	case "", "identity", "linear":
		return value, nil
	case "exponential":
		if value <= 0 {
			return 0, fmt.Errorf("exponential inverse requires a positive value, got %g", value)
		}
		return math.Log(value), nil
	case "sigmoid":
		if value <= 0 || value >= 1 {
			return 0, fmt.Errorf("sigmoid inverse requires a value in (0,1), got %g", value)
		}
		return math.Log(value / (1 - value)), nil
	case "softplus":
		if value <= 0 {
			return 0, fmt.Errorf("softplus inverse requires a positive value, got %g", value)
		}
		return math.Log(math.Expm1(value)), nil
	default:
		return 0, fmt.Errorf("no inverse for activation: %s", activation)
	}
}

func resetParameterRegistryForTests() {
	initializeParameterDefaults()
}
