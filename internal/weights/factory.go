package weights

import (
	"fmt"

	"paws/internal/nn"
)

// Build constructs a single-weight parameter model. An empty activation
// resolves to identity.
func Build(id ParameterID, initial float64, activation string, regularizer nn.Regularizer, trainable bool) (*ParameterModel, error) {
	transform, err := nn.GetActivation(activation)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", id, err)
	}
	if activation == "" {
		activation = "identity"
	}
	return &ParameterModel{
		ID:          id,
		Kernel:      initial,
		Activation:  activation,
		Transform:   transform,
		Regularizer: regularizer,
		Trainable:   trainable,
	}, nil
}

// GetWeights builds the semi-weakly parameter models. mu and alpha are omitted
// when nil; regularizers are resolved only when useRegularizer is set.
func GetWeights(m1, m2 float64, mu, alpha *float64, useRegularizer bool) (map[ParameterID]*ParameterModel, error) {
	initial := map[ParameterID]*float64{M1: &m1, M2: &m2, Mu: mu, Alpha: alpha}
	out := make(map[ParameterID]*ParameterModel, len(All))
	for _, id := range All {
		value := initial[id]
		if value == nil {
			continue
		}
		activation, err := nn.GetParameterTransformName(id.String())
		if err != nil {
			return nil, err
		}
		var regularizer nn.Regularizer
		if useRegularizer {
			regularizer, err = nn.GetParameterRegularizer(id.String())
			if err != nil {
				return nil, err
			}
		}
		param, err := Build(id, *value, activation, regularizer, true)
		if err != nil {
			return nil, err
		}
		out[id] = param
	}
	return out, nil
}
