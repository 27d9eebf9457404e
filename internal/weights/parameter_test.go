package weights

import (
	"errors"
	"math"
	"testing"

	"paws/internal/nn"
)

func TestParameterIDNames(t *testing.T) {
	for _, id := range All {
		parsed, err := ParseParameterID(id.String())
		if err != nil {
			t.Fatalf("parse %s: %v", id, err)
		}
		if parsed != id {
			t.Fatalf("round trip mismatch: %s != %s", parsed, id)
		}
	}
	if got := Alpha.WeightName(); got != "alpha/kernel:0" {
		t.Fatalf("unexpected weight name: %s", got)
	}
}

func TestParseWeightName(t *testing.T) {
	for _, name := range []string{"m2/kernel:0", "m2/kernel", "m2"} {
		id, err := ParseWeightName(name)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if id != M2 {
			t.Fatalf("parse %s: got %s", name, id)
		}
	}
	for _, name := range []string{"dense/kernel:0", "m1/bias:0", "kappa"} {
		if _, err := ParseWeightName(name); !errors.Is(err, ErrUnknownWeight) {
			t.Fatalf("expected ErrUnknownWeight for %s, got: %v", name, err)
		}
	}
}

func TestBuildSingleWeightModel(t *testing.T) {
	param, err := Build(Mu, math.Log(0.05), "exponential", nil, true)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := param.Forward([]float64{1, 1, 1})
	for i, v := range out {
		if math.Abs(v-0.05) > 1e-12 {
			t.Fatalf("unexpected output at %d: %f", i, v)
		}
	}
	if math.Abs(param.Value()-0.05) > 1e-12 {
		t.Fatalf("unexpected value: %f", param.Value())
	}
	grad, err := param.Gradient()
	if err != nil {
		t.Fatalf("gradient: %v", err)
	}
	if math.Abs(grad-0.05) > 1e-12 {
		t.Fatalf("unexpected gradient: %f", grad)
	}
	if param.Penalty() != 0 {
		t.Fatal("expected zero penalty without regularizer")
	}

	param.SetKernel(0)
	if param.Value() != 1 {
		t.Fatalf("expected exp(0)=1 after set, got %f", param.Value())
	}

	if _, err := Build(M1, 1, "nope", nil, true); !errors.Is(err, nn.ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got: %v", err)
	}

	identity, err := Build(M1, 2.5, "", nil, false)
	if err != nil {
		t.Fatalf("build identity: %v", err)
	}
	if identity.Activation != "identity" || identity.Value() != 2.5 || identity.Trainable {
		t.Fatalf("unexpected identity parameter: %+v", identity)
	}
}

func TestGetWeightsOmitsOptional(t *testing.T) {
	params, err := GetWeights(3, 1, nil, nil, true)
	if err != nil {
		t.Fatalf("get weights: %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("expected only mass parameters, got %d", len(params))
	}
	if _, ok := params[Mu]; ok {
		t.Fatal("mu must be omitted when nil")
	}
	if params[M1].Regularizer == nil {
		t.Fatal("expected regularizer when requested")
	}

	mu := math.Log(1e-3)
	alpha := 0.5
	params, err = GetWeights(3, 1, &mu, &alpha, false)
	if err != nil {
		t.Fatalf("get weights: %v", err)
	}
	if len(params) != 4 {
		t.Fatalf("expected four parameters, got %d", len(params))
	}
	for id, param := range params {
		if param.Regularizer != nil {
			t.Fatalf("expected no regularizer for %s", id)
		}
		if param.ID != id {
			t.Fatalf("parameter keyed under wrong id: %s != %s", param.ID, id)
		}
	}
	if math.Abs(params[Mu].Value()-1e-3) > 1e-15 {
		t.Fatalf("unexpected mu value: %g", params[Mu].Value())
	}
}

func TestPenaltyOutsideRange(t *testing.T) {
	params, err := GetWeights(7, 3, nil, nil, true)
	if err != nil {
		t.Fatalf("get weights: %v", err)
	}
	if got := params[M1].Penalty(); math.Abs(got-1) > 1e-12 {
		t.Fatalf("unexpected m1 penalty: %f", got)
	}
	if got := params[M2].Penalty(); got != 0 {
		t.Fatalf("unexpected m2 penalty: %f", got)
	}
}

func TestSetValueInvertsTransform(t *testing.T) {
	param, err := Build(Mu, 0, "exponential", nil, true)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := param.SetValue(0.01); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if math.Abs(param.Kernel-math.Log(0.01)) > 1e-12 || math.Abs(param.Value()-0.01) > 1e-12 {
		t.Fatalf("unexpected kernel=%f value=%f", param.Kernel, param.Value())
	}
	if err := param.SetValue(-1); err == nil {
		t.Fatal("expected error for a negative signal fraction")
	}
	if math.Abs(param.Value()-0.01) > 1e-12 {
		t.Fatalf("failed set must not change the kernel, value=%f", param.Value())
	}
}
