package nn

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultParameterTransforms(t *testing.T) {
	cases := map[string]string{
		"m1":    "identity",
		"m2":    "identity",
		"mu":    "exponential",
		"alpha": "identity",
	}
	for name, want := range cases {
		got, err := GetParameterTransformName(name)
		if err != nil {
			t.Fatalf("transform %s: %v", name, err)
		}
		if got != want {
			t.Fatalf("transform %s: got=%s want=%s", name, got, want)
		}
	}
	fn, err := GetParameterTransform("mu")
	if err != nil {
		t.Fatalf("mu transform: %v", err)
	}
	if got := fn(math.Log(0.01)); math.Abs(got-0.01) > 1e-12 {
		t.Fatalf("unexpected mu value: %f", got)
	}
}

func TestParameterRegularizers(t *testing.T) {
	reg, err := GetParameterRegularizer("m1")
	if err != nil {
		t.Fatalf("m1 regularizer: %v", err)
	}
	if got := reg(3.0); got != 0 {
		t.Fatalf("expected no penalty inside mass range, got=%f", got)
	}
	if got := reg(7.0); math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("expected quadratic penalty above range, got=%f", got)
	}
	if got := reg(0.0); math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("expected quadratic penalty below range, got=%f", got)
	}
}

func TestUnknownParameter(t *testing.T) {
	if _, err := GetParameterTransform("kappa"); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got: %v", err)
	}
	if _, err := GetParameterRegularizer("kappa"); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got: %v", err)
	}
}

func TestRegisterParameterOverride(t *testing.T) {
	t.Cleanup(resetParameterRegistryForTests)

	if err := RegisterParameter("alpha", "sigmoid", nil); err != nil {
		t.Fatalf("register alpha: %v", err)
	}
	reg, err := GetParameterRegularizer("alpha")
	if err != nil || reg != nil {
		t.Fatalf("expected nil regularizer, got err=%v", err)
	}
	if err := RegisterParameter("alpha", "missing", nil); !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got: %v", err)
	}
}

func TestInverseTransform(t *testing.T) {
	for _, name := range []string{"identity", "exponential", "sigmoid", "softplus"} {
		fn, err := GetActivation(name)
		if err != nil {
			t.Fatalf("activation %s: %v", name, err)
		}
		kernel, err := InverseTransform(name, 0.3)
		if err != nil {
			t.Fatalf("inverse %s: %v", name, err)
		}
		if got := fn(kernel); math.Abs(got-0.3) > 1e-9 {
			t.Fatalf("inverse %s does not round trip: got=%f", name, got)
		}
	}
	if _, err := InverseTransform("exponential", 0); err == nil {
		t.Fatal("expected exponential inverse domain error")
	}
	if _, err := InverseTransform("tanh", 0.1); err == nil {
		t.Fatal("expected unsupported inverse error")
	}
}
