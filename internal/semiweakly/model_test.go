package semiweakly

import (
	"context"
	"errors"
	"math"
	"testing"

	"paws/internal/model"
	"paws/internal/weights"
)

func buildSingleSignal(t *testing.T) *Model {
	t.Helper()
	store := newStore(t, defaultNetworks())
	m, err := newBuilder(t, "qq", model.BCE, store).Build(context.Background(), singleSignalOptions())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func TestSetWeightsByName(t *testing.T) {
	m := buildSingleSignal(t)
	if err := m.SetWeightsByName(map[string]float64{"m1/kernel:0": 4.5, "mu": -2}); err != nil {
		t.Fatalf("set weights: %v", err)
	}
	params := m.Parameters()
	if params[weights.M1] != 4.5 || params[weights.Mu] != -2 || params[weights.M2] != 2 {
		t.Fatalf("unexpected parameters: %+v", params)
	}
	if got := m.Values()[weights.Mu]; math.Abs(got-math.Exp(-2)) > 1e-15 {
		t.Fatalf("unexpected mu value: %f", got)
	}
}

func TestSetWeightsByNameUnknown(t *testing.T) {
	m := buildSingleSignal(t)
	for _, name := range []string{"beta/kernel:0", "m1/bias:0", "alpha/kernel:0"} {
		err := m.SetWeightsByName(map[string]float64{name: 1, "m1/kernel:0": 9})
		if !errors.Is(err, weights.ErrUnknownWeight) {
			t.Fatalf("%s: expected unknown weight, got %v", name, err)
		}
	}
	if m.Parameters()[weights.M1] != 3 {
		t.Fatal("failed update must not apply partial changes")
	}
}

func TestSetValues(t *testing.T) {
	m := buildSingleSignal(t)
	if err := m.SetValues(map[weights.ParameterID]float64{weights.Mu: 0.2, weights.M1: 3.5}); err != nil {
		t.Fatalf("set values: %v", err)
	}
	params := m.Parameters()
	if math.Abs(params[weights.Mu]-math.Log(0.2)) > 1e-12 || params[weights.M1] != 3.5 {
		t.Fatalf("unexpected parameters: %+v", params)
	}

	err := m.SetValues(map[weights.ParameterID]float64{weights.Mu: 0, weights.M1: 5})
	if err == nil {
		t.Fatal("expected error for mu=0")
	}
	if m.Parameters()[weights.M1] != 3.5 {
		t.Fatal("failed update must not apply partial changes")
	}
	if err := m.SetValues(map[weights.ParameterID]float64{weights.Alpha: 0.5}); !errors.Is(err, weights.ErrUnknownWeight) {
		t.Fatalf("expected unknown weight for alpha, got %v", err)
	}
}

func TestPenalty(t *testing.T) {
	m := buildSingleSignal(t)
	if err := m.SetParameters(map[weights.ParameterID]float64{weights.M1: 7, weights.M2: 3, weights.Mu: -1}); err != nil {
		t.Fatalf("set parameters: %v", err)
	}
	if got := m.Penalty(); math.Abs(got-1) > 1e-12 {
		t.Fatalf("unexpected penalty: %f", got)
	}
}

func TestPenaltyDisabledWithoutRegularizer(t *testing.T) {
	store := newStore(t, defaultNetworks())
	opts := singleSignalOptions()
	opts.Policy.UseRegularizer = false
	opts.M1 = 20
	m, err := newBuilder(t, "qq", model.BCE, store).Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Penalty() != 0 {
		t.Fatalf("expected no penalty, got %f", m.Penalty())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := buildSingleSignal(t)
	snapshot := m.Snapshot("run-1", 12)
	if snapshot.Weights["m1/kernel:0"] != 3 || len(snapshot.Weights) != 3 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if err := m.SetParameters(map[weights.ParameterID]float64{weights.M1: 5}); err != nil {
		t.Fatalf("set parameters: %v", err)
	}
	if err := m.RestoreSnapshot(snapshot); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if m.Parameters()[weights.M1] != 3 {
		t.Fatalf("expected restored m1, got %f", m.Parameters()[weights.M1])
	}
}

func TestForwardRequiresFeatures(t *testing.T) {
	m := buildSingleSignal(t)
	if _, err := m.Forward(nil); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
