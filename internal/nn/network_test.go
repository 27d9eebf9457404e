package nn

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"paws/internal/model"
)

func twoLayerRecord() model.Network {
	return model.Network{
		Name:   "Supervised",
		Inputs: 2,
		Layers: []model.Layer{
			{Name: "dense", In: 2, Out: 2, Activation: "relu", Kernel: []float64{1, -1, 2, 0}, Bias: []float64{0, 0.5}},
			{Name: "output", In: 2, Out: 1, Activation: "identity", Kernel: []float64{1, 2}},
		},
	}
}

func TestForwardSimpleFeedForward(t *testing.T) {
	net, err := NewNetwork(twoLayerRecord())
	if err != nil {
		t.Fatalf("new network: %v", err)
	}

	// event 0: x=[1,1] -> hidden=relu([3, -0.5]) = [3, 0] -> 3
	// event 1: x=[0,-1] -> hidden=relu([-2, 0.5]) = [0, 0.5] -> 1
	x := mat.NewDense(2, 2, []float64{1, 1, 0, -1})
	out, err := net.Forward(x)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	want := []float64{3, 1}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Fatalf("unexpected output at %d: got=%f want=%f", i, out[i], want[i])
		}
	}
}

func TestForwardSplitInputs(t *testing.T) {
	net, err := NewNetwork(twoLayerRecord())
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	left := mat.NewDense(1, 1, []float64{1})
	right := mat.NewDense(1, 1, []float64{1})
	out, err := net.Forward(left, right)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if math.Abs(out[0]-3) > 1e-9 {
		t.Fatalf("unexpected output: %f", out[0])
	}
	if _, err := net.Forward(left); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got: %v", err)
	}
}

func TestNewNetworkValidation(t *testing.T) {
	record := twoLayerRecord()
	record.Layers[1].In = 3
	if _, err := NewNetwork(record); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got: %v", err)
	}

	record = twoLayerRecord()
	record.Layers[0].Activation = "swish"
	if _, err := NewNetwork(record); !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got: %v", err)
	}

	record = twoLayerRecord()
	record.Layers = record.Layers[:1]
	if _, err := NewNetwork(record); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected multi-output rejection, got: %v", err)
	}

	if _, err := NewNetwork(model.Network{Inputs: 1}); err == nil {
		t.Fatal("expected empty network error")
	}
}

func TestFreezeAndRename(t *testing.T) {
	net, err := NewNetwork(twoLayerRecord())
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	if !net.Trainable() {
		t.Fatal("expected fresh network to be trainable")
	}
	net.Freeze()
	if net.Trainable() {
		t.Fatal("expected frozen network")
	}
	net.SetName("prior_1")
	if net.Name() != "prior_1" || net.Record().Name != "prior_1" {
		t.Fatalf("unexpected name: %s", net.Name())
	}

	weights := net.Weights()
	if len(weights) != 3 {
		t.Fatalf("unexpected weight tensors: %+v", weights)
	}
	kernel := weights["dense/kernel:0"]
	kernel[0] = 100
	if net.Weights()["dense/kernel:0"][0] != 1 {
		t.Fatal("weights must be returned as copies")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	net, err := NewNetwork(twoLayerRecord())
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	net.Freeze()
	clone := net.Clone()
	clone.SetName("prior_2")
	if net.Name() != "Supervised" || clone.Name() != "prior_2" {
		t.Fatalf("rename leaked: %s %s", net.Name(), clone.Name())
	}
	if clone.Trainable() {
		t.Fatal("expected clone to keep the frozen state")
	}
	clone.layers[0].kernel.Set(0, 0, 50)
	x := mat.NewDense(1, 2, []float64{1, 1})
	a, err := net.Forward(x)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	b, err := clone.Forward(x)
	if err != nil {
		t.Fatalf("clone forward: %v", err)
	}
	if a[0] == b[0] {
		t.Fatalf("expected clone kernel change to stay local, both gave %f", a[0])
	}
}
