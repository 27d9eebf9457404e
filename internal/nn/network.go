package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"paws/internal/model"
)

var ErrShapeMismatch = errors.New("shape mismatch")

// Network is a loaded feed-forward model with a single per-event output.
type Network struct {
	name   string
	record model.Network
	layers []denseLayer
}

type denseLayer struct {
	name       string
	activation ActivationFunc
	kernel     *mat.Dense
	bias       []float64
	trainable  bool
}

func NewNetwork(record model.Network) (*Network, error) {
	if len(record.Layers) == 0 {
		return nil, errors.New("network has no layers")
	}
	width := record.Inputs
	layers := make([]denseLayer, 0, len(record.Layers))
	for i, layer := range record.Layers {
		if layer.In != width {
			return nil, fmt.Errorf("%w: layer %d (%s) expects %d inputs, previous width %d", ErrShapeMismatch, i, layer.Name, layer.In, width)
		}
		if len(layer.Kernel) != layer.In*layer.Out {
			return nil, fmt.Errorf("%w: layer %s kernel has %d values, want %d", ErrShapeMismatch, layer.Name, len(layer.Kernel), layer.In*layer.Out)
		}
		if len(layer.Bias) != 0 && len(layer.Bias) != layer.Out {
			return nil, fmt.Errorf("%w: layer %s bias has %d values, want %d", ErrShapeMismatch, layer.Name, len(layer.Bias), layer.Out)
		}
		fn, err := GetActivation(layer.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", layer.Name, err)
		}
		layers = append(layers, denseLayer{
			name:       layer.Name,
			activation: fn,
			kernel:     mat.NewDense(layer.In, layer.Out, append([]float64(nil), layer.Kernel...)),
			bias:       append([]float64(nil), layer.Bias...),
			trainable:  true,
		})
		width = layer.Out
	}
	if width != 1 {
		return nil, fmt.Errorf("%w: network output width %d, want 1", ErrShapeMismatch, width)
	}
	return &Network{name: record.Name, record: record, layers: layers}, nil
}

// Clone returns an independent copy with the same name and trainable state.
func (n *Network) Clone() *Network {
	out := &Network{name: n.name, record: n.Record(), layers: make([]denseLayer, len(n.layers))}
	for i, layer := range n.layers {
		layer.kernel = mat.DenseCopyOf(layer.kernel)
		layer.bias = append([]float64(nil), layer.bias...)
		out.layers[i] = layer
	}
	return out
}

func (n *Network) Name() string { return n.name }

func (n *Network) SetName(name string) { n.name = name }

// Freeze disables gradient updates on every layer.
func (n *Network) Freeze() {
	for i := range n.layers {
		n.layers[i].trainable = false
	}
}

func (n *Network) Trainable() bool {
	for _, layer := range n.layers {
		if layer.trainable {
			return true
		}
	}
	return false
}

// Forward concatenates inputs column-wise and returns one value per event.
func (n *Network) Forward(inputs ...*mat.Dense) ([]float64, error) {
	x, err := Concat(inputs...)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", n.name, err)
	}
	if _, c := x.Dims(); c != n.record.Inputs {
		return nil, fmt.Errorf("%w: network %s expects %d input columns, got %d", ErrShapeMismatch, n.name, n.record.Inputs, c)
	}
	for _, layer := range n.layers {
		var z mat.Dense
		z.Mul(x, layer.kernel)
		activation := layer.activation
		bias := layer.bias
		z.Apply(func(_, j int, v float64) float64 {
			if len(bias) != 0 {
				v += bias[j]
			}
			return activation(v)
		}, &z)
		x = &z
	}
	return mat.Col(nil, 0, x), nil
}

// Weights maps each weight tensor name to a flattened copy of its values.
func (n *Network) Weights() map[string][]float64 {
	out := make(map[string][]float64, 2*len(n.record.Layers))
	for _, layer := range n.record.Layers {
		out[layer.Name+"/kernel:0"] = append([]float64(nil), layer.Kernel...)
		if len(layer.Bias) != 0 {
			out[layer.Name+"/bias:0"] = append([]float64(nil), layer.Bias...)
		}
	}
	return out
}

func (n *Network) Record() model.Network {
	record := n.record
	record.Name = n.name
	record.Layers = make([]model.Layer, len(n.record.Layers))
	for i, layer := range n.record.Layers {
		layer.Kernel = append([]float64(nil), layer.Kernel...)
		layer.Bias = append([]float64(nil), layer.Bias...)
		record.Layers[i] = layer
	}
	return record
}
