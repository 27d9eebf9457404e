package nn

import (
	"fmt"
	"math"
)

// Derivative returns d activation / dx at x.
func Derivative(name string, x float64) (float64, error) {
	switch name {
	case "", "identity", "linear":
		return 1, nil
	case "relu":
		if x > 0 {
			return 1, nil
		}
		return 0, nil
	case "tanh":
		y := math.Tanh(x)
		return 1 - (y * y), nil
	case "sigmoid":
		s := Sigmoid(x)
		return s * (1 - s), nil
	case "softplus":
		return Sigmoid(x), nil
	case "exponential":
		return math.Exp(x), nil
	default:
		return 0, fmt.Errorf("unsupported derivative: %s", name)
	}
}
