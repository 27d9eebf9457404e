package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Average returns the element-wise arithmetic mean of equally sized outputs.
func Average(outputs [][]float64) ([]float64, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("outputs must not be empty")
	}
	out := make([]float64, len(outputs[0]))
	for i, values := range outputs {
		if len(values) != len(out) {
			return nil, fmt.Errorf("output %d length mismatch: %d != %d", i, len(values), len(out))
		}
		floats.Add(out, values)
	}
	floats.Scale(1/float64(len(outputs)), out)
	return out, nil
}

// Broadcast repeats value over n events.
func Broadcast(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func Ones(n int) []float64 {
	return Broadcast(1, n)
}

// Columns stacks per-event columns into an n x len(columns) matrix.
func Columns(columns ...[]float64) (*mat.Dense, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("columns must not be empty")
	}
	n := len(columns[0])
	if n == 0 {
		return nil, fmt.Errorf("columns must not be empty")
	}
	out := mat.NewDense(n, len(columns), nil)
	for j, column := range columns {
		if len(column) != n {
			return nil, fmt.Errorf("column %d length mismatch: %d != %d", j, len(column), n)
		}
		out.SetCol(j, column)
	}
	return out, nil
}

// Concat joins inputs horizontally; all inputs must share the event count.
func Concat(inputs ...*mat.Dense) (*mat.Dense, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("inputs must not be empty")
	}
	rows, _ := inputs[0].Dims()
	width := 0
	for i, input := range inputs {
		r, c := input.Dims()
		if r != rows {
			return nil, fmt.Errorf("input %d event count mismatch: %d != %d", i, r, rows)
		}
		width += c
	}
	out := mat.NewDense(rows, width, nil)
	offset := 0
	for _, input := range inputs {
		_, c := input.Dims()
		out.Slice(0, rows, offset, offset+c).(*mat.Dense).Copy(input)
		offset += c
	}
	return out, nil
}

// ScaleMass converts a mass in GeV to training units.
func ScaleMass(gev float64) float64 {
	return gev / MassScale
}
